package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

const (
	MaxTitleLength     = 300
	MaxTagLength       = 50
	MaxTagsPerText     = 20
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// ArticleService covers the article library: texts, tags, a user's saved
// texts and reading-time logs.
type ArticleService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewArticleService(store repository.Store, logger *slog.Logger) *ArticleService {
	return &ArticleService{store: store, logger: logger}
}

// NewArticle is the input to Create.
type NewArticle struct {
	Title   string
	Content string
	URL     string
	Authors string
	Tags    []string
}

// Create stores an article with its tags in one transaction. Tag names are
// trimmed, lowercased and de-duplicated; blanks are dropped.
func (s *ArticleService) Create(ctx context.Context, in NewArticle) (*model.Text, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, apperror.ValidationFailed("url", "url must be an absolute http(s) URL")
		}
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	text := &model.Text{
		Title:   title,
		Content: in.Content,
		URL:     strings.TrimSpace(in.URL),
		Authors: strings.TrimSpace(in.Authors),
		Tags:    tags,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.CreateText(ctx, text)
	})
	if err != nil {
		s.logger.Error("failed to create text", slog.String("title", title), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating text: %w", err)
	}

	s.logger.Info("text created", slog.Int64("id", text.ID), slog.String("title", text.Title))
	return text, nil
}

func normalizeTags(raw []string) ([]string, error) {
	set := map[string]bool{}
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", MaxTagLength))
		}
		set[t] = true
	}
	if len(set) > MaxTagsPerText {
		return nil, apperror.ValidationFailed("tags",
			fmt.Sprintf("at most %d tags per text", MaxTagsPerText))
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*model.Text, error) {
	return s.store.GetText(ctx, id)
}

// Search matches a case-insensitive title substring and/or an exact tag.
func (s *ArticleService) Search(ctx context.Context, title, tag string, limit, offset int) ([]model.Text, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	texts, err := s.store.SearchTexts(ctx,
		strings.TrimSpace(title),
		strings.ToLower(strings.TrimSpace(tag)),
		repository.ListOptions{Limit: limit, Offset: offset},
	)
	if err != nil {
		s.logger.Error("failed to search texts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching texts: %w", err)
	}
	return texts, nil
}

// Delete removes a text. Reading logs that pointed at it survive with a
// null text id.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteText(ctx, id); err != nil {
		return err
	}
	s.logger.Info("text deleted", slog.Int64("id", id))
	return nil
}

// LogReadingTime appends a reading log for an existing text.
func (s *ArticleService) LogReadingTime(ctx context.Context, userID, textID int64, elapsedSeconds int) (*model.ReadingLog, error) {
	if elapsedSeconds < 0 {
		return nil, apperror.ValidationFailed("elapsed_time_seconds", "elapsed time must not be negative")
	}
	if _, err := s.store.GetText(ctx, textID); err != nil {
		return nil, err
	}

	log := &model.ReadingLog{UserID: userID, TextID: &textID, ElapsedSeconds: elapsedSeconds}
	if err := s.store.CreateReadingLog(ctx, log); err != nil {
		s.logger.Error("failed to log reading time", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("logging reading time: %w", err)
	}
	return log, nil
}

// AddToLibrary saves a text for the user. Saving twice is a no-op.
func (s *ArticleService) AddToLibrary(ctx context.Context, userID, textID int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetText(ctx, textID); err != nil {
			return err
		}
		return tx.AddToLibrary(ctx, userID, textID)
	})
}

func (s *ArticleService) RemoveFromLibrary(ctx context.Context, userID, textID int64) error {
	return s.store.RemoveFromLibrary(ctx, userID, textID)
}

func (s *ArticleService) Library(ctx context.Context, userID int64) ([]model.Text, error) {
	texts, err := s.store.ListLibrary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing library: %w", err)
	}
	return texts, nil
}

// LastReading returns the user's most recent reading log and its text, or
// nil when the user has never logged any reading. Text is nil when the
// article has since been deleted.
func (s *ArticleService) LastReading(ctx context.Context, userID int64) (*model.LastReading, error) {
	log, err := s.store.LastReadingLog(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last reading: %w", err)
	}

	out := &model.LastReading{Log: *log}
	if log.TextID != nil {
		text, err := s.store.GetText(ctx, *log.TextID)
		switch {
		case err == nil:
			out.Text = text
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("getting last reading text: %w", err)
		}
	}
	return out, nil
}
