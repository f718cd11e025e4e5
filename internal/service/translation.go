package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/cache"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
	"github.com/sakif/lingoread/internal/translator"
)

const (
	MaxTranslationTextLength = 5000
	MaxBatchWords            = 100
	DefaultMemoTTL           = 24 * time.Hour
)

// langCode accepts ISO 639 codes with an optional subtag: en, zh, zh-hans, pt-br.
var langCode = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)?$`)

// TranslationService is the translation cache: a content-addressed
// lookup-or-create over (text, source_lang, target_lang).
//
// LOOKUP ORDER:
//
//	memo (Redis, optional) → translations table → provider
//
// The table is the source of truth. The memo is only ever filled from a row
// that exists in the table, and any memo error is logged and ignored.
//
// Concurrent misses on the same key inside this process share one provider
// call (singleflight). Across processes the UNIQUE constraint on the table
// decides, and CreateTranslation returns the winner's row to everyone.
type TranslationService struct {
	store    repository.TranslationRepository
	provider translator.Provider
	memo     cache.Memo
	memoTTL  time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

func NewTranslationService(
	store repository.TranslationRepository,
	provider translator.Provider,
	memo cache.Memo,
	memoTTL time.Duration,
	logger *slog.Logger,
) *TranslationService {
	if memo == nil {
		memo = cache.Nop{}
	}
	if memoTTL <= 0 {
		memoTTL = DefaultMemoTTL
	}
	return &TranslationService{
		store:    store,
		provider: provider,
		memo:     memo,
		memoTTL:  memoTTL,
		logger:   logger,
	}
}

// GetOrCreate returns the cached translation for the key, fetching and
// storing it on a miss.
//
//   - blank text is a validation error; nothing is stored
//   - a hit never calls the provider
//   - any provider failure is apperror.ErrTranslationUnavailable and leaves
//     no row behind
func (s *TranslationService) GetOrCreate(ctx context.Context, text, sourceLang, targetLang string) (*model.Translation, error) {
	text = strings.TrimSpace(text)
	sourceLang = strings.ToLower(strings.TrimSpace(sourceLang))
	targetLang = strings.ToLower(strings.TrimSpace(targetLang))

	if text == "" {
		return nil, apperror.ValidationFailed("text", "text to translate is required")
	}
	if utf8.RuneCountInString(text) > MaxTranslationTextLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", MaxTranslationTextLength))
	}
	if sourceLang == "" || targetLang == "" {
		return nil, apperror.ValidationFailed("lang", "source and target languages are required")
	}
	if !langCode.MatchString(sourceLang) || !langCode.MatchString(targetLang) {
		return nil, apperror.ValidationFailed("lang", "languages must be codes like en, zh or zh-hans")
	}

	key := cache.TranslationKey(text, sourceLang, targetLang)

	if value, ok, err := s.memo.Get(ctx, key); err != nil {
		s.logger.Warn("translation memo read failed", slog.String("error", err.Error()))
	} else if ok {
		return &model.Translation{Text: text, SourceLang: sourceLang, TargetLang: targetLang, TranslatedText: value}, nil
	}

	row, err := s.store.GetTranslation(ctx, text, sourceLang, targetLang)
	if err == nil {
		s.remember(ctx, key, row.TranslatedText)
		return row, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up translation: %w", err)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(ctx, key, text, sourceLang, targetLang)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Translation), nil
}

// fetchAndStore runs once per key per in-flight miss. It uses the context of
// the request that started the flight, so an aborted request stores nothing.
func (s *TranslationService) fetchAndStore(ctx context.Context, key, text, sourceLang, targetLang string) (*model.Translation, error) {
	res, err := s.provider.Translate(ctx, translator.Request{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		s.logger.Warn("translation provider failed",
			slog.String("source", sourceLang),
			slog.String("target", targetLang),
			slog.String("error", err.Error()),
		)
		return nil, apperror.TranslationUnavailable(err)
	}
	if strings.TrimSpace(res.TranslatedText) == "" {
		return nil, apperror.TranslationUnavailable(translator.ErrEmpty)
	}

	row, err := s.store.CreateTranslation(ctx, &model.Translation{
		Text:           text,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		TranslatedText: strings.TrimSpace(res.TranslatedText),
	})
	if err != nil {
		s.logger.Error("failed to store translation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("storing translation: %w", err)
	}

	s.logger.Info("translation cached",
		slog.Int64("id", row.ID),
		slog.String("source", sourceLang),
		slog.String("target", targetLang),
		slog.Duration("provider_duration", res.Duration),
	)
	s.remember(ctx, key, row.TranslatedText)
	return row, nil
}

func (s *TranslationService) remember(ctx context.Context, key, value string) {
	if err := s.memo.Set(ctx, key, value, s.memoTTL); err != nil {
		s.logger.Warn("translation memo write failed", slog.String("error", err.Error()))
	}
}

// BatchResult is the outcome of translating several words at once. Words
// whose provider call failed are listed in Unavailable so the caller can
// retry just those.
type BatchResult struct {
	Translations map[string]string `json:"translations"`
	Unavailable  []string          `json:"unavailable"`
}

// Batch translates each distinct non-blank word. A transient failure on one
// word does not fail the batch; storage errors do.
func (s *TranslationService) Batch(ctx context.Context, words []string, sourceLang, targetLang string) (*BatchResult, error) {
	if len(words) > MaxBatchWords {
		return nil, apperror.ValidationFailed("words",
			fmt.Sprintf("at most %d words per request", MaxBatchWords))
	}

	out := &BatchResult{Translations: map[string]string{}, Unavailable: []string{}}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true

		tr, err := s.GetOrCreate(ctx, w, sourceLang, targetLang)
		switch {
		case err == nil:
			out.Translations[w] = tr.TranslatedText
		case errors.Is(err, apperror.ErrTranslationUnavailable):
			out.Unavailable = append(out.Unavailable, w)
		default:
			return nil, err
		}
	}
	if len(seen) == 0 {
		return nil, apperror.ValidationFailed("words", "at least one word is required")
	}
	return out, nil
}
