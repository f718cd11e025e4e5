package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

// The word bank and the quiz always work en→zh.
const (
	WordBankSourceLang = "en"
	WordBankTargetLang = "zh"
	MaxLemmaLength     = 64
)

// TranslationCache is the part of TranslationService the word bank and the
// backfill job need.
type TranslationCache interface {
	GetOrCreate(ctx context.Context, text, sourceLang, targetLang string) (*model.Translation, error)
}

// WordBankService manages a user's saved vocabulary.
type WordBankService struct {
	store        repository.Store
	translations TranslationCache
	logger       *slog.Logger
}

func NewWordBankService(store repository.Store, translations TranslationCache, logger *slog.Logger) *WordBankService {
	return &WordBankService{
		store:        store,
		translations: translations,
		logger:       logger,
	}
}

// NormalizeLemma trims and lowercases raw input into the canonical lemma.
func NormalizeLemma(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// AddWord saves a word to the user's bank.
//
// The word row and the user edge are written in one transaction; if the
// user already holds the word nothing changes and ErrDuplicateWord is
// returned. After commit the translation cache is warmed for the lemma.
// A warm failure is logged and the entry comes back with a nil Translation.
func (s *WordBankService) AddWord(ctx context.Context, userID int64, raw string) (*model.WordBankEntry, error) {
	lemma := NormalizeLemma(raw)
	if lemma == "" {
		return nil, apperror.ValidationFailed("word", "word is required")
	}
	if utf8.RuneCountInString(lemma) > MaxLemmaLength {
		return nil, apperror.ValidationFailed("word",
			fmt.Sprintf("word must be %d characters or less", MaxLemmaLength))
	}

	var word *model.Word
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		w, err := tx.GetOrCreateWord(ctx, lemma)
		if err != nil {
			return err
		}
		added, err := tx.AddUserWord(ctx, userID, w.ID)
		if err != nil {
			return err
		}
		if !added {
			return apperror.DuplicateWord(lemma)
		}
		word = w
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrDuplicateWord) {
			s.logger.Error("failed to add word",
				slog.Int64("userID", userID),
				slog.String("word", lemma),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	entry := &model.WordBankEntry{ID: word.ID, Lemma: word.Lemma, Seen: 0}

	tr, err := s.translations.GetOrCreate(ctx, lemma, WordBankSourceLang, WordBankTargetLang)
	if err != nil {
		s.logger.Warn("translation warm-up failed; word saved without translation",
			slog.String("word", lemma),
			slog.String("error", err.Error()),
		)
	} else {
		entry.Translation = &tr.TranslatedText
	}

	s.logger.Info("word added",
		slog.Int64("userID", userID),
		slog.Int64("wordID", word.ID),
		slog.String("word", lemma),
	)
	return entry, nil
}

// RemoveWord drops one word from the bank. Unknown and not-held words both
// return ErrNotFound.
func (s *WordBankService) RemoveWord(ctx context.Context, userID, wordID int64) error {
	if wordID <= 0 {
		return apperror.NotFound("word", strconv.FormatInt(wordID, 10))
	}
	if err := s.store.RemoveUserWord(ctx, userID, wordID); err != nil {
		return err
	}
	s.logger.Info("word removed", slog.Int64("userID", userID), slog.Int64("wordID", wordID))
	return nil
}

// Clear empties the bank. An already-empty bank is ErrEmptyBank and no
// DELETE is issued.
func (s *WordBankService) Clear(ctx context.Context, userID int64) error {
	var removed int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		n, err := tx.CountUserWords(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.EmptyBank()
		}
		removed, err = tx.ClearUserWords(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("word bank cleared", slog.Int64("userID", userID), slog.Int64("removed", removed))
	return nil
}

// List returns the bank ordered by lemma, each with its cached translation
// or nil.
func (s *WordBankService) List(ctx context.Context, userID int64) ([]model.WordBankEntry, error) {
	entries, err := s.store.ListUserWords(ctx, userID, WordBankSourceLang, WordBankTargetLang)
	if err != nil {
		s.logger.Error("failed to list words", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing words: %w", err)
	}
	return entries, nil
}
