package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

const (
	DefaultQuizLimit = 10
	MaxQuizLimit     = 50
)

// QuizService builds vocabulary quizzes from a user's word bank and grades
// the answers.
type QuizService struct {
	store   repository.Store
	shuffle func(n int, swap func(i, j int))
	logger  *slog.Logger
}

func NewQuizService(store repository.Store, logger *slog.Logger) *QuizService {
	return &QuizService{
		store:   store,
		shuffle: rand.Shuffle,
		logger:  logger,
	}
}

// ClampQuizLimit maps a requested size into [1, MaxQuizLimit]. Zero means
// "not given" and becomes DefaultQuizLimit.
func ClampQuizLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultQuizLimit
	case limit < 1:
		return 1
	case limit > MaxQuizLimit:
		return MaxQuizLimit
	}
	return limit
}

// Generate returns up to limit questions in random order.
//
// Only held words with a cached en→zh translation are candidates; words
// still waiting for a translation are skipped silently. No candidates at all
// is ErrNoCandidates. The lemma never leaves this function; a question
// carries the translation as prompt and the lemma's first letter as hint.
func (s *QuizService) Generate(ctx context.Context, userID int64, limit int) ([]model.Question, error) {
	limit = ClampQuizLimit(limit)

	candidates, err := s.store.ListQuizCandidates(ctx, userID, WordBankSourceLang, WordBankTargetLang)
	if err != nil {
		s.logger.Error("failed to list quiz candidates", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing quiz candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, apperror.NoCandidates()
	}

	// Shuffle then truncate: a uniform sample without replacement.
	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	questions := make([]model.Question, 0, len(candidates))
	for _, c := range candidates {
		questions = append(questions, model.Question{
			ID:   c.WordID,
			Zh:   c.Translation,
			Hint: firstLetter(c.Lemma),
		})
	}
	return questions, nil
}

func firstLetter(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// Grade scores a submission and records exposure.
//
// Entries whose id is missing, non-integer, unknown or not in the user's
// bank are skipped and do not count toward the total. Every scored entry
// bumps that word's seen counter, right or wrong, blank answers included (a
// blank is always wrong). If at least one entry was scored the user's
// quizzes_done goes up by one. All writes share one transaction.
//
// Counters are bumped in ascending word id order, whatever order the answers
// came in, so concurrent submissions lock rows in the same order.
func (s *QuizService) Grade(ctx context.Context, userID int64, answers []model.QuizAnswer) (*model.GradeReport, error) {
	if len(answers) == 0 {
		return nil, apperror.ValidationFailed("answers", "answers must be a non-empty list")
	}

	report := &model.GradeReport{Details: []model.GradeDetail{}}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var scored []int64
		for _, a := range answers {
			if a.ID == nil {
				continue
			}
			word, err := s.heldWord(ctx, tx, userID, *a.ID)
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			given := strings.TrimSpace(a.Answer)
			correct := given != "" && strings.ToLower(given) == word.Lemma

			scored = append(scored, word.ID)
			report.Total++
			if correct {
				report.Correct++
			}
			report.Details = append(report.Details, model.GradeDetail{
				ID:       word.ID,
				Correct:  correct,
				Expected: word.Lemma,
				Given:    given,
			})
		}

		slices.Sort(scored)
		for _, wordID := range scored {
			if err := tx.IncrementSeen(ctx, userID, wordID); err != nil {
				return err
			}
		}

		if report.Total > 0 {
			return tx.IncrementQuizzesDone(ctx, userID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to grade quiz", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("grading quiz: %w", err)
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}

	s.logger.Info("quiz graded",
		slog.Int64("userID", userID),
		slog.Int("total", report.Total),
		slog.Int("correct", report.Correct),
	)
	return report, nil
}

// heldWord resolves id to a word in the user's bank. Unknown words and words
// the user does not hold are both apperror.ErrNotFound.
func (s *QuizService) heldWord(ctx context.Context, tx repository.Store, userID, wordID int64) (*model.Word, error) {
	if _, err := tx.GetUserWord(ctx, userID, wordID); err != nil {
		return nil, err
	}
	return tx.GetWordByID(ctx, wordID)
}
