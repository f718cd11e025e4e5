// Package jobs runs background work on a schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/service"
)

// DefaultBatch is used when NewBackfill gets a non-positive batch size.
const DefaultBatch = 50

// LemmaSource lists word-bank lemmas that have no cached translation yet.
type LemmaSource interface {
	ListUntranslatedLemmas(ctx context.Context, sourceLang, targetLang string, limit int) ([]string, error)
}

// BackfillStats is the outcome of one pass.
type BackfillStats struct {
	Found      int
	Translated int
	Failed     int
}

// Backfill retries the en→zh warm-up for words whose translation failed when
// they were added. Until it succeeds such words are not quiz candidates.
type Backfill struct {
	lemmas       LemmaSource
	translations service.TranslationCache
	batch        int
	logger       *slog.Logger

	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	// running is held for the duration of a scheduled pass.
	running sync.Mutex
}

func NewBackfill(lemmas LemmaSource, translations service.TranslationCache, batch int, logger *slog.Logger) *Backfill {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Backfill{
		lemmas:       lemmas,
		translations: translations,
		batch:        batch,
		logger:       logger,
	}
}

// Start runs a pass now and then every interval. Passes never overlap: a
// tick that fires while the previous pass is still running is skipped.
func (b *Backfill) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("jobs: backfill interval must be positive, got %s", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).Do(func() {
		b.running.Lock()
		defer b.running.Unlock()
		if ctx.Err() != nil {
			return
		}
		if _, err := b.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Error("translation backfill failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("jobs: scheduling backfill: %w", err)
	}

	b.scheduler = s
	b.cancel = cancel
	s.StartAsync()

	b.logger.Info("translation backfill scheduled",
		slog.Duration("interval", interval),
		slog.Int("batch", b.batch),
	)
	return nil
}

// Stop cancels a running pass, waits for it and stops the scheduler.
func (b *Backfill) Stop() {
	if b.scheduler == nil {
		return
	}
	b.cancel()
	b.scheduler.Stop()
	b.running.Lock()
	b.running.Unlock()
	b.scheduler = nil
}

// RunOnce translates up to one batch of lemmas. A word whose provider call
// fails is counted and left for the next pass; storage errors and
// cancellation end the pass early.
func (b *Backfill) RunOnce(ctx context.Context) (BackfillStats, error) {
	var stats BackfillStats

	lemmas, err := b.lemmas.ListUntranslatedLemmas(ctx,
		service.WordBankSourceLang, service.WordBankTargetLang, b.batch)
	if err != nil {
		return stats, fmt.Errorf("jobs: listing untranslated lemmas: %w", err)
	}
	stats.Found = len(lemmas)
	if stats.Found == 0 {
		return stats, nil
	}

	for _, lemma := range lemmas {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		_, err := b.translations.GetOrCreate(ctx, lemma, service.WordBankSourceLang, service.WordBankTargetLang)
		switch {
		case err == nil:
			stats.Translated++
		case errors.Is(err, apperror.ErrTranslationUnavailable):
			stats.Failed++
			b.logger.Debug("backfill: translation still unavailable",
				slog.String("word", lemma),
				slog.String("error", err.Error()),
			)
		default:
			return stats, fmt.Errorf("jobs: backfilling %q: %w", lemma, err)
		}
	}

	b.logger.Info("translation backfill pass",
		slog.Int("found", stats.Found),
		slog.Int("translated", stats.Translated),
		slog.Int("failed", stats.Failed),
	)
	return stats, nil
}
