package results

import (
	"context"
	"errors"
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultsRecorder receives the number of recalculated competitions per
// competition type
type ResultsRecorder interface {
	RecordResultsRecalculated(ctx context.Context, competitionType string, count int)
}

// FlushConfig controls how much of the dirty queue one run consumes
type FlushConfig struct {
	BatchSize  int
	MaxBatches int
}

// DefaultFlushConfig returns the default flush configuration
func DefaultFlushConfig() FlushConfig {
	return FlushConfig{
		BatchSize:  200,
		MaxBatches: 50,
	}
}

// FlushReport summarizes one flush run
type FlushReport struct {
	Entries      int           `json:"entries"`
	Failed       int           `json:"failed"`
	Competitions int           `json:"competitions"`
	Duration     time.Duration `json:"duration"`
}

// Flusher drains the dirty queue and recomputes the queued competitors
type Flusher struct {
	queue    competition.DirtyQueue
	recalc   *Recalculator
	recorder ResultsRecorder
	config   FlushConfig
	logger   *zap.Logger
}

// NewFlusher creates a new flusher. recorder may be nil.
func NewFlusher(queue competition.DirtyQueue, recalc *Recalculator, recorder ResultsRecorder, config FlushConfig, logger *zap.Logger) *Flusher {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultFlushConfig().BatchSize
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = DefaultFlushConfig().MaxBatches
	}
	return &Flusher{
		queue:    queue,
		recalc:   recalc,
		recorder: recorder,
		config:   config,
		logger:   logger,
	}
}

// Flush runs as the results_flush job. The queue spans campaigns, so the
// campaign argument is ignored.
func (f *Flusher) Flush(ctx context.Context, _ *uuid.UUID) error {
	_, err := f.Run(ctx)
	return err
}

// Run pops batches until the queue is empty or MaxBatches is reached.
// Competitors that fail are queued again and the first error is returned.
func (f *Flusher) Run(ctx context.Context) (*FlushReport, error) {
	start := time.Now()
	report := &FlushReport{}
	t := touched{}
	var firstErr error

	for batch := 0; batch < f.config.MaxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entries, err := f.queue.Pop(ctx, f.config.BatchSize)
		if err != nil {
			return report, err
		}
		if len(entries) == 0 {
			break
		}

		// one resolver per batch so team and user lookups are shared
		res := newResolver(f.recalc.repos)
		for _, entry := range entries {
			report.Entries++
			if err := f.flushEntry(ctx, entry, res, t); err != nil {
				report.Failed++
				f.logger.Error("Failed to recalculate competitor",
					zap.String("kind", string(entry.Ref.Kind)),
					zap.String("id", entry.Ref.ID.String()),
					zap.Error(err))
				if markErr := f.queue.Mark(ctx, entry.CampaignID, entry.Ref); markErr != nil {
					f.logger.Error("Failed to requeue competitor", zap.Error(markErr))
				}
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if len(entries) < f.config.BatchSize {
			break
		}
	}

	f.recalc.invalidate(ctx, t)
	report.Competitions = len(t)
	report.Duration = time.Since(start)

	if f.recorder != nil {
		perType := make(map[competition.Type]int)
		for _, typ := range t {
			perType[typ]++
		}
		for typ, n := range perType {
			f.recorder.RecordResultsRecalculated(ctx, string(typ), n)
		}
	}

	if report.Entries > 0 {
		f.logger.Info("Results flushed",
			zap.Int("entries", report.Entries),
			zap.Int("failed", report.Failed),
			zap.Int("competitions", report.Competitions),
			zap.Duration("duration", report.Duration))
	}
	return report, firstErr
}

func (f *Flusher) flushEntry(ctx context.Context, entry competition.DirtyEntry, res *resolver, t touched) error {
	var err error
	switch entry.Ref.Kind {
	case competition.KindTeam:
		err = f.recalc.recalculateTeam(ctx, entry.Ref.ID, res, t)
	case competition.KindCompany:
		err = f.recalc.recalculateCompany(ctx, entry.CampaignID, entry.Ref.ID, res, t)
	default:
		err = f.recalc.recalculateAttendance(ctx, entry.Ref.ID, res, t)
	}
	if errors.Is(err, shared.ErrNotFound) {
		f.logger.Debug("Dirty competitor no longer exists",
			zap.String("kind", string(entry.Ref.Kind)),
			zap.String("id", entry.Ref.ID.String()))
		return nil
	}
	return err
}
