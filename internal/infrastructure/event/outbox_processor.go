package event

import (
	"context"
	"sync"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// OutboxProcessorConfig tunes delivery of outbox entries
type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// Lease is how long an entry may stay in processing before another
	// processor takes it over
	Lease time.Duration
	// Retention is how long delivered entries are kept
	Retention time.Duration
}

// DefaultOutboxProcessorConfig returns the production settings
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:    100,
		PollInterval: 2 * time.Second,
		Lease:        5 * time.Minute,
		Retention:    7 * 24 * time.Hour,
	}
}

// OutboxProcessor polls the outbox and publishes due entries to the event
// bus. Each entry is delivered at least once; handlers are wrapped in
// IdempotentHandler to make that exactly once in effect.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewOutboxProcessor creates a stopped processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	defaults := DefaultOutboxProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.Lease <= 0 {
		config.Lease = defaults.Lease
	}
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox"),
	}
}

// Start launches the polling loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.config.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.ProcessOnce(ctx)
			}
		}
	}()
	return nil
}

// Stop ends the loop and waits for the batch in flight
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		p.logger.Info("Outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessOnce claims one batch of due entries, delivers them and returns
// the number delivered
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	now := time.Now()
	staleBefore := now.Add(-p.config.Lease)

	due, err := p.repo.FindDue(ctx, now, staleBefore, p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to load due outbox entries", zap.Error(err))
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	ids := make([]uuid.UUID, len(due))
	for i, e := range due {
		ids[i] = e.ID
	}
	claimed, err := p.repo.Claim(ctx, ids, staleBefore)
	if err != nil {
		p.logger.Error("Failed to claim outbox entries", zap.Int("entries", len(ids)), zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		if p.deliver(ctx, entry) {
			delivered++
		}
	}
	return delivered
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	ctx, span := telemetry.StartSpan(ctx, "outbox.deliver "+entry.EventType,
		attribute.String("event.id", entry.EventID.String()),
		attribute.String("event.type", entry.EventType),
		attribute.String("campaign.id", entry.CampaignID.String()),
		attribute.Int("outbox.retry_count", entry.RetryCount),
	)
	defer span.End()

	log := p.logger.With(
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	)

	ev, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.bus.Publish(ctx, ev)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		entry.Failed(err, time.Now())
		if entry.IsDead() {
			log.Error("Outbox entry is dead after repeated failures",
				zap.String("aggregate_type", entry.AggregateType),
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.Int("retry_count", entry.RetryCount),
				zap.Error(err))
		} else {
			log.Warn("Outbox delivery failed, will retry",
				zap.Timep("next_retry_at", entry.NextRetryAt),
				zap.Error(err))
		}
		if uerr := p.repo.Update(ctx, entry); uerr != nil {
			log.Error("Failed to store outbox failure", zap.Error(uerr))
		}
		return false
	}

	entry.Delivered(time.Now())
	if err := p.repo.Update(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to mark outbox entry as sent", zap.Error(err))
		return false
	}
	log.Debug("Outbox entry delivered")
	return true
}

// Cleanup deletes delivered entries older than the retention. It runs as
// the outbox_cleanup scheduler job; campaignID is ignored because the outbox
// is shared by all campaigns.
func (p *OutboxProcessor) Cleanup(ctx context.Context, _ *uuid.UUID) error {
	cutoff := time.Now().Add(-p.config.Retention)
	deleted, err := p.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	p.logger.Info("Outbox cleaned up", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return nil
}

// RegisterBacklogMetrics reports the number of outbox entries per status
// as the outbox_entries gauge. Dead entries need manual attention.
func (p *OutboxProcessor) RegisterBacklogMetrics(meter metric.Meter) error {
	gauge, err := meter.Int64ObservableGauge("outbox_entries",
		metric.WithDescription("Outbox entries by delivery status"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		counts, err := p.repo.CountByStatus(ctx)
		if err != nil {
			p.logger.Warn("Failed to count outbox entries", zap.Error(err))
			return nil
		}
		for _, status := range []shared.OutboxStatus{
			shared.OutboxStatusPending,
			shared.OutboxStatusProcessing,
			shared.OutboxStatusFailed,
			shared.OutboxStatusDead,
		} {
			o.ObserveInt64(gauge, counts[status], metric.WithAttributes(attribute.String("status", string(status))))
		}
		return nil
	}, gauge)
	return err
}
