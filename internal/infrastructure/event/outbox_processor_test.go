package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// mockOutboxRepository keeps entries in memory and follows the due rules
// of the GORM repository
type mockOutboxRepository struct {
	mu       sync.Mutex
	entries  map[uuid.UUID]*shared.OutboxEntry
	saveErr  error
	findErr  error
	claimErr error
	deleted  []time.Time
}

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *mockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *mockOutboxRepository) get(id uuid.UUID) shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.entries[id]
}

func isDue(e *shared.OutboxEntry, now, staleBefore time.Time) bool {
	switch e.Status {
	case shared.OutboxStatusPending:
		return true
	case shared.OutboxStatusFailed:
		return e.NextRetryAt != nil && !e.NextRetryAt.After(now)
	case shared.OutboxStatusProcessing:
		return e.UpdatedAt.Before(staleBefore)
	}
	return false
}

func (r *mockOutboxRepository) FindDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]*shared.OutboxEntry, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*shared.OutboxEntry
	for _, e := range r.entries {
		if isDue(e, now, staleBefore) {
			c := *e
			due = append(due, &c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *mockOutboxRepository) Claim(ctx context.Context, ids []uuid.UUID, staleBefore time.Time) ([]*shared.OutboxEntry, error) {
	if r.claimErr != nil {
		return nil, r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok || !isDue(e, now, staleBefore) {
			continue
		}
		e.Status = shared.OutboxStatusProcessing
		e.UpdatedAt = now
		c := *e
		claimed = append(claimed, &c)
	}
	return claimed, nil
}

func (r *mockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *entry
	r.entries[entry.ID] = &c
	return nil
}

func (r *mockOutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, before)
	var n int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *mockOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type processorFixture struct {
	repo       *mockOutboxRepository
	bus        *InMemoryEventBus
	serializer *EventSerializer
	processor  *OutboxProcessor
	handler    *testHandler
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	serializer := NewEventSerializer()
	RegisterType[testEvent](serializer, trip.EventTypeTripSaved)

	f := &processorFixture{
		repo:       newMockOutboxRepository(),
		bus:        NewInMemoryEventBus(zap.NewNop()),
		serializer: serializer,
		handler:    newTestHandler(trip.EventTypeTripSaved),
	}
	f.bus.Subscribe(f.handler)
	f.processor = NewOutboxProcessor(f.repo, f.bus, serializer, OutboxProcessorConfig{
		BatchSize:    10,
		PollInterval: 20 * time.Millisecond,
	}, zap.NewNop())
	return f
}

func (f *processorFixture) save(t *testing.T, campaignID uuid.UUID) *shared.OutboxEntry {
	t.Helper()
	ev := newTestEvent(trip.EventTypeTripSaved, campaignID)
	payload, err := f.serializer.Serialize(ev)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(ev, payload)
	require.NoError(t, f.repo.Save(context.Background(), entry))
	return entry
}

func TestOutboxProcessor_DeliversPendingEntries(t *testing.T) {
	f := newProcessorFixture(t)
	campaignID := uuid.New()
	first := f.save(t, campaignID)
	second := f.save(t, campaignID)

	assert.Equal(t, 2, f.processor.ProcessOnce(context.Background()))
	assert.Equal(t, 0, f.processor.ProcessOnce(context.Background()))

	require.Len(t, f.handler.getHandled(), 2)
	assert.Equal(t, campaignID, f.handler.getHandled()[0].CampaignID())
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		stored := f.repo.get(id)
		assert.Equal(t, shared.OutboxStatusSent, stored.Status)
		assert.NotNil(t, stored.ProcessedAt)
	}
}

func TestOutboxProcessor_FailureIsRetriedWhenDue(t *testing.T) {
	f := newProcessorFixture(t)
	f.handler.setError(errors.New("results store unavailable"))
	entry := f.save(t, uuid.New())

	assert.Equal(t, 0, f.processor.ProcessOnce(context.Background()))
	stored := f.repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "results store unavailable")
	require.NotNil(t, stored.NextRetryAt)

	// not due yet
	assert.Equal(t, 0, f.processor.ProcessOnce(context.Background()))
	assert.Len(t, f.handler.getHandled(), 1)

	past := time.Now().Add(-time.Second)
	stored.NextRetryAt = &past
	require.NoError(t, f.repo.Update(context.Background(), &stored))
	f.handler.setError(nil)

	assert.Equal(t, 1, f.processor.ProcessOnce(context.Background()))
	assert.Equal(t, shared.OutboxStatusSent, f.repo.get(entry.ID).Status)
}

func TestOutboxProcessor_UnknownTypeEndsDead(t *testing.T) {
	f := newProcessorFixture(t)
	ev := newTestEvent("CouponRedeemed", uuid.New())
	entry := shared.NewOutboxEntry(ev, []byte(`{}`))
	entry.MaxRetries = 1
	require.NoError(t, f.repo.Save(context.Background(), entry))

	f.processor.ProcessOnce(context.Background())

	stored := f.repo.get(entry.ID)
	assert.True(t, stored.IsDead())
	assert.Contains(t, stored.LastError, "unknown event type")
}

func TestOutboxProcessor_ReclaimsStaleProcessingEntries(t *testing.T) {
	f := newProcessorFixture(t)
	stale := f.save(t, uuid.New())
	stale.Status = shared.OutboxStatusProcessing
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	busy := f.save(t, uuid.New())
	busy.Status = shared.OutboxStatusProcessing
	busy.UpdatedAt = time.Now()

	assert.Equal(t, 1, f.processor.ProcessOnce(context.Background()))
	assert.Equal(t, shared.OutboxStatusSent, f.repo.get(stale.ID).Status)
	assert.Equal(t, shared.OutboxStatusProcessing, f.repo.get(busy.ID).Status)
}

func TestOutboxProcessor_RepositoryErrors(t *testing.T) {
	t.Run("find", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.save(t, uuid.New())
		f.repo.findErr = errors.New("connection refused")
		assert.Equal(t, 0, f.processor.ProcessOnce(context.Background()))
	})

	t.Run("claim", func(t *testing.T) {
		f := newProcessorFixture(t)
		entry := f.save(t, uuid.New())
		f.repo.claimErr = errors.New("lock timeout")

		assert.Equal(t, 0, f.processor.ProcessOnce(context.Background()))
		assert.Empty(t, f.handler.getHandled())
		assert.Equal(t, shared.OutboxStatusPending, f.repo.get(entry.ID).Status)
	})
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	f := newProcessorFixture(t)
	old := f.save(t, uuid.New())
	old.Delivered(time.Now().Add(-30 * 24 * time.Hour))
	recent := f.save(t, uuid.New())
	recent.Delivered(time.Now())

	require.NoError(t, f.processor.Cleanup(context.Background(), nil))

	counts, err := f.repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	require.Len(t, f.repo.deleted, 1)
	assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), f.repo.deleted[0], time.Minute)
}

func TestOutboxProcessor_BacklogMetrics(t *testing.T) {
	f := newProcessorFixture(t)
	f.save(t, uuid.New())
	dead := f.save(t, uuid.New())
	dead.Status = shared.OutboxStatusDead

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	require.NoError(t, f.processor.RegisterBacklogMetrics(mp.Meter("test")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "outbox_entries" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Gauge[int64]).DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				got[status.AsString()] = dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"PENDING": 1, "PROCESSING": 0, "FAILED": 0, "DEAD": 1}, got)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	f := newProcessorFixture(t)
	entry := f.save(t, uuid.New())

	require.NoError(t, f.processor.Start(context.Background()))
	require.NoError(t, f.processor.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return f.repo.get(entry.ID).Status == shared.OutboxStatusSent
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(stopCtx))
	require.NoError(t, f.processor.Stop(stopCtx))
	assert.Len(t, f.handler.getHandled(), 1)
}

func TestNewOutboxProcessor_FillsDefaults(t *testing.T) {
	p := NewOutboxProcessor(newMockOutboxRepository(), nil, nil, OutboxProcessorConfig{}, zap.NewNop())
	assert.Equal(t, DefaultOutboxProcessorConfig(), p.config)
}
