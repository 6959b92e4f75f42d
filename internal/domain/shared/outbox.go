package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries = 5
	// First retry waits RetryBaseDelay, each later one twice as long up to
	// RetryMaxDelay
	RetryBaseDelay = time.Second
	RetryMaxDelay  = 10 * time.Minute
)

// OutboxEntry is a domain event stored in the same transaction as the
// aggregate change that raised it. It is delivered to the event bus later,
// at least once.
type OutboxEntry struct {
	ID            uuid.UUID
	CampaignID    uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps a serialized event as a pending entry
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		CampaignID:    event.CampaignID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Delivered records that every handler accepted the event
func (e *OutboxEntry) Delivered(at time.Time) {
	e.Status = OutboxStatusSent
	e.ProcessedAt = &at
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = at
}

// Failed records a delivery failure. The entry is retried after
// RetryDelay(RetryCount) until MaxRetries attempts failed, then it is dead.
func (e *OutboxEntry) Failed(cause error, at time.Time) {
	e.RetryCount++
	e.LastError = cause.Error()
	e.UpdatedAt = at
	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := at.Add(RetryDelay(e.RetryCount))
	e.NextRetryAt = &next
}

// IsDead reports whether the entry is no longer retried
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// RetryDelay returns the wait before retry number attempt (1-based)
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 20 {
		return RetryMaxDelay
	}
	return min(RetryBaseDelay<<(attempt-1), RetryMaxDelay)
}

// OutboxRepository stores outbox entries
type OutboxRepository interface {
	// Save inserts entries, inside the transaction carried by ctx if any
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindDue returns, oldest first, pending entries, failed entries whose
	// retry time is before now and processing entries not touched since
	// staleBefore (left behind by a stopped processor)
	FindDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]*OutboxEntry, error)
	// Claim moves the given entries to processing and returns the ones it
	// got. Entries claimed by another processor are skipped.
	Claim(ctx context.Context, ids []uuid.UUID, staleBefore time.Time) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteSentBefore removes entries delivered before the given time
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
