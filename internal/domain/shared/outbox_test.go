package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry() *OutboxEntry {
	ev := NewBaseDomainEvent("TripSaved", "Trip", uuid.New(), uuid.New())
	return NewOutboxEntry(&ev, []byte(`{}`))
}

func TestNewOutboxEntry(t *testing.T) {
	ev := NewBaseDomainEvent("TeamMembershipChanged", "UserAttendance", uuid.New(), uuid.New())
	e := NewOutboxEntry(&ev, []byte(`{"team_id":null}`))

	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Equal(t, ev.EventID(), e.EventID)
	assert.Equal(t, ev.CampaignID(), e.CampaignID)
	assert.Equal(t, "UserAttendance", e.AggregateType)
	assert.Equal(t, DefaultMaxRetries, e.MaxRetries)
}

func TestOutboxEntry_FailedThenDelivered(t *testing.T) {
	e := newEntry()
	at := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)

	e.Failed(errors.New("mailing list unavailable"), at)
	assert.Equal(t, OutboxStatusFailed, e.Status)
	require.NotNil(t, e.NextRetryAt)
	assert.Equal(t, at.Add(RetryBaseDelay), *e.NextRetryAt)

	e.Failed(errors.New("mailing list unavailable"), at)
	assert.Equal(t, at.Add(2*RetryBaseDelay), *e.NextRetryAt)

	e.Delivered(at.Add(time.Minute))
	assert.Equal(t, OutboxStatusSent, e.Status)
	assert.Empty(t, e.LastError)
	assert.Nil(t, e.NextRetryAt)
	require.NotNil(t, e.ProcessedAt)
	assert.Equal(t, 2, e.RetryCount)
}

func TestOutboxEntry_DeadAfterMaxRetries(t *testing.T) {
	e := newEntry()
	e.MaxRetries = 2
	now := time.Now()

	e.Failed(errors.New("boom"), now)
	assert.False(t, e.IsDead())
	e.Failed(errors.New("boom"), now)
	assert.True(t, e.IsDead())
	assert.Nil(t, e.NextRetryAt)
	assert.Equal(t, "boom", e.LastError)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, RetryBaseDelay, RetryDelay(0))
	assert.Equal(t, RetryBaseDelay, RetryDelay(1))
	assert.Equal(t, 8*RetryBaseDelay, RetryDelay(4))
	assert.Equal(t, RetryMaxDelay, RetryDelay(12))
	assert.Equal(t, RetryMaxDelay, RetryDelay(64))
}
