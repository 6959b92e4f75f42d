package event

import (
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeEvent = "ProbeRecorded"

type probeRecorded struct {
	shared.BaseDomainEvent
	Note  string `json:"note"`
	Count int    `json:"count"`
}

func probe(note string, count int) *probeRecorded {
	return &probeRecorded{
		BaseDomainEvent: shared.NewBaseDomainEvent(probeEvent, "Trip", uuid.New(), uuid.New()),
		Note:            note,
		Count:           count,
	}
}

func probeSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterType[probeRecorded](s, probeEvent)
	return s
}

func TestEventSerializer_KnownTypes(t *testing.T) {
	s := NewEventSerializer()
	assert.Empty(t, s.RegisteredTypes())

	RegisterType[probeRecorded](s, "Zeta")
	RegisterType[probeRecorded](s, "Alpha")
	RegisterType[probeRecorded](s, "Alpha")

	assert.Equal(t, []string{"Alpha", "Zeta"}, s.RegisteredTypes())
	assert.True(t, s.IsRegistered("Zeta"))
	assert.False(t, s.IsRegistered(probeEvent))
}

func TestRegisterAllEvents_CoversPublishedEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	assert.Subset(t, s.RegisteredTypes(), []string{
		"AnswerScored",
		"PaymentStatusChanged",
		"TeamMembershipChanged",
		"TripDeleted",
		"TripSaved",
		"UserProfileUpdated",
		"UserRegistered",
	})
}

func TestEventSerializer_Serialize_RequiresRegistration(t *testing.T) {
	_, err := NewEventSerializer().Serialize(probe("x", 1))
	require.ErrorIs(t, err, ErrUnregisteredEvent)
	assert.Contains(t, err.Error(), probeEvent)
}

func TestEventSerializer_Envelope(t *testing.T) {
	data, err := probeSerializer().Serialize(probe("ride to work", 42))
	require.NoError(t, err)

	payload := string(data)
	for _, fragment := range []string{
		`"note":"ride to work"`,
		`"count":42`,
		`"event_type":"ProbeRecorded"`,
		`"aggregate":{"type":"Trip"`,
		`"campaign_id":`,
		`"occurred_at":`,
	} {
		assert.Contains(t, payload, fragment)
	}
}

func TestEventSerializer_Deserialize_Rejects(t *testing.T) {
	s := probeSerializer()
	RegisterType[probeRecorded](s, "Renamed")
	valid, err := s.Serialize(probe("x", 1))
	require.NoError(t, err)

	tests := []struct {
		name      string
		eventType string
		data      []byte
		is        error
		contains  string
	}{
		{name: "unknown type", eventType: "Nope", data: []byte(`{}`), is: ErrUnregisteredEvent},
		{name: "broken json", eventType: probeEvent, data: []byte(`{"note":`), contains: "decode ProbeRecorded"},
		{name: "type mismatch", eventType: "Renamed", data: valid, contains: `payload is a "ProbeRecorded" event`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Deserialize(tt.eventType, tt.data)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestEventSerializer_Deserialize_RestoresEnvelope(t *testing.T) {
	s := probeSerializer()
	original := &probeRecorded{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:        uuid.New(),
			Type:      probeEvent,
			At:        time.Date(2026, 5, 12, 7, 30, 0, 0, time.UTC),
			Aggregate: shared.AggregateRef{Type: "Trip", ID: uuid.New()},
			Campaign:  uuid.New(),
		},
		Note:  "evening",
		Count: 7,
	}

	data, err := s.Serialize(original)
	require.NoError(t, err)
	decoded, err := s.Deserialize(probeEvent, data)
	require.NoError(t, err)

	restored, ok := decoded.(*probeRecorded)
	require.True(t, ok, "decoded as %T", decoded)
	assert.Equal(t, original.BaseDomainEvent.ID, restored.EventID())
	assert.Equal(t, original.Aggregate, restored.Aggregate)
	assert.Equal(t, original.Campaign, restored.CampaignID())
	assert.True(t, original.At.Equal(restored.OccurredAt()))
	assert.Equal(t, "evening", restored.Note)
	assert.Equal(t, 7, restored.Count)
}

func TestEventSerializer_TripSaved(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	campaignID := uuid.New()
	tr, err := trip.NewTrip(campaignID, uuid.New(), time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), trip.DirectionTo, trip.Details{
		CommuteMode: trip.ModeBicycle,
		Distance:    decimal.NewFromFloat(12.5),
	})
	require.NoError(t, err)
	events := tr.GetDomainEvents()
	require.NotEmpty(t, events)
	saved := events[0]

	data, err := s.Serialize(saved)
	require.NoError(t, err)
	restored, err := s.Deserialize(saved.EventType(), data)
	require.NoError(t, err)

	assert.Equal(t, saved.EventID(), restored.EventID())
	assert.Equal(t, saved.AggregateID(), restored.AggregateID())
	assert.Equal(t, campaignID, restored.CampaignID())
}
