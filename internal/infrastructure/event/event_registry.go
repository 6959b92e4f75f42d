package event

import (
	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/trip"
)

// RegisterAllEvents registers every domain event that goes through the outbox
func RegisterAllEvents(s *EventSerializer) {
	RegisterType[identity.UserRegisteredEvent](s, identity.EventTypeUserRegistered)
	RegisterType[identity.UserProfileUpdatedEvent](s, identity.EventTypeUserProfileUpdated)

	RegisterType[attendance.TeamMembershipChangedEvent](s, attendance.EventTypeTeamMembershipChanged)

	RegisterType[trip.TripSavedEvent](s, trip.EventTypeTripSaved)
	RegisterType[trip.TripDeletedEvent](s, trip.EventTypeTripDeleted)

	RegisterType[payment.PaymentStatusChangedEvent](s, payment.EventTypePaymentStatusChanged)

	RegisterType[competition.AnswerScoredEvent](s, competition.EventTypeAnswerScored)
}
