package identity

import (
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered     = "UserRegistered"
	EventTypeUserProfileUpdated = "UserProfileUpdated"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email    string   `json:"email"`
	Language Language `json:"language"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID, uuid.Nil),
		Email:           user.Email,
		Language:        user.Profile.Language,
	}
}

// UserProfileUpdatedEvent is published when the profile changes. Mailing
// list data depends on it.
type UserProfileUpdatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Sex   Sex    `json:"sex"`
}

// NewUserProfileUpdatedEvent creates a new UserProfileUpdatedEvent
func NewUserProfileUpdatedEvent(user *User) *UserProfileUpdatedEvent {
	return &UserProfileUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserProfileUpdated, AggregateTypeUser, user.ID, uuid.Nil),
		Email:           user.Email,
		Sex:             user.Profile.Sex,
	}
}
