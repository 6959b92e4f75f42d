package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds the identity and timestamps of a stored record
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns an entity with a fresh ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot carries the optimistic locking version and the domain
// events raised since the aggregate was loaded. Application services hand
// the events to the outbox in the transaction that saves the aggregate.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot returns a version 1 aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// IncrementVersion is called on every state change
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues event for publication
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents drops the queued events once they are stored
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}

// CampaignAggregateRoot is an aggregate owned by one campaign. Every query
// on such aggregates is scoped by CampaignID.
type CampaignAggregateRoot struct {
	BaseAggregateRoot
	CampaignID uuid.UUID
}

// NewCampaignAggregateRoot returns a version 1 aggregate of campaignID
func NewCampaignAggregateRoot(campaignID uuid.UUID) CampaignAggregateRoot {
	return CampaignAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), CampaignID: campaignID}
}
