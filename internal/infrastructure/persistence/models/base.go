package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the columns every table shares
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate fills the ID of rows built without a domain constructor
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) SetEntity(e shared.BaseEntity) {
	*m = BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// AggregateModel adds the aggregate version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) Aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.Entity(), Version: m.Version}
}

func (m *AggregateModel) SetAggregate(a shared.BaseAggregateRoot) {
	m.SetEntity(a.BaseEntity)
	m.Version = a.Version
}

// CampaignAggregateModel is the base of every table scoped to one campaign
// year. The campaign index serves the per-campaign listings and exports.
type CampaignAggregateModel struct {
	AggregateModel
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *CampaignAggregateModel) CampaignAggregate() shared.CampaignAggregateRoot {
	return shared.CampaignAggregateRoot{BaseAggregateRoot: m.Aggregate(), CampaignID: m.CampaignID}
}

func (m *CampaignAggregateModel) SetCampaignAggregate(c shared.CampaignAggregateRoot) {
	m.SetAggregate(c.BaseAggregateRoot)
	m.CampaignID = c.CampaignID
}
