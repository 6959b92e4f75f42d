package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/google/uuid"
)

// DeliveryBatchModel is the persistence model for delivery batches
type DeliveryBatchModel struct {
	CampaignAggregateModel
	AuthorID          uuid.UUID `gorm:"type:uuid;not null"`
	PackageCount      int       `gorm:"not null;default:0"`
	BoxCount          int       `gorm:"not null;default:0"`
	CustomerSheetsKey string    `gorm:"type:varchar(255)"`
	OrderFileKey      string    `gorm:"type:varchar(255)"`
	Dispatched        bool      `gorm:"not null;default:false"`
	DispatchedAt      *time.Time
}

// TableName returns the table name for GORM
func (DeliveryBatchModel) TableName() string {
	return "delivery_batches"
}

// ToDomain converts the persistence model to a domain Batch.
func (m *DeliveryBatchModel) ToDomain() *delivery.Batch {
	return &delivery.Batch{
		CampaignAggregateRoot: m.CampaignAggregate(),
		AuthorID:              m.AuthorID,
		PackageCount:          m.PackageCount,
		BoxCount:              m.BoxCount,
		CustomerSheetsKey:     m.CustomerSheetsKey,
		OrderFileKey:          m.OrderFileKey,
		Dispatched:            m.Dispatched,
		DispatchedAt:          m.DispatchedAt,
	}
}

// DeliveryBatchModelFromDomain creates a new persistence model from a domain Batch.
func DeliveryBatchModelFromDomain(b *delivery.Batch) *DeliveryBatchModel {
	m := &DeliveryBatchModel{
		AuthorID:          b.AuthorID,
		PackageCount:      b.PackageCount,
		BoxCount:          b.BoxCount,
		CustomerSheetsKey: b.CustomerSheetsKey,
		OrderFileKey:      b.OrderFileKey,
		Dispatched:        b.Dispatched,
		DispatchedAt:      b.DispatchedAt,
	}
	m.SetCampaignAggregate(b.CampaignAggregateRoot)
	return m
}
