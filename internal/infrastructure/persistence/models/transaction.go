package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel stores payments, packages and common transactions in one
// table told apart by Kind. Columns not used by a kind stay empty.
type TransactionModel struct {
	CampaignAggregateModel
	Kind             payment.Kind   `gorm:"type:varchar(10);not null;index"`
	UserAttendanceID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status           payment.Status `gorm:"not null;index"`
	Realized         *time.Time
	AuthorID         *uuid.UUID `gorm:"type:uuid"`
	Description      string     `gorm:"type:text"`

	OrderID   string          `gorm:"type:varchar(50)"`
	SessionID *string         `gorm:"type:varchar(50);uniqueIndex"`
	TransID   string          `gorm:"type:varchar(50)"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PayType   payment.PayType `gorm:"type:varchar(50)"`
	Error     string          `gorm:"type:varchar(255)"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index"`

	SubsidiaryID   *uuid.UUID `gorm:"type:uuid"`
	TShirtSizeID   *uuid.UUID `gorm:"column:tshirt_size_id;type:uuid"`
	TrackingNumber *int64     `gorm:"index"`
	BatchID        *uuid.UUID `gorm:"type:uuid;index"`
	DeliveredAt    *time.Time
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToPayment converts a payment row to a domain Payment.
func (m *TransactionModel) ToPayment() *payment.Payment {
	p := &payment.Payment{
		CampaignAggregateRoot: m.CampaignAggregate(),
		UserAttendanceID:      m.UserAttendanceID,
		Status:                m.Status,
		Realized:              m.Realized,
		AuthorID:              m.AuthorID,
		Description:           m.Description,
		OrderID:               m.OrderID,
		TransID:               m.TransID,
		Amount:                m.Amount,
		PayType:               m.PayType,
		Error:                 m.Error,
		InvoiceID:             m.InvoiceID,
	}
	if m.SessionID != nil {
		p.SessionID = *m.SessionID
	}
	return p
}

// TransactionModelFromPayment creates a row from a domain Payment.
func TransactionModelFromPayment(p *payment.Payment) *TransactionModel {
	m := &TransactionModel{
		Kind:             payment.KindPayment,
		UserAttendanceID: p.UserAttendanceID,
		Status:           p.Status,
		Realized:         p.Realized,
		AuthorID:         p.AuthorID,
		Description:      p.Description,
		OrderID:          p.OrderID,
		TransID:          p.TransID,
		Amount:           p.Amount,
		PayType:          p.PayType,
		Error:            p.Error,
		InvoiceID:        p.InvoiceID,
	}
	if p.SessionID != "" {
		sessionID := p.SessionID
		m.SessionID = &sessionID
	}
	m.SetCampaignAggregate(p.CampaignAggregateRoot)
	return m
}

// ToCommon converts a common transaction row.
func (m *TransactionModel) ToCommon() *payment.CommonTransaction {
	return &payment.CommonTransaction{
		CampaignAggregateRoot: m.CampaignAggregate(),
		UserAttendanceID:      m.UserAttendanceID,
		Status:                m.Status,
		AuthorID:              m.AuthorID,
		Description:           m.Description,
		Realized:              m.Realized,
	}
}

// TransactionModelFromCommon creates a row from a common transaction.
func TransactionModelFromCommon(t *payment.CommonTransaction) *TransactionModel {
	m := &TransactionModel{
		Kind:             payment.KindCommon,
		UserAttendanceID: t.UserAttendanceID,
		Status:           t.Status,
		AuthorID:         t.AuthorID,
		Description:      t.Description,
		Realized:         t.Realized,
		Amount:           decimal.Zero,
	}
	m.SetCampaignAggregate(t.CampaignAggregateRoot)
	return m
}

// ToPackage converts a package row to a domain PackageTransaction.
func (m *TransactionModel) ToPackage() *delivery.PackageTransaction {
	p := &delivery.PackageTransaction{
		CampaignAggregateRoot: m.CampaignAggregate(),
		UserAttendanceID:      m.UserAttendanceID,
		BatchID:               m.BatchID,
		Status:                m.Status,
		AuthorID:              m.AuthorID,
		DeliveredAt:           m.DeliveredAt,
	}
	if m.SubsidiaryID != nil {
		p.SubsidiaryID = *m.SubsidiaryID
	}
	if m.TShirtSizeID != nil {
		p.TShirtSizeID = *m.TShirtSizeID
	}
	if m.TrackingNumber != nil {
		p.TrackingNumber = *m.TrackingNumber
	}
	return p
}

// TransactionModelFromPackage creates a row from a domain PackageTransaction.
func TransactionModelFromPackage(p *delivery.PackageTransaction) *TransactionModel {
	subsidiaryID, sizeID, tracking := p.SubsidiaryID, p.TShirtSizeID, p.TrackingNumber
	m := &TransactionModel{
		Kind:             payment.KindPackage,
		UserAttendanceID: p.UserAttendanceID,
		Status:           p.Status,
		AuthorID:         p.AuthorID,
		Amount:           decimal.Zero,
		SubsidiaryID:     &subsidiaryID,
		TShirtSizeID:     &sizeID,
		TrackingNumber:   &tracking,
		BatchID:          p.BatchID,
		DeliveredAt:      p.DeliveredAt,
	}
	m.SetCampaignAggregate(p.CampaignAggregateRoot)
	return m
}

