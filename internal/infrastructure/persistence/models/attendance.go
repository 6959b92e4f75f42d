package models

import (
	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserAttendanceModel is the persistence model for the UserAttendance aggregate.
type UserAttendanceModel struct {
	CampaignAggregateModel
	UserID                  uuid.UUID                  `gorm:"type:uuid;not null;index"`
	TeamID                  *uuid.UUID                 `gorm:"type:uuid;index"`
	ApprovedForTeam         organization.ApprovalState `gorm:"type:varchar(16);not null;default:'undecided'"`
	TShirtSizeID            *uuid.UUID                 `gorm:"column:tshirt_size_id;type:uuid"`
	PersonalDataOptIn       bool                       `gorm:"not null;default:false"`
	DiscountCouponID        *uuid.UUID                 `gorm:"type:uuid;index"`
	DiscountCouponUsed      bool                       `gorm:"not null;default:false"`
	PaymentStatus           attendance.PaymentState    `gorm:"type:varchar(20);not null;default:'none';index"`
	RepresentativePaymentID *uuid.UUID                 `gorm:"type:uuid"`
	TripLengthTotal         decimal.Decimal            `gorm:"type:decimal(12,2);not null;default:0"`
	Frequency               decimal.Decimal            `gorm:"type:decimal(10,6);not null;default:0"`
	GetRidesCount           int                        `gorm:"not null;default:0"`
	WorkingRidesBase        int                        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (UserAttendanceModel) TableName() string {
	return "user_attendances"
}

// ToDomain converts the persistence model to a domain UserAttendance.
func (m *UserAttendanceModel) ToDomain() *attendance.UserAttendance {
	return &attendance.UserAttendance{
		CampaignAggregateRoot:   m.CampaignAggregate(),
		UserID:                  m.UserID,
		TeamID:                  m.TeamID,
		ApprovedForTeam:         m.ApprovedForTeam,
		TShirtSizeID:            m.TShirtSizeID,
		PersonalDataOptIn:       m.PersonalDataOptIn,
		DiscountCouponID:        m.DiscountCouponID,
		DiscountCouponUsed:      m.DiscountCouponUsed,
		PaymentStatus:           m.PaymentStatus,
		RepresentativePaymentID: m.RepresentativePaymentID,
		TripLengthTotal:         m.TripLengthTotal,
		Frequency:               m.Frequency,
		GetRidesCount:           m.GetRidesCount,
		WorkingRidesBase:        m.WorkingRidesBase,
	}
}

// FromDomain populates the persistence model from a domain UserAttendance.
func (m *UserAttendanceModel) FromDomain(ua *attendance.UserAttendance) {
	m.SetCampaignAggregate(ua.CampaignAggregateRoot)
	m.UserID = ua.UserID
	m.TeamID = ua.TeamID
	m.ApprovedForTeam = ua.ApprovedForTeam
	m.TShirtSizeID = ua.TShirtSizeID
	m.PersonalDataOptIn = ua.PersonalDataOptIn
	m.DiscountCouponID = ua.DiscountCouponID
	m.DiscountCouponUsed = ua.DiscountCouponUsed
	m.PaymentStatus = ua.PaymentStatus
	m.RepresentativePaymentID = ua.RepresentativePaymentID
	m.TripLengthTotal = ua.TripLengthTotal
	m.Frequency = ua.Frequency
	m.GetRidesCount = ua.GetRidesCount
	m.WorkingRidesBase = ua.WorkingRidesBase
}

// UserAttendanceModelFromDomain creates a new persistence model from a domain UserAttendance.
func UserAttendanceModelFromDomain(ua *attendance.UserAttendance) *UserAttendanceModel {
	m := &UserAttendanceModel{}
	m.FromDomain(ua)
	return m
}
