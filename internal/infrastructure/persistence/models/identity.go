package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UserModel is the persistence model for the User domain entity.
// The profile is flattened into the users table.
type UserModel struct {
	AggregateModel
	Email                string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash         string              `gorm:"type:varchar(255);not null"`
	FirstName            string              `gorm:"type:varchar(150)"`
	LastName             string              `gorm:"type:varchar(150)"`
	Status               identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsStaff              bool                `gorm:"not null;default:false"`
	LastLoginAt          *time.Time          `gorm:"index"`
	FailedAttempts       int                 `gorm:"not null;default:0"`
	LockedUntil          *time.Time
	Nickname             string            `gorm:"type:varchar(60)"`
	Sex                  identity.Sex      `gorm:"type:varchar(10);not null;default:'unknown'"`
	Telephone            string            `gorm:"type:varchar(30)"`
	Language             identity.Language `gorm:"type:varchar(16);not null;default:'cs'"`
	Occupation           string            `gorm:"type:varchar(60)"`
	AgeGroup             int               `gorm:"not null;default:0"`
	MailingID            string            `gorm:"type:varchar(128);index"`
	MailingHash          string            `gorm:"type:varchar(64)"`
	AdministratedCityIDs []uuid.UUID       `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.Aggregate(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Status:            m.Status,
		IsStaff:           m.IsStaff,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		Profile: identity.Profile{
			Nickname:             m.Nickname,
			Sex:                  m.Sex,
			Telephone:            m.Telephone,
			Language:             m.Language,
			Occupation:           m.Occupation,
			AgeGroup:             m.AgeGroup,
			MailingID:            m.MailingID,
			MailingHash:          m.MailingHash,
			AdministratedCityIDs: m.AdministratedCityIDs,
		},
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.SetAggregate(u.BaseAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Status = u.Status
	m.IsStaff = u.IsStaff
	m.LastLoginAt = u.LastLoginAt
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.Nickname = u.Profile.Nickname
	m.Sex = u.Profile.Sex
	m.Telephone = u.Profile.Telephone
	m.Language = u.Profile.Language
	m.Occupation = u.Profile.Occupation
	m.AgeGroup = u.Profile.AgeGroup
	m.MailingID = u.Profile.MailingID
	m.MailingHash = u.Profile.MailingHash
	m.AdministratedCityIDs = u.Profile.AdministratedCityIDs
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
