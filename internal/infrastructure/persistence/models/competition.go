package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompetitionModel is the persistence model for the Competition aggregate.
type CompetitionModel struct {
	CampaignAggregateModel
	Name                    string                     `gorm:"type:varchar(160);not null"`
	Slug                    string                     `gorm:"type:varchar(50);not null;index"`
	Type                    competition.Type           `gorm:"type:varchar(16);not null"`
	CompetitorType          competition.CompetitorType `gorm:"type:varchar(24);not null"`
	DateFrom                *time.Time                 `gorm:"type:date"`
	DateTo                  *time.Time                 `gorm:"type:date"`
	EntryAfterBeginningDays int                        `gorm:"not null;default:5"`
	IsPublic                bool                       `gorm:"not null;default:true"`
	PublicAnswers           bool                       `gorm:"not null;default:false"`
	ShowResults             bool                       `gorm:"not null;default:true"`
	SexFilter               identity.Sex               `gorm:"type:varchar(10)"`
	CityID                  *uuid.UUID                 `gorm:"type:uuid;index"`
	CompanyID               *uuid.UUID                 `gorm:"type:uuid;index"`
	CommuteModes            []trip.CommuteMode         `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CompetitionModel) TableName() string {
	return "competitions"
}

// ToDomain converts the persistence model to a domain Competition.
func (m *CompetitionModel) ToDomain() *competition.Competition {
	return &competition.Competition{
		CampaignAggregateRoot:   m.CampaignAggregate(),
		Name:                    m.Name,
		Slug:                    m.Slug,
		Type:                    m.Type,
		CompetitorType:          m.CompetitorType,
		DateFrom:                utcDay(m.DateFrom),
		DateTo:                  utcDay(m.DateTo),
		EntryAfterBeginningDays: m.EntryAfterBeginningDays,
		IsPublic:                m.IsPublic,
		PublicAnswers:           m.PublicAnswers,
		ShowResults:             m.ShowResults,
		SexFilter:               m.SexFilter,
		CityID:                  m.CityID,
		CompanyID:               m.CompanyID,
		CommuteModes:            m.CommuteModes,
	}
}

// CompetitionModelFromDomain creates a new persistence model from a domain Competition.
func CompetitionModelFromDomain(c *competition.Competition) *CompetitionModel {
	m := &CompetitionModel{
		Name:                    c.Name,
		Slug:                    c.Slug,
		Type:                    c.Type,
		CompetitorType:          c.CompetitorType,
		DateFrom:                c.DateFrom,
		DateTo:                  c.DateTo,
		EntryAfterBeginningDays: c.EntryAfterBeginningDays,
		IsPublic:                c.IsPublic,
		PublicAnswers:           c.PublicAnswers,
		ShowResults:             c.ShowResults,
		SexFilter:               c.SexFilter,
		CityID:                  c.CityID,
		CompanyID:               c.CompanyID,
		CommuteModes:            c.CommuteModes,
	}
	m.SetCampaignAggregate(c.CampaignAggregateRoot)
	return m
}

// CompetitionResultModel holds the score of one competitor. Exactly one of
// the competitor columns is set.
type CompetitionResultModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CampaignID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompetitionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserAttendanceID *uuid.UUID      `gorm:"type:uuid;index"`
	TeamID           *uuid.UUID      `gorm:"type:uuid;index"`
	CompanyID        *uuid.UUID      `gorm:"type:uuid;index"`
	ResultDivident   decimal.Decimal `gorm:"type:decimal(16,6);not null;default:0"`
	ResultDivisor    decimal.Decimal `gorm:"type:decimal(16,6);not null;default:0"`
	Result           decimal.Decimal `gorm:"type:decimal(16,6);not null;default:0;index"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompetitionResultModel) TableName() string {
	return "competition_results"
}

// ToDomain converts the row to a domain Result
func (m *CompetitionResultModel) ToDomain() *competition.Result {
	return &competition.Result{
		ID:               m.ID,
		CampaignID:       m.CampaignID,
		CompetitionID:    m.CompetitionID,
		UserAttendanceID: m.UserAttendanceID,
		TeamID:           m.TeamID,
		CompanyID:        m.CompanyID,
		ResultDivident:   m.ResultDivident,
		ResultDivisor:    m.ResultDivisor,
		Result:           m.Result,
		UpdatedAt:        m.UpdatedAt,
	}
}

// CompetitionResultModelFromDomain creates a row from a domain Result
func CompetitionResultModelFromDomain(r *competition.Result) *CompetitionResultModel {
	return &CompetitionResultModel{
		ID:               r.ID,
		CampaignID:       r.CampaignID,
		CompetitionID:    r.CompetitionID,
		UserAttendanceID: r.UserAttendanceID,
		TeamID:           r.TeamID,
		CompanyID:        r.CompanyID,
		ResultDivident:   r.ResultDivident,
		ResultDivisor:    r.ResultDivisor,
		Result:           r.Result,
		UpdatedAt:        r.UpdatedAt,
	}
}

// QuestionModel is the persistence model for questionnaire questions
type QuestionModel struct {
	BaseModel
	CompetitionID uuid.UUID                `gorm:"type:uuid;not null;index"`
	SortOrder     int                      `gorm:"column:sort_order;not null;default:0"`
	Text          string                   `gorm:"type:text;not null"`
	Type          competition.QuestionType `gorm:"type:varchar(16);not null"`
	WithComment   bool                     `gorm:"not null;default:false"`
	Required      bool                     `gorm:"not null;default:true"`
	Choices       []competition.Choice     `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (QuestionModel) TableName() string {
	return "questions"
}

// ToDomain converts the persistence model to a domain Question.
func (m *QuestionModel) ToDomain() *competition.Question {
	return &competition.Question{
		BaseEntity:    m.BaseModel.Entity(),
		CompetitionID: m.CompetitionID,
		Order:         m.SortOrder,
		Text:          m.Text,
		Type:          m.Type,
		WithComment:   m.WithComment,
		Required:      m.Required,
		Choices:       m.Choices,
	}
}

// QuestionModelFromDomain creates a new persistence model from a domain Question.
func QuestionModelFromDomain(q *competition.Question) *QuestionModel {
	m := &QuestionModel{
		CompetitionID: q.CompetitionID,
		SortOrder:     q.Order,
		Text:          q.Text,
		Type:          q.Type,
		WithComment:   q.WithComment,
		Required:      q.Required,
		Choices:       q.Choices,
	}
	m.SetEntity(q.BaseEntity)
	return m
}

// AnswerModel is the persistence model for questionnaire answers
type AnswerModel struct {
	CampaignAggregateModel
	QuestionID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompetitionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserAttendanceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Comment          string          `gorm:"type:text"`
	ChoiceIDs        []uuid.UUID     `gorm:"type:jsonb;serializer:json"`
	PointsGiven      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Attachment       string          `gorm:"type:varchar(255)"`
	Points           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (AnswerModel) TableName() string {
	return "answers"
}

// ToDomain converts the persistence model to a domain Answer.
func (m *AnswerModel) ToDomain() *competition.Answer {
	return &competition.Answer{
		CampaignAggregateRoot: m.CampaignAggregate(),
		QuestionID:            m.QuestionID,
		CompetitionID:         m.CompetitionID,
		UserAttendanceID:      m.UserAttendanceID,
		Comment:               m.Comment,
		ChoiceIDs:             m.ChoiceIDs,
		PointsGiven:           m.PointsGiven,
		Attachment:            m.Attachment,
		Points:                m.Points,
	}
}

// AnswerModelFromDomain creates a new persistence model from a domain Answer.
func AnswerModelFromDomain(a *competition.Answer) *AnswerModel {
	m := &AnswerModel{
		QuestionID:       a.QuestionID,
		CompetitionID:    a.CompetitionID,
		UserAttendanceID: a.UserAttendanceID,
		Comment:          a.Comment,
		ChoiceIDs:        a.ChoiceIDs,
		PointsGiven:      a.PointsGiven,
		Attachment:       a.Attachment,
		Points:           a.Points,
	}
	m.SetCampaignAggregate(a.CampaignAggregateRoot)
	return m
}

// ResultsDirtyModel marks a competitor whose results need a recomputation
type ResultsDirtyModel struct {
	Kind         competition.CompetitorKind `gorm:"type:varchar(20);primaryKey"`
	CompetitorID uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	CampaignID   uuid.UUID                  `gorm:"type:uuid;not null;index"`
	MarkedAt     time.Time                  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ResultsDirtyModel) TableName() string {
	return "results_dirty"
}

// ToDomain converts the row to a queue entry
func (m *ResultsDirtyModel) ToDomain() competition.DirtyEntry {
	return competition.DirtyEntry{
		CampaignID: m.CampaignID,
		Ref:        competition.CompetitorRef{Kind: m.Kind, ID: m.CompetitorID},
		MarkedAt:   m.MarkedAt,
	}
}
