package results

import (
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCompetitionInput represents a request to create a competition
type CreateCompetitionInput struct {
	Name                    string                     `json:"name" binding:"required,min=1,max=160"`
	Slug                    string                     `json:"slug" binding:"required,min=1,max=64"`
	Type                    competition.Type           `json:"type" binding:"required"`
	CompetitorType          competition.CompetitorType `json:"competitor_type" binding:"required"`
	DateFrom                *time.Time                 `json:"date_from"`
	DateTo                  *time.Time                 `json:"date_to"`
	EntryAfterBeginningDays *int                       `json:"entry_after_beginning_days" binding:"omitempty,min=0"`
	IsPublic                *bool                      `json:"is_public"`
	PublicAnswers           bool                       `json:"public_answers"`
	SexFilter               identity.Sex               `json:"sex"`
	CityID                  *uuid.UUID                 `json:"city_id"`
	CompanyID               *uuid.UUID                 `json:"company_id"`
	CommuteModes            []trip.CommuteMode         `json:"commute_modes"`
}

// CompetitionResponse represents a competition in API responses
type CompetitionResponse struct {
	ID             uuid.UUID                  `json:"id"`
	Name           string                     `json:"name"`
	Slug           string                     `json:"slug"`
	Type           competition.Type           `json:"type"`
	CompetitorType competition.CompetitorType `json:"competitor_type"`
	DateFrom       *string                    `json:"date_from,omitempty"`
	DateTo         *string                    `json:"date_to,omitempty"`
	IsPublic       bool                       `json:"is_public"`
	ShowResults    bool                       `json:"show_results"`
	SexFilter      identity.Sex               `json:"sex,omitempty"`
	CityID         *uuid.UUID                 `json:"city_id,omitempty"`
	CompanyID      *uuid.UUID                 `json:"company_id,omitempty"`
	CommuteModes   []trip.CommuteMode         `json:"commute_modes,omitempty"`
}

// ToCompetitionResponse converts a domain Competition to CompetitionResponse
func ToCompetitionResponse(c *competition.Competition) CompetitionResponse {
	return CompetitionResponse{
		ID:             c.ID,
		Name:           c.Name,
		Slug:           c.Slug,
		Type:           c.Type,
		CompetitorType: c.CompetitorType,
		DateFrom:       dateString(c.DateFrom),
		DateTo:         dateString(c.DateTo),
		IsPublic:       c.IsPublic,
		ShowResults:    c.ShowResults,
		SexFilter:      c.SexFilter,
		CityID:         c.CityID,
		CompanyID:      c.CompanyID,
		CommuteModes:   c.CommuteModes,
	}
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

// CompetitorResponse names the competing record
type CompetitorResponse struct {
	Kind competition.CompetitorKind `json:"kind"`
	ID   uuid.UUID                  `json:"id"`
	Name string                     `json:"name"`
}

// ResultRow is one line of a results table
type ResultRow struct {
	Place      string             `json:"place"`
	From       int                `json:"from"`
	To         int                `json:"to"`
	Competitor CompetitorResponse `json:"competitor"`
	Result     decimal.Decimal    `json:"result"`
	Divident   decimal.Decimal    `json:"divident"`
	Divisor    decimal.Decimal    `json:"divisor"`
}

// ResultsPage is a page of a results table
type ResultsPage struct {
	Competition CompetitionResponse `json:"competition"`
	Items       []ResultRow         `json:"items"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
}

// MyCompetitionResult is the standing of the participant in one competition
type MyCompetitionResult struct {
	Competition CompetitionResponse `json:"competition"`
	Admitted    bool                `json:"admitted"`
	Refusal     competition.Refusal `json:"refusal,omitempty"`
	Competitor  *CompetitorResponse `json:"competitor,omitempty"`
	Result      *decimal.Decimal    `json:"result,omitempty"`
	Place       string              `json:"place,omitempty"`
}

// MyResultsResponse is the overview of the participant's standings
type MyResultsResponse struct {
	TripLengthTotal decimal.Decimal       `json:"trip_length_total"`
	Frequency       decimal.Decimal       `json:"frequency"`
	Rides           int                   `json:"rides"`
	WorkingRides    int                   `json:"working_rides"`
	HasEnoughRides  bool                  `json:"has_enough_rides"`
	Competitions    []MyCompetitionResult `json:"competitions"`
}

// AnswerInput is the reply to one question
type AnswerInput struct {
	QuestionID uuid.UUID   `json:"question_id" binding:"required"`
	Comment    string      `json:"comment" binding:"max=2000"`
	ChoiceIDs  []uuid.UUID `json:"choice_ids"`
}

// SubmitAnswersInput represents a questionnaire submission
type SubmitAnswersInput struct {
	Answers []AnswerInput `json:"answers" binding:"required,min=1,dive"`
}

// GivePointsInput represents the admin scoring of an answer
type GivePointsInput struct {
	Points decimal.Decimal `json:"points" binding:"required"`
}

// AddQuestionInput represents a request to add a question
type AddQuestionInput struct {
	Order    int                      `json:"order"`
	Text     string                   `json:"text" binding:"required,min=1,max=1000"`
	Type     competition.QuestionType `json:"type" binding:"required"`
	Required *bool                    `json:"required"`
	Choices  []ChoiceInput            `json:"choices" binding:"dive"`
}

// ChoiceInput is a predefined answer of a question
type ChoiceInput struct {
	Text   string          `json:"text" binding:"required"`
	Points decimal.Decimal `json:"points"`
}

// QuestionResponse represents a question in API responses
type QuestionResponse struct {
	ID       uuid.UUID                `json:"id"`
	Order    int                      `json:"order"`
	Text     string                   `json:"text"`
	Type     competition.QuestionType `json:"type"`
	Required bool                     `json:"required"`
	Choices  []competition.Choice     `json:"choices"`
}

// ToQuestionResponse converts a domain Question to QuestionResponse
func ToQuestionResponse(q *competition.Question) QuestionResponse {
	return QuestionResponse{
		ID:       q.ID,
		Order:    q.Order,
		Text:     q.Text,
		Type:     q.Type,
		Required: q.Required,
		Choices:  q.Choices,
	}
}

// AnswerResponse represents an answer in API responses
type AnswerResponse struct {
	ID          uuid.UUID       `json:"id"`
	QuestionID  uuid.UUID       `json:"question_id"`
	Comment     string          `json:"comment"`
	ChoiceIDs   []uuid.UUID     `json:"choice_ids"`
	PointsGiven decimal.Decimal `json:"points_given"`
	Points      decimal.Decimal `json:"points"`
}

// ToAnswerResponse converts a domain Answer to AnswerResponse
func ToAnswerResponse(a *competition.Answer) AnswerResponse {
	return AnswerResponse{
		ID:          a.ID,
		QuestionID:  a.QuestionID,
		Comment:     a.Comment,
		ChoiceIDs:   a.ChoiceIDs,
		PointsGiven: a.PointsGiven,
		Points:      a.Points,
	}
}
