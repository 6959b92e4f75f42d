package competition

import (
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestionType is how a question is answered
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionChoice         QuestionType = "choice"
	QuestionMultipleChoice QuestionType = "multiple-choice"
)

// Choice is a predefined answer worth some points
type Choice struct {
	ID     uuid.UUID       `json:"id"`
	Text   string          `json:"text"`
	Points decimal.Decimal `json:"points"`
}

// Question belongs to a questionnaire competition
type Question struct {
	shared.BaseEntity
	CompetitionID uuid.UUID
	Order         int
	Text          string
	Type          QuestionType
	WithComment   bool
	Required      bool
	Choices       []Choice
}

// NewQuestion creates a question of the competition
func NewQuestion(competitionID uuid.UUID, order int, text string, typ QuestionType) (*Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "question text cannot be empty")
	}
	switch typ {
	case QuestionText, QuestionChoice, QuestionMultipleChoice:
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown question type: "+string(typ))
	}
	return &Question{
		BaseEntity:    shared.NewBaseEntity(),
		CompetitionID: competitionID,
		Order:         order,
		Text:          text,
		Type:          typ,
		WithComment:   typ == QuestionText,
		Required:      true,
	}, nil
}

// AddChoice appends a choice and returns it
func (q *Question) AddChoice(text string, points decimal.Decimal) Choice {
	c := Choice{ID: uuid.New(), Text: strings.TrimSpace(text), Points: points}
	q.Choices = append(q.Choices, c)
	return c
}

func (q *Question) choice(id uuid.UUID) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Answer is the reply of one participant to one question
type Answer struct {
	shared.CampaignAggregateRoot
	QuestionID       uuid.UUID
	CompetitionID    uuid.UUID
	UserAttendanceID uuid.UUID
	Comment          string
	ChoiceIDs        []uuid.UUID
	PointsGiven      decimal.Decimal
	Attachment       string
	Points           decimal.Decimal
}

// NewAnswer validates the reply against the question and scores the chosen
// choices
func NewAnswer(campaignID uuid.UUID, q *Question, userAttendanceID uuid.UUID, comment string, choiceIDs []uuid.UUID) (*Answer, error) {
	a := &Answer{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		QuestionID:            q.ID,
		CompetitionID:         q.CompetitionID,
		UserAttendanceID:      userAttendanceID,
		PointsGiven:           decimal.Zero,
	}
	if err := a.Change(q, comment, choiceIDs); err != nil {
		return nil, err
	}
	return a, nil
}

// Change replaces the reply
func (a *Answer) Change(q *Question, comment string, choiceIDs []uuid.UUID) error {
	switch q.Type {
	case QuestionText:
		if len(choiceIDs) > 0 {
			return shared.NewDomainError("INVALID_INPUT", "text questions have no choices")
		}
		if q.Required && strings.TrimSpace(comment) == "" {
			return shared.NewDomainError("INVALID_INPUT", "answer cannot be empty")
		}
	case QuestionChoice:
		if len(choiceIDs) != 1 {
			return shared.NewDomainError("INVALID_INPUT", "exactly one choice must be selected")
		}
	case QuestionMultipleChoice:
		if q.Required && len(choiceIDs) == 0 {
			return shared.NewDomainError("INVALID_INPUT", "at least one choice must be selected")
		}
	}
	seen := make(map[uuid.UUID]bool, len(choiceIDs))
	for _, id := range choiceIDs {
		if _, ok := q.choice(id); !ok || seen[id] {
			return shared.NewDomainError("INVALID_INPUT", "invalid choice")
		}
		seen[id] = true
	}
	a.Comment = strings.TrimSpace(comment)
	a.ChoiceIDs = append([]uuid.UUID(nil), choiceIDs...)
	a.rescore(q)
	a.UpdatedAt = time.Now()
	a.AddDomainEvent(NewAnswerScoredEvent(a))
	return nil
}

// GivePoints lets an admin score a free-text answer
func (a *Answer) GivePoints(q *Question, points decimal.Decimal) error {
	if points.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "points cannot be negative")
	}
	a.PointsGiven = points
	a.rescore(q)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	a.AddDomainEvent(NewAnswerScoredEvent(a))
	return nil
}

func (a *Answer) rescore(q *Question) {
	total := a.PointsGiven
	for _, id := range a.ChoiceIDs {
		if c, ok := q.choice(id); ok {
			total = total.Add(c.Points)
		}
	}
	a.Points = total
}
