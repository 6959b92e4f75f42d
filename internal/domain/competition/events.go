package competition

import (
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeAnswer = "Answer"

// Event type constants
const (
	EventTypeAnswerScored = "AnswerScored"
)

// AnswerScoredEvent is published when the points of an answer may have changed
type AnswerScoredEvent struct {
	shared.BaseDomainEvent
	CompetitionID    uuid.UUID       `json:"competition_id"`
	UserAttendanceID uuid.UUID       `json:"user_attendance_id"`
	Points           decimal.Decimal `json:"points"`
}

// NewAnswerScoredEvent creates a new AnswerScoredEvent
func NewAnswerScoredEvent(a *Answer) *AnswerScoredEvent {
	return &AnswerScoredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAnswerScored, AggregateTypeAnswer, a.ID, a.CampaignID),
		CompetitionID:    a.CompetitionID,
		UserAttendanceID: a.UserAttendanceID,
		Points:           a.Points,
	}
}
