package competition

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompetitorKind is the record a result belongs to
type CompetitorKind string

const (
	KindUserAttendance CompetitorKind = "user_attendance"
	KindTeam           CompetitorKind = "team"
	KindCompany        CompetitorKind = "company"
)

// CompetitorRef points at a competing attendance, team or company
type CompetitorRef struct {
	Kind CompetitorKind `json:"kind"`
	ID   uuid.UUID      `json:"id"`
}

// Result is the score of one competitor in one competition. Exactly one of
// the competitor ids is set.
type Result struct {
	ID               uuid.UUID
	CampaignID       uuid.UUID
	CompetitionID    uuid.UUID
	UserAttendanceID *uuid.UUID
	TeamID           *uuid.UUID
	CompanyID        *uuid.UUID
	ResultDivident   decimal.Decimal
	ResultDivisor    decimal.Decimal
	Result           decimal.Decimal
	UpdatedAt        time.Time
}

// NewResult creates a result for the competitor from a score
func NewResult(c *Competition, ref CompetitorRef, score Score) *Result {
	r := &Result{
		ID:            uuid.New(),
		CampaignID:    c.CampaignID,
		CompetitionID: c.ID,
		UpdatedAt:     time.Now(),
	}
	id := ref.ID
	switch ref.Kind {
	case KindTeam:
		r.TeamID = &id
	case KindCompany:
		r.CompanyID = &id
	default:
		r.UserAttendanceID = &id
	}
	r.SetScore(score)
	return r
}

// SetScore stores divident, divisor and the derived result
func (r *Result) SetScore(score Score) {
	r.ResultDivident = score.Divident
	r.ResultDivisor = score.Divisor
	r.Result = score.Value()
	r.UpdatedAt = time.Now()
}

// Competitor returns the reference of the competing record
func (r *Result) Competitor() CompetitorRef {
	switch {
	case r.TeamID != nil:
		return CompetitorRef{Kind: KindTeam, ID: *r.TeamID}
	case r.CompanyID != nil:
		return CompetitorRef{Kind: KindCompany, ID: *r.CompanyID}
	case r.UserAttendanceID != nil:
		return CompetitorRef{Kind: KindUserAttendance, ID: *r.UserAttendanceID}
	default:
		return CompetitorRef{}
	}
}

// Score is a divident over a divisor
type Score struct {
	Divident decimal.Decimal
	Divisor  decimal.Decimal
}

// Value returns divident / divisor, or the divident when the divisor is zero
func (s Score) Value() decimal.Decimal {
	if s.Divisor.IsZero() {
		return s.Divident
	}
	return s.Divident.DivRound(s.Divisor, 6)
}

// Add sums two scores component-wise
func (s Score) Add(other Score) Score {
	return Score{Divident: s.Divident.Add(other.Divident), Divisor: s.Divisor.Add(other.Divisor)}
}

// RankedResult is a result with its place. Tied results share the range
// From..To.
type RankedResult struct {
	Result
	From int
	To   int
}

// SequenceRange returns the place range of value among all results. better
// is the number of strictly better results and equal counts value itself.
func SequenceRange(better, equal int) (from, to int) {
	return better + 1, better + equal
}

// PlaceLabel formats a place range the way result tables show it: "3." or "1.-3."
func (r RankedResult) PlaceLabel() string {
	if r.From == r.To {
		return strconv.Itoa(r.From) + "."
	}
	return strconv.Itoa(r.From) + ".-" + strconv.Itoa(r.To) + "."
}
