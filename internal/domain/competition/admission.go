package competition

import (
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Refusal explains why a participant cannot enter a competition
type Refusal string

const (
	RefusalNone          Refusal = ""
	RefusalNotPaid       Refusal = "not_paid"
	RefusalAfterDeadline Refusal = "after_deadline"
	RefusalNotApproved   Refusal = "not_approved_team_member"
	RefusalNotLiberos    Refusal = "not_liberos"
	RefusalNoTeam        Refusal = "no_team"
	RefusalNoCompany     Refusal = "no_company"
	RefusalWrongSex      Refusal = "wrong_sex"
	RefusalWrongCity     Refusal = "wrong_city"
	RefusalWrongCompany  Refusal = "wrong_company"
)

// Candidate is what admission needs to know about a participant
type Candidate struct {
	PaymentStatus   attendance.PaymentState
	ApprovedMember  bool
	TeamID          *uuid.UUID
	TeamMemberCount int
	CompanyID       *uuid.UUID
	CityID          *uuid.UUID
	Sex             identity.Sex
}

// CanAdmit checks whether the candidate may take part on today
func (c *Competition) CanAdmit(candidate Candidate, phaseFrom *time.Time, today time.Time) (bool, Refusal) {
	if !candidate.PaymentStatus.IsPaid() {
		return false, RefusalNotPaid
	}
	if deadline := c.EntryDeadline(phaseFrom); deadline != nil && shared.DateOf(today).After(*deadline) {
		return false, RefusalAfterDeadline
	}

	switch c.CompetitorType {
	case CompetitorSingleUser:
		if !candidate.ApprovedMember {
			return false, RefusalNotApproved
		}
	case CompetitorLiberos:
		if !candidate.ApprovedMember || candidate.TeamMemberCount != 1 {
			return false, RefusalNotLiberos
		}
	case CompetitorTeam:
		if candidate.TeamID == nil || !candidate.ApprovedMember {
			return false, RefusalNoTeam
		}
	case CompetitorCompany:
		if candidate.CompanyID == nil {
			return false, RefusalNoCompany
		}
	}

	if c.SexFilter != "" && c.SexFilter != identity.SexUnknown && candidate.Sex != c.SexFilter {
		return false, RefusalWrongSex
	}
	if c.CityID != nil && (candidate.CityID == nil || *candidate.CityID != *c.CityID) {
		return false, RefusalWrongCity
	}
	if c.CompanyID != nil && (candidate.CompanyID == nil || *candidate.CompanyID != *c.CompanyID) {
		return false, RefusalWrongCompany
	}
	return true, RefusalNone
}

// Admits reports whether the candidate counts into the results regardless
// of the entry deadline. Used when recomputing existing results.
func (c *Competition) Admits(candidate Candidate) bool {
	ok, reason := c.CanAdmit(candidate, nil, time.Time{})
	return ok || reason == RefusalAfterDeadline
}
