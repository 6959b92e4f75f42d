package competition

import (
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
)

// Type is what a competition measures
type Type string

const (
	TypeLength        Type = "length"
	TypeFrequency     Type = "frequency"
	TypeQuestionnaire Type = "questionnaire"
)

// IsValid returns true if the type is known
func (t Type) IsValid() bool {
	return t == TypeLength || t == TypeFrequency || t == TypeQuestionnaire
}

// CompetitorType is who competes
type CompetitorType string

const (
	CompetitorSingleUser CompetitorType = "single_user"
	CompetitorLiberos    CompetitorType = "liberos"
	CompetitorTeam       CompetitorType = "team"
	CompetitorCompany    CompetitorType = "company"
)

// IsValid returns true if the competitor type is known
func (c CompetitorType) IsValid() bool {
	switch c {
	case CompetitorSingleUser, CompetitorLiberos, CompetitorTeam, CompetitorCompany:
		return true
	default:
		return false
	}
}

// Kind returns the kind of record a result of this competitor type points at
func (c CompetitorType) Kind() CompetitorKind {
	switch c {
	case CompetitorTeam:
		return KindTeam
	case CompetitorCompany:
		return KindCompany
	default:
		return KindUserAttendance
	}
}

// DefaultCommuteModes count into length competitions unless configured otherwise
var DefaultCommuteModes = []trip.CommuteMode{trip.ModeBicycle, trip.ModeByFoot}

// Competition is a scored contest inside a campaign
type Competition struct {
	shared.CampaignAggregateRoot
	Name                    string
	Slug                    string
	Type                    Type
	CompetitorType          CompetitorType
	DateFrom                *time.Time
	DateTo                  *time.Time
	EntryAfterBeginningDays int
	IsPublic                bool
	PublicAnswers           bool
	ShowResults             bool
	SexFilter               identity.Sex
	CityID                  *uuid.UUID
	CompanyID               *uuid.UUID
	CommuteModes            []trip.CommuteMode
}

// NewCompetition creates a public competition that shows its results
func NewCompetition(campaignID uuid.UUID, name, slug string, typ Type, competitorType CompetitorType) (*Competition, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "competition name cannot be empty")
	}
	if slug == "" || strings.ContainsAny(slug, " /?#") {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid competition slug")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown competition type: "+string(typ))
	}
	if !competitorType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown competitor type: "+string(competitorType))
	}
	return &Competition{
		CampaignAggregateRoot:   shared.NewCampaignAggregateRoot(campaignID),
		Name:                    name,
		Slug:                    slug,
		Type:                    typ,
		CompetitorType:          competitorType,
		EntryAfterBeginningDays: 5,
		IsPublic:                true,
		ShowResults:             true,
		CommuteModes:            append([]trip.CommuteMode(nil), DefaultCommuteModes...),
	}, nil
}

// SetDates limits the competition to a date range. Nil bounds fall back to
// the competition phase of the campaign.
func (c *Competition) SetDates(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError("INVALID_INPUT", "competition must not end before it starts")
	}
	c.DateFrom, c.DateTo = normalizeDay(from), normalizeDay(to)
	return nil
}

// Range resolves the effective date range against the campaign competition
// phase bounds
func (c *Competition) Range(phaseFrom, phaseTo *time.Time) (from, to *time.Time) {
	from, to = c.DateFrom, c.DateTo
	if from == nil {
		from = normalizeDay(phaseFrom)
	}
	if to == nil {
		to = normalizeDay(phaseTo)
	}
	return from, to
}

// EntryDeadline is the last day a competitor may still enter
func (c *Competition) EntryDeadline(phaseFrom *time.Time) *time.Time {
	from, _ := c.Range(phaseFrom, nil)
	if from == nil {
		return nil
	}
	d := from.AddDate(0, 0, c.EntryAfterBeginningDays)
	return &d
}

// CountsMode reports whether trips of mode add distance in length competitions
func (c *Competition) CountsMode(mode trip.CommuteMode) bool {
	modes := c.CommuteModes
	if len(modes) == 0 {
		modes = DefaultCommuteModes
	}
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func normalizeDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.DateOf(*t)
	return &d
}
