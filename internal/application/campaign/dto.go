package campaign

import (
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CampaignOverview is the public view of a campaign
type CampaignOverview struct {
	ID                uuid.UUID       `json:"id"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Year              int             `json:"year"`
	DaysActive        int             `json:"days_active"`
	MinimumPercentage int             `json:"minimum_percentage"`
	MaxTeamMembers    int             `json:"max_team_members"`
	AdmissionFee      decimal.Decimal `json:"admission_fee"`
	CompanyFee        decimal.Decimal `json:"company_admission_fee"`
	FreeEntryCases    string          `json:"free_entry_cases_html,omitempty"`
	TripDates         []time.Time     `json:"trip_dates"`
	Phases            []PhaseInfo     `json:"phases"`
}

// PhaseInfo is a phase with its state on the current day
type PhaseInfo struct {
	Type     campaign.PhaseType `json:"phase_type"`
	DateFrom *time.Time         `json:"date_from,omitempty"`
	DateTo   *time.Time         `json:"date_to,omitempty"`
	Actual   bool               `json:"actual"`
	Ended    bool               `json:"ended"`
}
