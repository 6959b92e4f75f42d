package campaign

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultDaysActive        = 7
	DefaultMinimumRidesBase  = 25
	DefaultMinimumPercentage = 66
	DefaultMaxTeamMembers    = 5
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}$`)

// PriceCategory distinguishes the entry fee paid by individuals and by companies
type PriceCategory string

const (
	PriceCategoryBasic   PriceCategory = "basic"
	PriceCategoryCompany PriceCategory = "company"
)

// PriceLevel is an entry fee that applies from TakesEffectOn onwards
type PriceLevel struct {
	Category      PriceCategory   `json:"category"`
	Price         decimal.Decimal `json:"price"`
	TakesEffectOn time.Time       `json:"takes_effect_on"`
}

// Campaign is one yearly edition of the challenge. Everything users do
// (teams, trips, payments, competitions) belongs to exactly one campaign.
type Campaign struct {
	shared.BaseAggregateRoot
	Slug                   string
	Name                   string
	Year                   int
	DaysActive             int
	MinimumRidesBase       int
	MinimumPercentage      int
	TripPlusDistance       decimal.Decimal
	MaxTeamMembers         int
	MailingListID          string
	MailingListEnabled     bool
	InvoiceSequenceFirst   int64
	InvoiceSequenceLast    int64
	TrackingNumberFirst    int64
	TrackingNumberLast     int64
	PackageWeight          decimal.Decimal
	PackageHeight          int
	PackageWidth           int
	PackageDepth           int
	BenefitialAdmissionFee decimal.Decimal
	FreeEntryCasesHTML     string
	Active                 bool
	Phases                 []Phase
	PriceLevels            []PriceLevel
}

// NewCampaign creates a campaign with the challenge defaults
func NewCampaign(slug, name string, year int) (*Campaign, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, shared.NewDomainError("INVALID_INPUT", "campaign slug must be 2-49 lowercase letters, digits or dashes")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "campaign name cannot be empty")
	}
	if year < 2000 || year > 2100 {
		return nil, shared.NewDomainError("INVALID_INPUT", "campaign year out of range")
	}
	return &Campaign{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Slug:                 slug,
		Name:                 name,
		Year:                 year,
		DaysActive:           DefaultDaysActive,
		MinimumRidesBase:     DefaultMinimumRidesBase,
		MinimumPercentage:    DefaultMinimumPercentage,
		MaxTeamMembers:       DefaultMaxTeamMembers,
		InvoiceSequenceFirst: 1,
		InvoiceSequenceLast:  999999999,
		TrackingNumberFirst:  1,
		TrackingNumberLast:   999999999,
		PackageWeight:        decimal.NewFromFloat(0.25),
		PackageHeight:        1,
		PackageWidth:         26,
		PackageDepth:         35,
		Active:               true,
	}, nil
}

// SetPhase adds or replaces the phase of the given type
func (c *Campaign) SetPhase(p Phase) {
	for i := range c.Phases {
		if c.Phases[i].Type == p.Type {
			c.Phases[i] = p
			c.UpdatedAt = time.Now()
			return
		}
	}
	c.Phases = append(c.Phases, p)
	c.UpdatedAt = time.Now()
}

// Phase returns the phase of the given type
func (c *Campaign) Phase(t PhaseType) (Phase, bool) {
	for _, p := range c.Phases {
		if p.Type == t {
			return p, true
		}
	}
	return Phase{}, false
}

// PhaseIsActual returns true if the campaign has the phase and day is inside it
func (c *Campaign) PhaseIsActual(t PhaseType, day time.Time) bool {
	p, ok := c.Phase(t)
	return ok && p.IsActual(day)
}

// RequirePhase returns ErrPhaseClosed unless the phase is actual on day
func (c *Campaign) RequirePhase(t PhaseType, day time.Time) error {
	if !c.PhaseIsActual(t, day) {
		return shared.NewDomainError(shared.ErrPhaseClosed.Code, "phase "+string(t)+" is not open")
	}
	return nil
}

// AddPriceLevel appends a price level
func (c *Campaign) AddPriceLevel(category PriceCategory, price decimal.Decimal, takesEffectOn time.Time) error {
	if category != PriceCategoryBasic && category != PriceCategoryCompany {
		return shared.NewDomainError("INVALID_INPUT", "unknown price category")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "price cannot be negative")
	}
	c.PriceLevels = append(c.PriceLevels, PriceLevel{
		Category:      category,
		Price:         price,
		TakesEffectOn: shared.DateOf(takesEffectOn),
	})
	return nil
}

// AdmissionFee returns the price of the newest level of the category that
// already took effect on day. Zero means the campaign has no entry fee.
func (c *Campaign) AdmissionFee(category PriceCategory, day time.Time) decimal.Decimal {
	day = shared.DateOf(day)
	levels := make([]PriceLevel, 0, len(c.PriceLevels))
	for _, l := range c.PriceLevels {
		if l.Category == category && !l.TakesEffectOn.After(day) {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		return decimal.Zero
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].TakesEffectOn.After(levels[j].TakesEffectOn)
	})
	return levels[0].Price
}

// DayActive reports whether trips of day may still be entered or changed
// on today: the competition phase must contain day and day must be one of
// the last DaysActive days up to today.
func (c *Campaign) DayActive(day, today time.Time) bool {
	day = shared.DateOf(day)
	today = shared.DateOf(today)
	if day.After(today) {
		return false
	}
	if shared.DaysBetween(day, today) >= c.DaysActive {
		return false
	}
	return c.PhaseIsActual(PhaseCompetition, day)
}

// PossibleTripDates returns the days that can be edited on today, newest first
func (c *Campaign) PossibleTripDates(today time.Time) []time.Time {
	today = shared.DateOf(today)
	dates := make([]time.Time, 0, c.DaysActive)
	for i := 0; i < c.DaysActive; i++ {
		day := today.AddDate(0, 0, -i)
		if c.DayActive(day, today) {
			dates = append(dates, day)
		}
	}
	return dates
}

// InvoiceNumber formats an invoice sequence number for this campaign
func (c *Campaign) InvoiceNumber(sequence int64) string {
	return formatSequence(c.Year, sequence)
}

// TShirtSize is an orderable T-shirt variant of a campaign
type TShirtSize struct {
	shared.BaseEntity
	CampaignID uuid.UUID
	Code       string
	Name       string
	Order      int
	Available  bool
	ShipIt     bool
}

// NewTShirtSize creates a size that is available and shipped
func NewTShirtSize(campaignID uuid.UUID, code, name string, order int) (*TShirtSize, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 10 {
		return nil, shared.NewDomainError("INVALID_INPUT", "t-shirt size code must be 1-10 characters")
	}
	return &TShirtSize{
		BaseEntity: shared.NewBaseEntity(),
		CampaignID: campaignID,
		Code:       code,
		Name:       strings.TrimSpace(name),
		Order:      order,
		Available:  true,
		ShipIt:     true,
	}, nil
}

// City is a town where the challenge runs. CampaignIDs lists the campaigns
// the city takes part in.
type City struct {
	shared.BaseEntity
	Name        string
	Slug        string
	CampaignIDs []uuid.UUID
}

// NewCity creates a city
func NewCity(name, slug string) (*City, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "city name cannot be empty")
	}
	if !slugPattern.MatchString(slug) {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid city slug")
	}
	return &City{BaseEntity: shared.NewBaseEntity(), Name: name, Slug: slug}, nil
}

// InCampaign reports whether the city runs the campaign
func (c *City) InCampaign(campaignID uuid.UUID) bool {
	for _, id := range c.CampaignIDs {
		if id == campaignID {
			return true
		}
	}
	return false
}

// JoinCampaign adds the city to the campaign
func (c *City) JoinCampaign(campaignID uuid.UUID) {
	if !c.InCampaign(campaignID) {
		c.CampaignIDs = append(c.CampaignIDs, campaignID)
	}
}
