package campaign

import (
	"context"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CampaignService exposes the campaign settings to the API and the jobs
type CampaignService struct {
	campaigns campaign.CampaignRepository
	sizes     campaign.TShirtSizeRepository
	cities    campaign.CityRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaigns campaign.CampaignRepository,
	sizes campaign.TShirtSizeRepository,
	cities campaign.CityRepository,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		sizes:     sizes,
		cities:    cities,
		logger:    logger,
		now:       time.Now,
	}
}

// GetBySlug resolves the campaign of a request
func (s *CampaignService) GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	return s.campaigns.FindBySlug(ctx, slug)
}

// GetByID returns a campaign
func (s *CampaignService) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	return s.campaigns.FindByID(ctx, id)
}

// Overview returns the public campaign settings with the phases as of today
func (s *CampaignService) Overview(ctx context.Context, id uuid.UUID) (*CampaignOverview, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	today := s.now()
	overview := &CampaignOverview{
		ID:                c.ID,
		Slug:              c.Slug,
		Name:              c.Name,
		Year:              c.Year,
		DaysActive:        c.DaysActive,
		MinimumPercentage: c.MinimumPercentage,
		MaxTeamMembers:    c.MaxTeamMembers,
		AdmissionFee:      c.AdmissionFee(campaign.PriceCategoryBasic, today),
		CompanyFee:        c.AdmissionFee(campaign.PriceCategoryCompany, today),
		FreeEntryCases:    c.FreeEntryCasesHTML,
		TripDates:         c.PossibleTripDates(today),
	}
	overview.Phases = phasesOf(c, today)
	return overview, nil
}

// Phases lists the phases with their state on today
func (s *CampaignService) Phases(ctx context.Context, id uuid.UUID) ([]PhaseInfo, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return phasesOf(c, s.now()), nil
}

// TShirtSizes lists the sizes participants can still order
func (s *CampaignService) TShirtSizes(ctx context.Context, id uuid.UUID) ([]campaign.TShirtSize, error) {
	sizes, err := s.sizes.FindByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	available := sizes[:0]
	for _, size := range sizes {
		if size.Available {
			available = append(available, size)
		}
	}
	return available, nil
}

// Cities lists the cities taking part in the campaign
func (s *CampaignService) Cities(ctx context.Context, id uuid.UUID) ([]campaign.City, error) {
	return s.cities.FindByCampaign(ctx, id)
}

// ActiveCampaignIDs lists the campaigns the periodic jobs run for
func (s *CampaignService) ActiveCampaignIDs(ctx context.Context) ([]uuid.UUID, error) {
	campaigns, err := s.campaigns.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.ID
	}
	s.logger.Debug("active campaigns", zap.Int("count", len(ids)))
	return ids, nil
}

func phasesOf(c *campaign.Campaign, today time.Time) []PhaseInfo {
	phases := make([]PhaseInfo, len(c.Phases))
	for i, p := range c.Phases {
		phases[i] = PhaseInfo{
			Type:     p.Type,
			DateFrom: p.DateFrom,
			DateTo:   p.DateTo,
			Actual:   p.IsActual(today),
			Ended:    p.HasEnded(today),
		}
	}
	return phases
}
