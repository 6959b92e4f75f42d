package campaign

import (
	"context"

	"github.com/google/uuid"
)

// CampaignRepository defines persistence operations for campaigns
type CampaignRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	FindBySlug(ctx context.Context, slug string) (*Campaign, error)
	FindActive(ctx context.Context) ([]Campaign, error)
	Save(ctx context.Context, campaign *Campaign) error
}

// TShirtSizeRepository defines persistence operations for t-shirt sizes
type TShirtSizeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TShirtSize, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]TShirtSize, error)
	Save(ctx context.Context, size *TShirtSize) error
}

// CityRepository defines persistence operations for cities
type CityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*City, error)
	FindBySlug(ctx context.Context, slug string) (*City, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]City, error)
	Save(ctx context.Context, city *City) error
}
