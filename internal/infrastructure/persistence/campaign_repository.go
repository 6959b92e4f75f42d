package persistence

import (
	"context"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCampaignRepository implements campaign.CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) query(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Preload("Phases").Preload("PriceLevels", func(db *gorm.DB) *gorm.DB {
		return db.Order("takes_effect_on ASC")
	})
}

// FindByID finds a campaign by ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var model models.CampaignModel
	if err := r.query(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a campaign by its URL slug
func (r *GormCampaignRepository) FindBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	var model models.CampaignModel
	if err := r.query(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindActive lists active campaigns, newest first
func (r *GormCampaignRepository) FindActive(ctx context.Context) ([]campaign.Campaign, error) {
	var rows []models.CampaignModel
	if err := r.query(ctx).Where("active = ?", true).Order("year DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	campaigns := make([]campaign.Campaign, 0, len(rows))
	for i := range rows {
		campaigns = append(campaigns, *rows[i].ToDomain())
	}
	return campaigns, nil
}

// Save creates or updates a campaign and replaces its phases and price levels
func (r *GormCampaignRepository) Save(ctx context.Context, c *campaign.Campaign) error {
	model := models.CampaignModelFromDomain(c)
	return NewTransactor(r.db).InTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Omit("Phases", "PriceLevels").Save(model).Error; err != nil {
			return err
		}
		if err := db.Where("campaign_id = ?", c.ID).Delete(&models.PhaseModel{}).Error; err != nil {
			return err
		}
		if err := db.Where("campaign_id = ?", c.ID).Delete(&models.PriceLevelModel{}).Error; err != nil {
			return err
		}
		if len(model.Phases) > 0 {
			if err := db.Create(&model.Phases).Error; err != nil {
				return err
			}
		}
		if len(model.PriceLevels) > 0 {
			if err := db.Create(&model.PriceLevels).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GormTShirtSizeRepository implements campaign.TShirtSizeRepository using GORM
type GormTShirtSizeRepository struct {
	db *gorm.DB
}

// NewGormTShirtSizeRepository creates a new GormTShirtSizeRepository
func NewGormTShirtSizeRepository(db *gorm.DB) *GormTShirtSizeRepository {
	return &GormTShirtSizeRepository{db: db}
}

// FindByID finds a t-shirt size by ID
func (r *GormTShirtSizeRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.TShirtSize, error) {
	var model models.TShirtSizeModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists the sizes of a campaign in display order
func (r *GormTShirtSizeRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]campaign.TShirtSize, error) {
	var rows []models.TShirtSizeModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Order("sort_order ASC, code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sizes := make([]campaign.TShirtSize, 0, len(rows))
	for i := range rows {
		sizes = append(sizes, *rows[i].ToDomain())
	}
	return sizes, nil
}

// Save creates or updates a t-shirt size
func (r *GormTShirtSizeRepository) Save(ctx context.Context, size *campaign.TShirtSize) error {
	return conn(ctx, r.db).Save(models.TShirtSizeModelFromDomain(size)).Error
}

// GormCityRepository implements campaign.CityRepository using GORM
type GormCityRepository struct {
	db *gorm.DB
}

// NewGormCityRepository creates a new GormCityRepository
func NewGormCityRepository(db *gorm.DB) *GormCityRepository {
	return &GormCityRepository{db: db}
}

// FindByID finds a city by ID
func (r *GormCityRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.City, error) {
	var model models.CityModel
	if err := conn(ctx, r.db).Preload("Campaigns").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a city by its URL slug
func (r *GormCityRepository) FindBySlug(ctx context.Context, slug string) (*campaign.City, error) {
	var model models.CityModel
	if err := conn(ctx, r.db).Preload("Campaigns").Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists cities the campaign runs in, ordered by name
func (r *GormCityRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]campaign.City, error) {
	var rows []models.CityModel
	if err := conn(ctx, r.db).
		Preload("Campaigns").
		Where("id IN (?)", conn(ctx, r.db).Model(&models.CityInCampaignModel{}).Select("city_id").Where("campaign_id = ?", campaignID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	cities := make([]campaign.City, 0, len(rows))
	for i := range rows {
		cities = append(cities, *rows[i].ToDomain())
	}
	return cities, nil
}

// Save creates or updates a city together with its campaign links
func (r *GormCityRepository) Save(ctx context.Context, city *campaign.City) error {
	model := models.CityModelFromDomain(city)
	return NewTransactor(r.db).InTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Omit("Campaigns").Save(model).Error; err != nil {
			return err
		}
		if err := db.Where("city_id = ?", city.ID).Delete(&models.CityInCampaignModel{}).Error; err != nil {
			return err
		}
		if len(model.Campaigns) == 0 {
			return nil
		}
		return db.Create(&model.Campaigns).Error
	})
}
