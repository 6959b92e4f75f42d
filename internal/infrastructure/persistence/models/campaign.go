package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CampaignModel is the persistence model for the Campaign aggregate.
type CampaignModel struct {
	AggregateModel
	Slug                   string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                   string            `gorm:"type:varchar(100);not null"`
	Year                   int               `gorm:"not null"`
	DaysActive             int               `gorm:"not null;default:7"`
	MinimumRidesBase       int               `gorm:"not null;default:25"`
	MinimumPercentage      int               `gorm:"not null;default:66"`
	TripPlusDistance       decimal.Decimal   `gorm:"type:decimal(10,2);not null;default:0"`
	MaxTeamMembers         int               `gorm:"not null;default:5"`
	MailingListID          string            `gorm:"type:varchar(60)"`
	MailingListEnabled     bool              `gorm:"not null;default:false"`
	InvoiceSequenceFirst   int64             `gorm:"not null;default:1"`
	InvoiceSequenceLast    int64             `gorm:"not null;default:999999999"`
	TrackingNumberFirst    int64             `gorm:"not null;default:1"`
	TrackingNumberLast     int64             `gorm:"not null;default:999999999"`
	PackageWeight          decimal.Decimal   `gorm:"type:decimal(6,3);not null;default:0.25"`
	PackageHeight          int               `gorm:"not null;default:1"`
	PackageWidth           int               `gorm:"not null;default:26"`
	PackageDepth           int               `gorm:"not null;default:35"`
	BenefitialAdmissionFee decimal.Decimal   `gorm:"type:decimal(10,2);not null;default:0"`
	FreeEntryCasesHTML     string            `gorm:"type:text"`
	Active                 bool              `gorm:"not null;default:true"`
	Phases                 []PhaseModel      `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	PriceLevels            []PriceLevelModel `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign.
func (m *CampaignModel) ToDomain() *campaign.Campaign {
	c := &campaign.Campaign{
		BaseAggregateRoot:      m.Aggregate(),
		Slug:                   m.Slug,
		Name:                   m.Name,
		Year:                   m.Year,
		DaysActive:             m.DaysActive,
		MinimumRidesBase:       m.MinimumRidesBase,
		MinimumPercentage:      m.MinimumPercentage,
		TripPlusDistance:       m.TripPlusDistance,
		MaxTeamMembers:         m.MaxTeamMembers,
		MailingListID:          m.MailingListID,
		MailingListEnabled:     m.MailingListEnabled,
		InvoiceSequenceFirst:   m.InvoiceSequenceFirst,
		InvoiceSequenceLast:    m.InvoiceSequenceLast,
		TrackingNumberFirst:    m.TrackingNumberFirst,
		TrackingNumberLast:     m.TrackingNumberLast,
		PackageWeight:          m.PackageWeight,
		PackageHeight:          m.PackageHeight,
		PackageWidth:           m.PackageWidth,
		PackageDepth:           m.PackageDepth,
		BenefitialAdmissionFee: m.BenefitialAdmissionFee,
		FreeEntryCasesHTML:     m.FreeEntryCasesHTML,
		Active:                 m.Active,
	}
	for i := range m.Phases {
		c.Phases = append(c.Phases, m.Phases[i].ToDomain())
	}
	for i := range m.PriceLevels {
		c.PriceLevels = append(c.PriceLevels, m.PriceLevels[i].ToDomain())
	}
	return c
}

// FromDomain populates the persistence model from a domain Campaign.
func (m *CampaignModel) FromDomain(c *campaign.Campaign) {
	m.SetAggregate(c.BaseAggregateRoot)
	m.Slug = c.Slug
	m.Name = c.Name
	m.Year = c.Year
	m.DaysActive = c.DaysActive
	m.MinimumRidesBase = c.MinimumRidesBase
	m.MinimumPercentage = c.MinimumPercentage
	m.TripPlusDistance = c.TripPlusDistance
	m.MaxTeamMembers = c.MaxTeamMembers
	m.MailingListID = c.MailingListID
	m.MailingListEnabled = c.MailingListEnabled
	m.InvoiceSequenceFirst = c.InvoiceSequenceFirst
	m.InvoiceSequenceLast = c.InvoiceSequenceLast
	m.TrackingNumberFirst = c.TrackingNumberFirst
	m.TrackingNumberLast = c.TrackingNumberLast
	m.PackageWeight = c.PackageWeight
	m.PackageHeight = c.PackageHeight
	m.PackageWidth = c.PackageWidth
	m.PackageDepth = c.PackageDepth
	m.BenefitialAdmissionFee = c.BenefitialAdmissionFee
	m.FreeEntryCasesHTML = c.FreeEntryCasesHTML
	m.Active = c.Active
	m.Phases = make([]PhaseModel, 0, len(c.Phases))
	for _, p := range c.Phases {
		m.Phases = append(m.Phases, PhaseModel{CampaignID: c.ID, PhaseType: p.Type, DateFrom: p.DateFrom, DateTo: p.DateTo})
	}
	m.PriceLevels = make([]PriceLevelModel, 0, len(c.PriceLevels))
	for _, l := range c.PriceLevels {
		m.PriceLevels = append(m.PriceLevels, PriceLevelModel{CampaignID: c.ID, Category: l.Category, Price: l.Price, TakesEffectOn: l.TakesEffectOn})
	}
}

// CampaignModelFromDomain creates a new persistence model from a domain Campaign.
func CampaignModelFromDomain(c *campaign.Campaign) *CampaignModel {
	m := &CampaignModel{}
	m.FromDomain(c)
	return m
}

// PhaseModel is a phase row. There is at most one phase of each type per campaign.
type PhaseModel struct {
	CampaignID uuid.UUID          `gorm:"type:uuid;primaryKey"`
	PhaseType  campaign.PhaseType `gorm:"type:varchar(20);primaryKey"`
	DateFrom   *time.Time         `gorm:"type:date"`
	DateTo     *time.Time         `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (PhaseModel) TableName() string {
	return "campaign_phases"
}

// ToDomain converts the row to a domain Phase
func (m *PhaseModel) ToDomain() campaign.Phase {
	return campaign.Phase{Type: m.PhaseType, DateFrom: utcDay(m.DateFrom), DateTo: utcDay(m.DateTo)}
}

// PriceLevelModel is an entry fee level row
type PriceLevelModel struct {
	ID            uint                   `gorm:"primaryKey;autoIncrement"`
	CampaignID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Category      campaign.PriceCategory `gorm:"type:varchar(16);not null"`
	Price         decimal.Decimal        `gorm:"type:decimal(10,2);not null"`
	TakesEffectOn time.Time              `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (PriceLevelModel) TableName() string {
	return "price_levels"
}

// ToDomain converts the row to a domain PriceLevel
func (m *PriceLevelModel) ToDomain() campaign.PriceLevel {
	return campaign.PriceLevel{Category: m.Category, Price: m.Price, TakesEffectOn: shared.DateOf(m.TakesEffectOn)}
}

// TShirtSizeModel is the persistence model for t-shirt sizes
type TShirtSizeModel struct {
	BaseModel
	CampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tshirt_campaign_code,priority:1"`
	Code       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_tshirt_campaign_code,priority:2"`
	Name       string    `gorm:"type:varchar(40)"`
	SortOrder  int       `gorm:"column:sort_order;not null;default:0"`
	Available  bool      `gorm:"not null;default:true"`
	ShipIt     bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TShirtSizeModel) TableName() string {
	return "tshirt_sizes"
}

// ToDomain converts the persistence model to a domain TShirtSize.
func (m *TShirtSizeModel) ToDomain() *campaign.TShirtSize {
	return &campaign.TShirtSize{
		BaseEntity: m.BaseModel.Entity(),
		CampaignID: m.CampaignID,
		Code:       m.Code,
		Name:       m.Name,
		Order:      m.SortOrder,
		Available:  m.Available,
		ShipIt:     m.ShipIt,
	}
}

// TShirtSizeModelFromDomain creates a new persistence model from a domain TShirtSize.
func TShirtSizeModelFromDomain(s *campaign.TShirtSize) *TShirtSizeModel {
	m := &TShirtSizeModel{
		CampaignID: s.CampaignID,
		Code:       s.Code,
		Name:       s.Name,
		SortOrder:  s.Order,
		Available:  s.Available,
		ShipIt:     s.ShipIt,
	}
	m.SetEntity(s.BaseEntity)
	return m
}

// CityModel is the persistence model for cities
type CityModel struct {
	BaseModel
	Name      string                `gorm:"type:varchar(40);not null;uniqueIndex"`
	Slug      string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Campaigns []CityInCampaignModel `gorm:"foreignKey:CityID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CityModel) TableName() string {
	return "cities"
}

// ToDomain converts the persistence model to a domain City.
func (m *CityModel) ToDomain() *campaign.City {
	c := &campaign.City{BaseEntity: m.BaseModel.Entity(), Name: m.Name, Slug: m.Slug}
	for _, link := range m.Campaigns {
		c.CampaignIDs = append(c.CampaignIDs, link.CampaignID)
	}
	return c
}

// CityModelFromDomain creates a new persistence model from a domain City.
func CityModelFromDomain(c *campaign.City) *CityModel {
	m := &CityModel{Name: c.Name, Slug: c.Slug}
	m.SetEntity(c.BaseEntity)
	for _, id := range c.CampaignIDs {
		m.Campaigns = append(m.Campaigns, CityInCampaignModel{CityID: c.ID, CampaignID: id})
	}
	return m
}

// CityInCampaignModel links a city to a campaign it runs in
type CityInCampaignModel struct {
	CityID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CampaignID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (CityInCampaignModel) TableName() string {
	return "city_in_campaigns"
}

func utcDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.DateOf(*t)
	return &d
}
