package persistence

import (
	"context"
	"strings"

	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCompanyRepository implements organization.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Company, error) {
	var model models.CompanyModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByName finds a company by its normalized name
func (r *GormCompanyRepository) FindByName(ctx context.Context, name string) (*organization.Company, error) {
	var model models.CompanyModel
	if err := conn(ctx, r.db).
		Where("name_normalized = ?", organization.NormalizeName(name)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByICO finds a company by its registration number
func (r *GormCompanyRepository) FindByICO(ctx context.Context, ico string) (*organization.Company, error) {
	ico = strings.TrimSpace(ico)
	if ico == "" {
		return nil, shared.ErrNotFound
	}
	var model models.CompanyModel
	if err := conn(ctx, r.db).Where("ico = ?", ico).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists companies matching the filter with the total count
func (r *GormCompanyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]organization.Company, int64, error) {
	query := conn(ctx, r.db).Model(&models.CompanyModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + organization.NormalizeName(search) + "%"
		query = query.Where("name_normalized LIKE ? OR ico LIKE ?", like, "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CompanyModel
	orderBy := ValidateSortField(filter.OrderBy, CompanySortFields, "name")
	if err := query.Scopes(Paginate(filter, orderBy)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	companies := make([]organization.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, *rows[i].ToDomain())
	}
	return companies, total, nil
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *organization.Company) error {
	return conn(ctx, r.db).Save(models.CompanyModelFromDomain(company)).Error
}

// GormSubsidiaryRepository implements organization.SubsidiaryRepository using GORM
type GormSubsidiaryRepository struct {
	db *gorm.DB
}

// NewGormSubsidiaryRepository creates a new GormSubsidiaryRepository
func NewGormSubsidiaryRepository(db *gorm.DB) *GormSubsidiaryRepository {
	return &GormSubsidiaryRepository{db: db}
}

// FindByID finds a subsidiary by ID
func (r *GormSubsidiaryRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Subsidiary, error) {
	var model models.SubsidiaryModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists the subsidiaries of a company
func (r *GormSubsidiaryRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]organization.Subsidiary, error) {
	var rows []models.SubsidiaryModel
	if err := conn(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("address_street ASC, address_street_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return subsidiariesToDomain(rows), nil
}

// FindByIDs finds several subsidiaries at once
func (r *GormSubsidiaryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]organization.Subsidiary, error) {
	if len(ids) == 0 {
		return []organization.Subsidiary{}, nil
	}
	var rows []models.SubsidiaryModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return subsidiariesToDomain(rows), nil
}

// Save creates or updates a subsidiary
func (r *GormSubsidiaryRepository) Save(ctx context.Context, subsidiary *organization.Subsidiary) error {
	return conn(ctx, r.db).Save(models.SubsidiaryModelFromDomain(subsidiary)).Error
}

func subsidiariesToDomain(rows []models.SubsidiaryModel) []organization.Subsidiary {
	subsidiaries := make([]organization.Subsidiary, 0, len(rows))
	for i := range rows {
		subsidiaries = append(subsidiaries, *rows[i].ToDomain())
	}
	return subsidiaries
}

// GormTeamRepository implements organization.TeamRepository using GORM
type GormTeamRepository struct {
	db *gorm.DB
}

// NewGormTeamRepository creates a new GormTeamRepository
func NewGormTeamRepository(db *gorm.DB) *GormTeamRepository {
	return &GormTeamRepository{db: db}
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Team, error) {
	var model models.TeamModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a team and locks its row until the transaction ends
func (r *GormTeamRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*organization.Team, error) {
	var model models.TeamModel
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByInvitationToken finds the team a join link points at
func (r *GormTeamRepository) FindByInvitationToken(ctx context.Context, token string) (*organization.Team, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TeamModel
	if err := conn(ctx, r.db).Where("invitation_token = ?", token).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByName finds a team by its case-insensitive name within a campaign
func (r *GormTeamRepository) FindByName(ctx context.Context, campaignID uuid.UUID, name string) (*organization.Team, error) {
	var model models.TeamModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("name_normalized = ?", organization.NormalizeName(name)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists the teams of a campaign with the total count
func (r *GormTeamRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]organization.Team, int64, error) {
	query := conn(ctx, r.db).Model(&models.TeamModel{}).Scopes(CampaignScope(campaignID))
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name_normalized LIKE ?", "%"+organization.NormalizeName(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TeamModel
	orderBy := ValidateSortField(filter.OrderBy, TeamSortFields, "name")
	if err := query.Scopes(Paginate(filter, orderBy)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return teamsToDomain(rows), total, nil
}

// FindBySubsidiary lists the teams of a subsidiary
func (r *GormTeamRepository) FindBySubsidiary(ctx context.Context, campaignID, subsidiaryID uuid.UUID) ([]organization.Team, error) {
	var rows []models.TeamModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("subsidiary_id = ?", subsidiaryID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return teamsToDomain(rows), nil
}

// Save creates or updates a team
func (r *GormTeamRepository) Save(ctx context.Context, team *organization.Team) error {
	return conn(ctx, r.db).Save(models.TeamModelFromDomain(team)).Error
}

func teamsToDomain(rows []models.TeamModel) []organization.Team {
	teams := make([]organization.Team, 0, len(rows))
	for i := range rows {
		teams = append(teams, *rows[i].ToDomain())
	}
	return teams
}

// GormCompanyAdminRepository implements organization.CompanyAdminRepository using GORM
type GormCompanyAdminRepository struct {
	db *gorm.DB
}

// NewGormCompanyAdminRepository creates a new GormCompanyAdminRepository
func NewGormCompanyAdminRepository(db *gorm.DB) *GormCompanyAdminRepository {
	return &GormCompanyAdminRepository{db: db}
}

// FindByUser finds the company admin record of a user in a campaign
func (r *GormCompanyAdminRepository) FindByUser(ctx context.Context, campaignID, userID uuid.UUID) (*organization.CompanyAdmin, error) {
	var model models.CompanyAdminModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists the admins of a company in a campaign
func (r *GormCompanyAdminRepository) FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]organization.CompanyAdmin, error) {
	var rows []models.CompanyAdminModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	admins := make([]organization.CompanyAdmin, 0, len(rows))
	for i := range rows {
		admins = append(admins, *rows[i].ToDomain())
	}
	return admins, nil
}

// Save creates or updates a company admin
func (r *GormCompanyAdminRepository) Save(ctx context.Context, admin *organization.CompanyAdmin) error {
	return conn(ctx, r.db).Save(models.CompanyAdminModelFromDomain(admin)).Error
}
