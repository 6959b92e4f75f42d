package persistence

import (
	"context"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserAttendanceRepository implements attendance.UserAttendanceRepository using GORM
type GormUserAttendanceRepository struct {
	db *gorm.DB
}

// NewGormUserAttendanceRepository creates a new GormUserAttendanceRepository
func NewGormUserAttendanceRepository(db *gorm.DB) *GormUserAttendanceRepository {
	return &GormUserAttendanceRepository{db: db}
}

// FindByID finds an attendance by ID
func (r *GormUserAttendanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*attendance.UserAttendance, error) {
	var model models.UserAttendanceModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByUser finds the attendance of a user in a campaign
func (r *GormUserAttendanceRepository) FindByUser(ctx context.Context, campaignID, userID uuid.UUID) (*attendance.UserAttendance, error) {
	var model models.UserAttendanceModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds several attendances at once
func (r *GormUserAttendanceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]attendance.UserAttendance, error) {
	if len(ids) == 0 {
		return []attendance.UserAttendance{}, nil
	}
	var rows []models.UserAttendanceModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return attendancesToDomain(rows), nil
}

// FindByTeam returns every attendance linked to the team
func (r *GormUserAttendanceRepository) FindByTeam(ctx context.Context, teamID uuid.UUID) ([]attendance.UserAttendance, error) {
	var rows []models.UserAttendanceModel
	if err := conn(ctx, r.db).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return attendancesToDomain(rows), nil
}

// FindByCompany returns approved team members of the company's subsidiaries
func (r *GormUserAttendanceRepository) FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]attendance.UserAttendance, error) {
	var rows []models.UserAttendanceModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("approved_for_team = ?", organization.ApprovalApproved).
		Where("team_id IN (?)", r.companyTeams(ctx, companyID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return attendancesToDomain(rows), nil
}

// FindAll lists the attendances of a campaign matching the filter
func (r *GormUserAttendanceRepository) FindAll(ctx context.Context, campaignID uuid.UUID, filter attendance.Filter) ([]attendance.UserAttendance, int64, error) {
	query := conn(ctx, r.db).Model(&models.UserAttendanceModel{}).Scopes(CampaignScope(campaignID))
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	if filter.CompanyID != nil {
		query = query.Where("team_id IN (?)", r.companyTeams(ctx, *filter.CompanyID))
	}
	if filter.CityID != nil {
		query = query.Where("team_id IN (?)", conn(ctx, r.db).
			Model(&models.TeamModel{}).
			Select("teams.id").
			Joins("JOIN subsidiaries ON subsidiaries.id = teams.subsidiary_id").
			Where("subsidiaries.city_id = ?", *filter.CityID))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserAttendanceModel
	orderBy := ValidateSortField(filter.OrderBy, AttendanceSortFields, "created_at")
	if err := query.Scopes(Paginate(filter.Filter, orderBy)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return attendancesToDomain(rows), total, nil
}

// CountApprovedMembers counts approved members of the team
func (r *GormUserAttendanceRepository) CountApprovedMembers(ctx context.Context, teamID uuid.UUID, exclude *uuid.UUID) (int, error) {
	query := conn(ctx, r.db).Model(&models.UserAttendanceModel{}).
		Where("team_id = ? AND approved_for_team = ?", teamID, organization.ApprovalApproved)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Save creates or updates an attendance
func (r *GormUserAttendanceRepository) Save(ctx context.Context, ua *attendance.UserAttendance) error {
	return conn(ctx, r.db).Save(models.UserAttendanceModelFromDomain(ua)).Error
}

func (r *GormUserAttendanceRepository) companyTeams(ctx context.Context, companyID uuid.UUID) *gorm.DB {
	return conn(ctx, r.db).
		Model(&models.TeamModel{}).
		Select("teams.id").
		Joins("JOIN subsidiaries ON subsidiaries.id = teams.subsidiary_id").
		Where("subsidiaries.company_id = ?", companyID)
}

func attendancesToDomain(rows []models.UserAttendanceModel) []attendance.UserAttendance {
	attendances := make([]attendance.UserAttendance, 0, len(rows))
	for i := range rows {
		attendances = append(attendances, *rows[i].ToDomain())
	}
	return attendances
}
