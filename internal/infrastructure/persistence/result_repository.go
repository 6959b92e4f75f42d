package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResultRepository implements competition.ResultRepository using GORM
type GormResultRepository struct {
	db *gorm.DB
}

// NewGormResultRepository creates a new GormResultRepository
func NewGormResultRepository(db *gorm.DB) *GormResultRepository {
	return &GormResultRepository{db: db}
}

// competitorColumn returns the column holding the competitor of kind
func competitorColumn(kind competition.CompetitorKind) (string, error) {
	switch kind {
	case competition.KindUserAttendance:
		return "user_attendance_id", nil
	case competition.KindTeam:
		return "team_id", nil
	case competition.KindCompany:
		return "company_id", nil
	default:
		return "", shared.NewDomainError("INVALID_INPUT", "unknown competitor kind "+string(kind))
	}
}

// FindByCompetition lists results ordered by result descending
func (r *GormResultRepository) FindByCompetition(ctx context.Context, competitionID uuid.UUID, filter shared.Filter) ([]competition.Result, int64, error) {
	query := conn(ctx, r.db).Model(&models.CompetitionResultModel{}).Where("competition_id = ?", competitionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CompetitionResultModel
	query = query.Order("result DESC, id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return resultsToDomain(rows), total, nil
}

// FindAllByCompetition returns every result of the competition
func (r *GormResultRepository) FindAllByCompetition(ctx context.Context, competitionID uuid.UUID) ([]competition.Result, error) {
	var rows []models.CompetitionResultModel
	if err := conn(ctx, r.db).
		Where("competition_id = ?", competitionID).
		Order("result DESC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return resultsToDomain(rows), nil
}

// FindForCompetitor finds the result of one competitor in a competition
func (r *GormResultRepository) FindForCompetitor(ctx context.Context, competitionID uuid.UUID, ref competition.CompetitorRef) (*competition.Result, error) {
	column, err := competitorColumn(ref.Kind)
	if err != nil {
		return nil, err
	}
	var model models.CompetitionResultModel
	if err := conn(ctx, r.db).
		Where("competition_id = ?", competitionID).
		Where(column+" = ?", ref.ID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCompetitor lists the results of a competitor across competitions
func (r *GormResultRepository) FindByCompetitor(ctx context.Context, ref competition.CompetitorRef) ([]competition.Result, error) {
	column, err := competitorColumn(ref.Kind)
	if err != nil {
		return nil, err
	}
	var rows []models.CompetitionResultModel
	if err := conn(ctx, r.db).Where(column+" = ?", ref.ID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return resultsToDomain(rows), nil
}

// Upsert creates or replaces the result of the competitor. An existing row
// keeps its ID.
func (r *GormResultRepository) Upsert(ctx context.Context, result *competition.Result) error {
	existing, err := r.FindForCompetitor(ctx, result.CompetitionID, result.Competitor())
	switch {
	case err == nil:
		result.ID = existing.ID
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	return conn(ctx, r.db).Save(models.CompetitionResultModelFromDomain(result)).Error
}

// DeleteForCompetitor removes the result of a competitor
func (r *GormResultRepository) DeleteForCompetitor(ctx context.Context, competitionID uuid.UUID, ref competition.CompetitorRef) error {
	column, err := competitorColumn(ref.Kind)
	if err != nil {
		return err
	}
	return conn(ctx, r.db).
		Where("competition_id = ?", competitionID).
		Where(column+" = ?", ref.ID).
		Delete(&models.CompetitionResultModel{}).Error
}

// CountBetter counts results strictly better than and equal to result
func (r *GormResultRepository) CountBetter(ctx context.Context, competitionID uuid.UUID, result *competition.Result) (int, int, error) {
	var better, equal int64
	base := conn(ctx, r.db).Model(&models.CompetitionResultModel{}).Where("competition_id = ?", competitionID)
	if err := base.Session(&gorm.Session{}).Where("result > ?", result.Result).Count(&better).Error; err != nil {
		return 0, 0, err
	}
	if err := base.Session(&gorm.Session{}).Where("result = ?", result.Result).Count(&equal).Error; err != nil {
		return 0, 0, err
	}
	return int(better), int(equal), nil
}

func resultsToDomain(rows []models.CompetitionResultModel) []competition.Result {
	results := make([]competition.Result, 0, len(rows))
	for i := range rows {
		results = append(results, *rows[i].ToDomain())
	}
	return results
}

// GormDirtyQueue implements competition.DirtyQueue on the results_dirty table
type GormDirtyQueue struct {
	db *gorm.DB
}

// NewGormDirtyQueue creates a new GormDirtyQueue
func NewGormDirtyQueue(db *gorm.DB) *GormDirtyQueue {
	return &GormDirtyQueue{db: db}
}

// Mark queues competitors for recomputation. Already queued ones keep their
// original position.
func (q *GormDirtyQueue) Mark(ctx context.Context, campaignID uuid.UUID, refs ...competition.CompetitorRef) error {
	if len(refs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.ResultsDirtyModel, 0, len(refs))
	seen := make(map[competition.CompetitorRef]bool, len(refs))
	for _, ref := range refs {
		if ref.ID == uuid.Nil || seen[ref] {
			continue
		}
		seen[ref] = true
		rows = append(rows, models.ResultsDirtyModel{Kind: ref.Kind, CompetitorID: ref.ID, CampaignID: campaignID, MarkedAt: now})
	}
	if len(rows) == 0 {
		return nil
	}
	return conn(ctx, q.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "competitor_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

// Pop removes and returns up to limit of the oldest entries. Rows locked by
// another worker are skipped.
func (q *GormDirtyQueue) Pop(ctx context.Context, limit int) ([]competition.DirtyEntry, error) {
	var entries []competition.DirtyEntry
	err := NewTransactor(q.db).InTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, q.db)
		var rows []models.ResultsDirtyModel
		if err := db.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Order("marked_at ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			if err := db.
				Where("kind = ? AND competitor_id = ?", rows[i].Kind, rows[i].CompetitorID).
				Delete(&models.ResultsDirtyModel{}).Error; err != nil {
				return err
			}
			entries = append(entries, rows[i].ToDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
