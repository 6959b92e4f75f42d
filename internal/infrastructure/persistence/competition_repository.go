package persistence

import (
	"context"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompetitionRepository implements competition.CompetitionRepository using GORM
type GormCompetitionRepository struct {
	db *gorm.DB
}

// NewGormCompetitionRepository creates a new GormCompetitionRepository
func NewGormCompetitionRepository(db *gorm.DB) *GormCompetitionRepository {
	return &GormCompetitionRepository{db: db}
}

// FindByID finds a competition by ID
func (r *GormCompetitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*competition.Competition, error) {
	var model models.CompetitionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a competition by slug within a campaign
func (r *GormCompetitionRepository) FindBySlug(ctx context.Context, campaignID uuid.UUID, slug string) (*competition.Competition, error) {
	var model models.CompetitionModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("slug = ?", slug).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists the competitions of a campaign
func (r *GormCompetitionRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]competition.Competition, error) {
	var rows []models.CompetitionModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	competitions := make([]competition.Competition, 0, len(rows))
	for i := range rows {
		competitions = append(competitions, *rows[i].ToDomain())
	}
	return competitions, nil
}

// Save creates or updates a competition
func (r *GormCompetitionRepository) Save(ctx context.Context, c *competition.Competition) error {
	return conn(ctx, r.db).Save(models.CompetitionModelFromDomain(c)).Error
}

// GormQuestionRepository implements competition.QuestionRepository using GORM
type GormQuestionRepository struct {
	db *gorm.DB
}

// NewGormQuestionRepository creates a new GormQuestionRepository
func NewGormQuestionRepository(db *gorm.DB) *GormQuestionRepository {
	return &GormQuestionRepository{db: db}
}

// FindByID finds a question by ID
func (r *GormQuestionRepository) FindByID(ctx context.Context, id uuid.UUID) (*competition.Question, error) {
	var model models.QuestionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCompetition lists the questions of a questionnaire in order
func (r *GormQuestionRepository) FindByCompetition(ctx context.Context, competitionID uuid.UUID) ([]competition.Question, error) {
	var rows []models.QuestionModel
	if err := conn(ctx, r.db).
		Where("competition_id = ?", competitionID).
		Order("sort_order ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	questions := make([]competition.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, *rows[i].ToDomain())
	}
	return questions, nil
}

// Save creates or updates a question
func (r *GormQuestionRepository) Save(ctx context.Context, q *competition.Question) error {
	return conn(ctx, r.db).Save(models.QuestionModelFromDomain(q)).Error
}

// GormAnswerRepository implements competition.AnswerRepository using GORM
type GormAnswerRepository struct {
	db *gorm.DB
}

// NewGormAnswerRepository creates a new GormAnswerRepository
func NewGormAnswerRepository(db *gorm.DB) *GormAnswerRepository {
	return &GormAnswerRepository{db: db}
}

// FindByID finds an answer by ID
func (r *GormAnswerRepository) FindByID(ctx context.Context, id uuid.UUID) (*competition.Answer, error) {
	var model models.AnswerModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByQuestion finds the answer of a participant to a question
func (r *GormAnswerRepository) FindByQuestion(ctx context.Context, questionID, userAttendanceID uuid.UUID) (*competition.Answer, error) {
	var model models.AnswerModel
	if err := conn(ctx, r.db).
		Where("question_id = ? AND user_attendance_id = ?", questionID, userAttendanceID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAttendances returns the answers of the participants in the competition
func (r *GormAnswerRepository) FindByAttendances(ctx context.Context, competitionID uuid.UUID, userAttendanceIDs []uuid.UUID) ([]competition.Answer, error) {
	if len(userAttendanceIDs) == 0 {
		return []competition.Answer{}, nil
	}
	var rows []models.AnswerModel
	if err := conn(ctx, r.db).
		Where("competition_id = ? AND user_attendance_id IN ?", competitionID, userAttendanceIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	answers := make([]competition.Answer, 0, len(rows))
	for i := range rows {
		answers = append(answers, *rows[i].ToDomain())
	}
	return answers, nil
}

// Save creates or updates an answer
func (r *GormAnswerRepository) Save(ctx context.Context, a *competition.Answer) error {
	return conn(ctx, r.db).Save(models.AnswerModelFromDomain(a)).Error
}
