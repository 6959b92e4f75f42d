package competition

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompetitionRepository defines persistence operations for competitions
type CompetitionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Competition, error)
	FindBySlug(ctx context.Context, campaignID uuid.UUID, slug string) (*Competition, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Competition, error)
	Save(ctx context.Context, competition *Competition) error
}

// ResultRepository defines persistence operations for competition results
type ResultRepository interface {
	// FindByCompetition lists results ordered by result descending
	FindByCompetition(ctx context.Context, competitionID uuid.UUID, filter shared.Filter) ([]Result, int64, error)

	// FindAllByCompetition returns every result, used for ranking
	FindAllByCompetition(ctx context.Context, competitionID uuid.UUID) ([]Result, error)
	FindForCompetitor(ctx context.Context, competitionID uuid.UUID, ref CompetitorRef) (*Result, error)
	FindByCompetitor(ctx context.Context, ref CompetitorRef) ([]Result, error)

	// Upsert creates or replaces the result of the competitor
	Upsert(ctx context.Context, result *Result) error
	DeleteForCompetitor(ctx context.Context, competitionID uuid.UUID, ref CompetitorRef) error

	// CountBetter returns how many results are strictly better and equal to value
	CountBetter(ctx context.Context, competitionID uuid.UUID, result *Result) (better int, equal int, err error)
}

// QuestionRepository defines persistence operations for questions
type QuestionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Question, error)
	FindByCompetition(ctx context.Context, competitionID uuid.UUID) ([]Question, error)
	Save(ctx context.Context, question *Question) error
}

// AnswerRepository defines persistence operations for answers
type AnswerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Answer, error)
	FindByQuestion(ctx context.Context, questionID, userAttendanceID uuid.UUID) (*Answer, error)

	// FindByAttendances returns the answers of the participants in the competition
	FindByAttendances(ctx context.Context, competitionID uuid.UUID, userAttendanceIDs []uuid.UUID) ([]Answer, error)
	Save(ctx context.Context, answer *Answer) error
}
