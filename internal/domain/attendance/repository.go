package attendance

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows attendance listings
type Filter struct {
	shared.Filter
	TeamID        *uuid.UUID
	CompanyID     *uuid.UUID
	CityID        *uuid.UUID
	PaymentStatus PaymentState
}

// UserAttendanceRepository defines persistence operations for attendances
type UserAttendanceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserAttendance, error)
	FindByUser(ctx context.Context, campaignID, userID uuid.UUID) (*UserAttendance, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]UserAttendance, error)

	// FindByTeam returns every attendance linked to the team, any approval state
	FindByTeam(ctx context.Context, teamID uuid.UUID) ([]UserAttendance, error)

	// FindByCompany returns approved team members of subsidiaries of the company
	FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]UserAttendance, error)
	FindAll(ctx context.Context, campaignID uuid.UUID, filter Filter) ([]UserAttendance, int64, error)

	// CountApprovedMembers counts approved members of the team, optionally
	// excluding one attendance
	CountApprovedMembers(ctx context.Context, teamID uuid.UUID, exclude *uuid.UUID) (int, error)
	Save(ctx context.Context, ua *UserAttendance) error
}
