package organization

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository defines persistence operations for companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindByName matches the name case-insensitively
	FindByName(ctx context.Context, name string) (*Company, error)
	FindByICO(ctx context.Context, ico string) (*Company, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Company, int64, error)
	Save(ctx context.Context, company *Company) error
}

// SubsidiaryRepository defines persistence operations for subsidiaries
type SubsidiaryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subsidiary, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Subsidiary, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Subsidiary, error)
	Save(ctx context.Context, subsidiary *Subsidiary) error
}

// TeamRepository defines persistence operations for teams
type TeamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Team, error)
	FindByInvitationToken(ctx context.Context, token string) (*Team, error)
	FindByName(ctx context.Context, campaignID uuid.UUID, name string) (*Team, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]Team, int64, error)
	FindBySubsidiary(ctx context.Context, campaignID, subsidiaryID uuid.UUID) ([]Team, error)

	// FindByIDForUpdate locks the team row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Team, error)
	Save(ctx context.Context, team *Team) error
}

// CompanyAdminRepository defines persistence operations for company admins
type CompanyAdminRepository interface {
	FindByUser(ctx context.Context, campaignID, userID uuid.UUID) (*CompanyAdmin, error)
	FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]CompanyAdmin, error)
	Save(ctx context.Context, admin *CompanyAdmin) error
}
