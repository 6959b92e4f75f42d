package organization

import (
	"context"
	"errors"
	"strings"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService registers employers and their sites, and handles company
// admin requests
type CompanyService struct {
	companies    organization.CompanyRepository
	subsidiaries organization.SubsidiaryRepository
	admins       organization.CompanyAdminRepository
	cities       campaign.CityRepository
	logger       *zap.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companies organization.CompanyRepository,
	subsidiaries organization.SubsidiaryRepository,
	admins organization.CompanyAdminRepository,
	cities campaign.CityRepository,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		companies:    companies,
		subsidiaries: subsidiaries,
		admins:       admins,
		cities:       cities,
		logger:       logger,
	}
}

// CreateCompany registers a company. Names are unique case-insensitively and
// so are non-empty ICO numbers.
func (s *CompanyService) CreateCompany(ctx context.Context, input CreateCompanyInput) (*CompanyResponse, error) {
	addr, err := input.Address.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, err.Error())
	}
	company, err := organization.NewCompany(input.Name, input.ICO, input.DIC, addr)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, company); err != nil {
		return nil, err
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info("Company created",
		zap.String("company_id", company.ID.String()),
		zap.String("name", company.Name))

	resp := ToCompanyResponse(company)
	return &resp, nil
}

func (s *CompanyService) ensureUnique(ctx context.Context, company *organization.Company) error {
	_, err := s.companies.FindByName(ctx, company.Name)
	if err == nil {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "A company with this name already exists")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if company.ICO == "" {
		return nil
	}
	_, err = s.companies.FindByICO(ctx, company.ICO)
	if err == nil {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "A company with this ICO already exists")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}

// ListCompanies searches companies by name
func (s *CompanyService) ListCompanies(ctx context.Context, filter shared.Filter) (shared.Paginated[CompanyResponse], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	companies, total, err := s.companies.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[CompanyResponse]{}, err
	}
	items := make([]CompanyResponse, len(companies))
	for i := range companies {
		items[i] = ToCompanyResponse(&companies[i])
	}
	return shared.NewPaginated(items, total, filter), nil
}

// CreateSubsidiary adds a site of an existing company in a city taking part
// in campaignID
func (s *CompanyService) CreateSubsidiary(ctx context.Context, campaignID uuid.UUID, input CreateSubsidiaryInput) (*SubsidiaryResponse, error) {
	if _, err := s.companies.FindByID(ctx, input.CompanyID); err != nil {
		return nil, err
	}
	city, err := s.cities.FindByID(ctx, input.CityID)
	if err != nil {
		return nil, err
	}
	if !city.InCampaign(campaignID) {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "The city does not take part in this campaign")
	}
	addr, err := input.Address.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, err.Error())
	}

	sub, err := organization.NewSubsidiary(input.CompanyID, city.ID, addr)
	if err != nil {
		return nil, err
	}
	sub.BoxAddressee = organization.BoxAddressee{
		Name:      strings.TrimSpace(input.BoxAddressee.Name),
		Telephone: strings.TrimSpace(input.BoxAddressee.Telephone),
		Email:     strings.TrimSpace(input.BoxAddressee.Email),
	}
	if err := s.subsidiaries.Save(ctx, sub); err != nil {
		return nil, err
	}

	resp := ToSubsidiaryResponse(sub)
	return &resp, nil
}

// ListSubsidiaries returns the active sites of a company
func (s *CompanyService) ListSubsidiaries(ctx context.Context, companyID uuid.UUID) ([]SubsidiaryResponse, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	subs, err := s.subsidiaries.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items := make([]SubsidiaryResponse, 0, len(subs))
	for i := range subs {
		if subs[i].Active {
			items = append(items, ToSubsidiaryResponse(&subs[i]))
		}
	}
	return items, nil
}

// RequestCompanyAdmin records an undecided request of userID to administer
// companyID in campaignID
func (s *CompanyService) RequestCompanyAdmin(ctx context.Context, campaignID, userID, companyID uuid.UUID) (*CompanyAdminResponse, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	existing, err := s.admins.FindByUser(ctx, campaignID, userID)
	if err == nil {
		if existing.CompanyID != companyID {
			return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "You already administer another company")
		}
		resp := ToCompanyAdminResponse(existing)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	admin := organization.NewCompanyAdmin(campaignID, userID, companyID)
	if err := s.admins.Save(ctx, admin); err != nil {
		return nil, err
	}
	resp := ToCompanyAdminResponse(admin)
	return &resp, nil
}

// DecideCompanyAdmin approves or denies the request of userID
func (s *CompanyService) DecideCompanyAdmin(ctx context.Context, campaignID, userID uuid.UUID, state organization.ApprovalState) (*CompanyAdminResponse, error) {
	admin, err := s.admins.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if err := admin.Decide(state); err != nil {
		return nil, err
	}
	if err := s.admins.Save(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("Company admin decided",
		zap.String("user_id", userID.String()),
		zap.String("company_id", admin.CompanyID.String()),
		zap.String("state", string(state)))

	resp := ToCompanyAdminResponse(admin)
	return &resp, nil
}

// ManagedCompany returns the company userID may manage payments for
func (s *CompanyService) ManagedCompany(ctx context.Context, campaignID, userID uuid.UUID) (*organization.CompanyAdmin, error) {
	admin, err := s.admins.FindByUser(ctx, campaignID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You are not a company admin")
	}
	if err != nil {
		return nil, err
	}
	if !admin.CanManagePayments() {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Your company admin request is not approved")
	}
	return admin, nil
}
