package organization

import (
	"regexp"
	"strings"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

var icoPattern = regexp.MustCompile(`^\d{8}$`)

// ApprovalState is the decision about a team member or a company admin
type ApprovalState string

const (
	ApprovalUndecided ApprovalState = "undecided"
	ApprovalApproved  ApprovalState = "approved"
	ApprovalDenied    ApprovalState = "denied"
)

// IsValid returns true if the state is known
func (s ApprovalState) IsValid() bool {
	return s == ApprovalUndecided || s == ApprovalApproved || s == ApprovalDenied
}

// Company is an employer whose employees commute in the challenge
type Company struct {
	shared.BaseAggregateRoot
	Name    string
	ICO     string
	DIC     string
	Address valueobject.Address
	Active  bool
}

// NewCompany creates an active company. An empty ico is allowed.
func NewCompany(name, ico, dic string, address valueobject.Address) (*Company, error) {
	c := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Address:           address,
		Active:            true,
	}
	if err := c.Update(name, ico, dic, address); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the company details
func (c *Company) Update(name, ico, dic string, address valueobject.Address) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "company name cannot be empty")
	}
	if len(name) > 60 {
		return shared.NewDomainError("INVALID_INPUT", "company name cannot exceed 60 characters")
	}
	normalized, err := NormalizeICO(ico)
	if err != nil {
		return err
	}
	c.Name = name
	c.ICO = normalized
	c.DIC = strings.ToUpper(strings.ReplaceAll(dic, " ", ""))
	c.Address = address
	c.IncrementVersion()
	return nil
}

// NormalizedName is used for the case-insensitive uniqueness check
func (c *Company) NormalizedName() string {
	return NormalizeName(c.Name)
}

// NormalizeName lowercases and collapses spaces of a company or team name
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeICO strips spaces, left-pads short numbers with zeros and checks
// the mod 11 check digit of the Czech business id.
func NormalizeICO(ico string) (string, error) {
	ico = strings.ReplaceAll(strings.TrimSpace(ico), " ", "")
	if ico == "" {
		return "", nil
	}
	if len(ico) < 8 {
		ico = strings.Repeat("0", 8-len(ico)) + ico
	}
	if !icoPattern.MatchString(ico) {
		return "", shared.NewDomainError("INVALID_INPUT", "ICO must have 8 digits")
	}
	if !icoChecksumValid(ico) {
		return "", shared.NewDomainError("INVALID_INPUT", "ICO check digit does not match")
	}
	return ico, nil
}

func icoChecksumValid(ico string) bool {
	sum := 0
	for i := 0; i < 7; i++ {
		sum += int(ico[i]-'0') * (8 - i)
	}
	check := (11 - sum%11) % 10
	return int(ico[7]-'0') == check
}

// BoxAddressee is the contact person that receives packages for a subsidiary
type BoxAddressee struct {
	Name      string
	Telephone string
	Email     string
}

// Subsidiary is a company site in a city; teams are formed per subsidiary
type Subsidiary struct {
	shared.BaseEntity
	CompanyID    uuid.UUID
	CityID       uuid.UUID
	Address      valueobject.Address
	BoxAddressee BoxAddressee
	Active       bool
}

// NewSubsidiary creates an active subsidiary
func NewSubsidiary(companyID, cityID uuid.UUID, address valueobject.Address) (*Subsidiary, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "subsidiary must belong to a company")
	}
	if cityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "subsidiary must be in a city")
	}
	if address.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_INPUT", "subsidiary address cannot be empty")
	}
	return &Subsidiary{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		CityID:     cityID,
		Address:    address,
		Active:     true,
	}, nil
}

// Recipient returns the name used on package labels
func (s *Subsidiary) Recipient(companyName string) string {
	if s.BoxAddressee.Name != "" {
		return s.BoxAddressee.Name
	}
	if s.Address.Recipient() != "" {
		return s.Address.Recipient()
	}
	return companyName
}

// CompanyAdmin is a participant allowed to manage company-paid entries and
// invoices for one company in one campaign
type CompanyAdmin struct {
	shared.CampaignAggregateRoot
	UserID             uuid.UUID
	CompanyID          uuid.UUID
	Approved           ApprovalState
	CanConfirmPayments bool
	Note               string
}

// NewCompanyAdmin creates an undecided company admin request
func NewCompanyAdmin(campaignID, userID, companyID uuid.UUID) *CompanyAdmin {
	return &CompanyAdmin{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserID:                userID,
		CompanyID:             companyID,
		Approved:              ApprovalUndecided,
		CanConfirmPayments:    true,
	}
}

// Decide approves or denies the request
func (a *CompanyAdmin) Decide(state ApprovalState) error {
	if !state.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "unknown approval state")
	}
	a.Approved = state
	a.IncrementVersion()
	return nil
}

// CanManagePayments reports whether the admin may approve company-paid entries
func (a *CompanyAdmin) CanManagePayments() bool {
	return a.Approved == ApprovalApproved && a.CanConfirmPayments
}
