package organization

import (
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddressInput is the postal address of a request body
type AddressInput struct {
	Recipient    string `json:"recipient"`
	Street       string `json:"street" binding:"required"`
	StreetNumber string `json:"street_number" binding:"required"`
	City         string `json:"city" binding:"required"`
	PSC          string `json:"psc" binding:"required"`
}

// ToAddress validates the input and builds the address value
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(a.Street, a.StreetNumber, a.City, a.PSC, valueobject.WithRecipient(a.Recipient))
}

// AddressResponse is the postal address of a response
type AddressResponse struct {
	Recipient    string `json:"recipient,omitempty"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	City         string `json:"city"`
	PSC          string `json:"psc"`
}

func addressResponse(a valueobject.Address) AddressResponse {
	return AddressResponse{
		Recipient:    a.Recipient(),
		Street:       a.Street(),
		StreetNumber: a.StreetNumber(),
		City:         a.City(),
		PSC:          a.FormattedPSC(),
	}
}

// CreateCompanyInput contains the fields of a new company
type CreateCompanyInput struct {
	Name    string       `json:"name" binding:"required,max=60"`
	ICO     string       `json:"ico"`
	DIC     string       `json:"dic" binding:"max=15"`
	Address AddressInput `json:"address" binding:"required"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	ICO     string          `json:"ico,omitempty"`
	DIC     string          `json:"dic,omitempty"`
	Address AddressResponse `json:"address"`
}

// ToCompanyResponse converts a domain company
func ToCompanyResponse(c *organization.Company) CompanyResponse {
	return CompanyResponse{
		ID:      c.ID,
		Name:    c.Name,
		ICO:     c.ICO,
		DIC:     c.DIC,
		Address: addressResponse(c.Address),
	}
}

// BoxAddresseeInput is the contact person receiving packages
type BoxAddresseeInput struct {
	Name      string `json:"name"`
	Telephone string `json:"telephone"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// CreateSubsidiaryInput contains the fields of a new subsidiary
type CreateSubsidiaryInput struct {
	CompanyID    uuid.UUID         `json:"company_id" binding:"required"`
	CityID       uuid.UUID         `json:"city_id" binding:"required"`
	Address      AddressInput      `json:"address" binding:"required"`
	BoxAddressee BoxAddresseeInput `json:"box_addressee"`
}

// SubsidiaryResponse represents a subsidiary in API responses
type SubsidiaryResponse struct {
	ID        uuid.UUID       `json:"id"`
	CompanyID uuid.UUID       `json:"company_id"`
	CityID    uuid.UUID       `json:"city_id"`
	Address   AddressResponse `json:"address"`
	Active    bool            `json:"active"`
}

// ToSubsidiaryResponse converts a domain subsidiary
func ToSubsidiaryResponse(s *organization.Subsidiary) SubsidiaryResponse {
	return SubsidiaryResponse{
		ID:        s.ID,
		CompanyID: s.CompanyID,
		CityID:    s.CityID,
		Address:   addressResponse(s.Address),
		Active:    s.Active,
	}
}

// CreateTeamInput contains the fields of a new team
type CreateTeamInput struct {
	SubsidiaryID uuid.UUID `json:"subsidiary_id" binding:"required"`
	Name         string    `json:"name" binding:"required,max=50"`
}

// JoinTeamInput selects a team either by id or by invitation token
type JoinTeamInput struct {
	TeamID          *uuid.UUID `json:"team_id"`
	InvitationToken string     `json:"invitation_token"`
}

// TeamFilter narrows team listings
type TeamFilter struct {
	shared.Filter
	SubsidiaryID *uuid.UUID
}

// TeamResponse represents a team in API responses. The invitation token is
// only filled in for members of the team.
type TeamResponse struct {
	ID                    uuid.UUID `json:"id"`
	SubsidiaryID          uuid.UUID `json:"subsidiary_id"`
	Name                  string    `json:"name"`
	MemberCount           int       `json:"member_count"`
	UnapprovedMemberCount int       `json:"unapproved_member_count"`
	FreeSlots             int       `json:"free_slots"`
	InvitationToken       string    `json:"invitation_token,omitempty"`
}

// ToTeamResponse converts a domain team
func ToTeamResponse(t *organization.Team, maxMembers int) TeamResponse {
	return TeamResponse{
		ID:                    t.ID,
		SubsidiaryID:          t.SubsidiaryID,
		Name:                  t.Name,
		MemberCount:           t.MemberCount,
		UnapprovedMemberCount: t.UnapprovedMemberCount,
		FreeSlots:             t.FreeSlots(maxMembers),
	}
}

// MemberResponse is a team member as seen by colleagues
type MemberResponse struct {
	AttendanceID uuid.UUID                  `json:"user_attendance_id"`
	Name         string                     `json:"name"`
	Approved     organization.ApprovalState `json:"approved"`
	TripLength   decimal.Decimal            `json:"trip_length_total"`
	Frequency    decimal.Decimal            `json:"frequency"`
}

// TeamDetail is the team of the current user with its members
type TeamDetail struct {
	TeamResponse
	Members []MemberResponse `json:"members"`
}

// InviteInput lists e-mail addresses to send the team invitation to
type InviteInput struct {
	Emails []string `json:"emails" binding:"required,min=1,max=10,dive,email"`
}

// CompanyAdminResponse represents a company admin request
type CompanyAdminResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	UserID             uuid.UUID                  `json:"user_id"`
	CompanyID          uuid.UUID                  `json:"company_id"`
	Approved           organization.ApprovalState `json:"approved"`
	CanConfirmPayments bool                       `json:"can_confirm_payments"`
}

// ToCompanyAdminResponse converts a domain company admin
func ToCompanyAdminResponse(a *organization.CompanyAdmin) CompanyAdminResponse {
	return CompanyAdminResponse{
		ID:                 a.ID,
		UserID:             a.UserID,
		CompanyID:          a.CompanyID,
		Approved:           a.Approved,
		CanConfirmPayments: a.CanConfirmPayments,
	}
}
