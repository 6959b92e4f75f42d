package models

import (
	"strings"

	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AddressColumns is the embedded postal address of companies and subsidiaries
type AddressColumns struct {
	Recipient    string `gorm:"column:address_recipient;type:varchar(50)"`
	Street       string `gorm:"column:address_street;type:varchar(50)"`
	StreetNumber string `gorm:"column:address_street_number;type:varchar(10)"`
	City         string `gorm:"column:address_city;type:varchar(50)"`
	PSC          string `gorm:"column:address_psc;type:varchar(6)"`
}

func addressColumns(a valueobject.Address) AddressColumns {
	return AddressColumns{
		Recipient:    a.Recipient(),
		Street:       a.Street(),
		StreetNumber: a.StreetNumber(),
		City:         a.City(),
		PSC:          a.PSC(),
	}
}

// ToDomain restores the address value object
func (a AddressColumns) ToDomain() valueobject.Address {
	return valueobject.RestoreAddress(a.Recipient, a.Street, a.StreetNumber, a.City, a.PSC)
}

// CompanyModel is the persistence model for the Company aggregate.
type CompanyModel struct {
	AggregateModel
	Name           string         `gorm:"type:varchar(60);not null"`
	NameNormalized string         `gorm:"type:varchar(60);not null;uniqueIndex"`
	ICO            *string        `gorm:"type:varchar(8);uniqueIndex"`
	DIC            string         `gorm:"type:varchar(15)"`
	Address        AddressColumns `gorm:"embedded"`
	Active         bool           `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *organization.Company {
	c := &organization.Company{
		BaseAggregateRoot: m.Aggregate(),
		Name:              m.Name,
		DIC:               m.DIC,
		Address:           m.Address.ToDomain(),
		Active:            m.Active,
	}
	if m.ICO != nil {
		c.ICO = *m.ICO
	}
	return c
}

// FromDomain populates the persistence model from a domain Company.
func (m *CompanyModel) FromDomain(c *organization.Company) {
	m.SetAggregate(c.BaseAggregateRoot)
	m.Name = c.Name
	m.NameNormalized = c.NormalizedName()
	m.ICO = nil
	if ico := strings.TrimSpace(c.ICO); ico != "" {
		m.ICO = &ico
	}
	m.DIC = c.DIC
	m.Address = addressColumns(c.Address)
	m.Active = c.Active
}

// CompanyModelFromDomain creates a new persistence model from a domain Company.
func CompanyModelFromDomain(c *organization.Company) *CompanyModel {
	m := &CompanyModel{}
	m.FromDomain(c)
	return m
}

// SubsidiaryModel is the persistence model for subsidiaries
type SubsidiaryModel struct {
	BaseModel
	CompanyID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	CityID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Address      AddressColumns `gorm:"embedded"`
	BoxAddressee string         `gorm:"type:varchar(100)"`
	BoxTelephone string         `gorm:"type:varchar(30)"`
	BoxEmail     string         `gorm:"type:varchar(200)"`
	Active       bool           `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SubsidiaryModel) TableName() string {
	return "subsidiaries"
}

// ToDomain converts the persistence model to a domain Subsidiary.
func (m *SubsidiaryModel) ToDomain() *organization.Subsidiary {
	return &organization.Subsidiary{
		BaseEntity: m.BaseModel.Entity(),
		CompanyID:  m.CompanyID,
		CityID:     m.CityID,
		Address:    m.Address.ToDomain(),
		BoxAddressee: organization.BoxAddressee{
			Name:      m.BoxAddressee,
			Telephone: m.BoxTelephone,
			Email:     m.BoxEmail,
		},
		Active: m.Active,
	}
}

// SubsidiaryModelFromDomain creates a new persistence model from a domain Subsidiary.
func SubsidiaryModelFromDomain(s *organization.Subsidiary) *SubsidiaryModel {
	m := &SubsidiaryModel{
		CompanyID:    s.CompanyID,
		CityID:       s.CityID,
		Address:      addressColumns(s.Address),
		BoxAddressee: s.BoxAddressee.Name,
		BoxTelephone: s.BoxAddressee.Telephone,
		BoxEmail:     s.BoxAddressee.Email,
		Active:       s.Active,
	}
	m.SetEntity(s.BaseEntity)
	return m
}

// TeamModel is the persistence model for the Team aggregate.
type TeamModel struct {
	CampaignAggregateModel
	SubsidiaryID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Name                  string    `gorm:"type:varchar(50);not null"`
	NameNormalized        string    `gorm:"type:varchar(50);not null;index"`
	InvitationToken       string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	MemberCount           int       `gorm:"not null;default:0"`
	UnapprovedMemberCount int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TeamModel) TableName() string {
	return "teams"
}

// ToDomain converts the persistence model to a domain Team.
func (m *TeamModel) ToDomain() *organization.Team {
	return &organization.Team{
		CampaignAggregateRoot: m.CampaignAggregate(),
		SubsidiaryID:          m.SubsidiaryID,
		Name:                  m.Name,
		InvitationToken:       m.InvitationToken,
		MemberCount:           m.MemberCount,
		UnapprovedMemberCount: m.UnapprovedMemberCount,
	}
}

// FromDomain populates the persistence model from a domain Team.
func (m *TeamModel) FromDomain(t *organization.Team) {
	m.SetCampaignAggregate(t.CampaignAggregateRoot)
	m.SubsidiaryID = t.SubsidiaryID
	m.Name = t.Name
	m.NameNormalized = organization.NormalizeName(t.Name)
	m.InvitationToken = t.InvitationToken
	m.MemberCount = t.MemberCount
	m.UnapprovedMemberCount = t.UnapprovedMemberCount
}

// TeamModelFromDomain creates a new persistence model from a domain Team.
func TeamModelFromDomain(t *organization.Team) *TeamModel {
	m := &TeamModel{}
	m.FromDomain(t)
	return m
}

// CompanyAdminModel is the persistence model for company admins
type CompanyAdminModel struct {
	CampaignAggregateModel
	UserID             uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CompanyID          uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Approved           organization.ApprovalState `gorm:"type:varchar(16);not null;default:'undecided'"`
	CanConfirmPayments bool                       `gorm:"not null;default:true"`
	Note               string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CompanyAdminModel) TableName() string {
	return "company_admins"
}

// ToDomain converts the persistence model to a domain CompanyAdmin.
func (m *CompanyAdminModel) ToDomain() *organization.CompanyAdmin {
	return &organization.CompanyAdmin{
		CampaignAggregateRoot: m.CampaignAggregate(),
		UserID:                m.UserID,
		CompanyID:             m.CompanyID,
		Approved:              m.Approved,
		CanConfirmPayments:    m.CanConfirmPayments,
		Note:                  m.Note,
	}
}

// CompanyAdminModelFromDomain creates a new persistence model from a domain CompanyAdmin.
func CompanyAdminModelFromDomain(a *organization.CompanyAdmin) *CompanyAdminModel {
	m := &CompanyAdminModel{
		UserID:             a.UserID,
		CompanyID:          a.CompanyID,
		Approved:           a.Approved,
		CanConfirmPayments: a.CanConfirmPayments,
		Note:               a.Note,
	}
	m.SetCampaignAggregate(a.CampaignAggregateRoot)
	return m
}
