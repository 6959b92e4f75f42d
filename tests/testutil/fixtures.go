package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Today is the fixed "now" of fixture based tests: the tenth day of the
// competition phase
var Today = time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC)

// Now returns Today; assign it to a service clock
func Now() time.Time { return Today }

// Fixture is a seeded campaign with one city, company, subsidiary and two
// t-shirt sizes
type Fixture struct {
	Store      *Store
	Campaign   *campaign.Campaign
	City       *campaign.City
	Company    *organization.Company
	Subsidiary *organization.Subsidiary
	Sizes      []*campaign.TShirtSize
}

// Date returns a UTC midnight of May 2026
func Date(day int) time.Time {
	return time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC)
}

// NewFixture seeds a store. Registration runs March to May, the competition
// phase is May, the basic fee is 250 CZK and the company fee 200 CZK.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	ctx := context.Background()
	store := NewStore()

	c, err := campaign.NewCampaign("dpnk2026", "Do práce na kole 2026", 2026)
	require.NoError(t, err)
	setPhase(t, c, campaign.PhaseRegistration, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Date(31))
	setPhase(t, c, campaign.PhaseEntryEnabled, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Date(31))
	setPhase(t, c, campaign.PhasePayment, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Date(31))
	setPhase(t, c, campaign.PhaseCompetition, Date(1), Date(31))
	setPhase(t, c, campaign.PhaseInvoices, Date(1), time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, c.AddPriceLevel(campaign.PriceCategoryBasic, decimal.NewFromInt(250), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, c.AddPriceLevel(campaign.PriceCategoryCompany, decimal.NewFromInt(200), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	c.InvoiceSequenceFirst, c.InvoiceSequenceLast = 1, 999
	c.TrackingNumberFirst, c.TrackingNumberLast = 100000, 199999
	require.NoError(t, store.Campaigns().Save(ctx, c))

	city, err := campaign.NewCity("Praha", "praha")
	require.NoError(t, err)
	city.JoinCampaign(c.ID)
	require.NoError(t, store.Cities().Save(ctx, city))

	addr, err := valueobject.NewAddress("Vinohradská", "12", "Praha", "120 00")
	require.NoError(t, err)
	company, err := organization.NewCompany("Auto*Mat", "22670319", "", addr)
	require.NoError(t, err)
	require.NoError(t, store.Companies().Save(ctx, company))
	sub, err := organization.NewSubsidiary(company.ID, city.ID, addr)
	require.NoError(t, err)
	require.NoError(t, store.Subsidiaries().Save(ctx, sub))

	f := &Fixture{Store: store, Campaign: c, City: city, Company: company, Subsidiary: sub}
	for i, code := range []string{"M", "L"} {
		size, err := campaign.NewTShirtSize(c.ID, code, "Triko "+code, i)
		require.NoError(t, err)
		require.NoError(t, store.TShirtSizes().Save(ctx, size))
		f.Sizes = append(f.Sizes, size)
	}
	return f
}

func setPhase(t *testing.T, c *campaign.Campaign, typ campaign.PhaseType, from, to time.Time) {
	t.Helper()
	phase, err := campaign.NewPhase(typ, &from, &to)
	require.NoError(t, err)
	c.SetPhase(phase)
}

// AddTeam creates a team in the fixture subsidiary
func (f *Fixture) AddTeam(t *testing.T, name string) *organization.Team {
	t.Helper()
	team, err := organization.NewTeam(f.Campaign.ID, f.Subsidiary.ID, name)
	require.NoError(t, err)
	require.NoError(t, f.Store.Teams().Save(context.Background(), team))
	return team
}

// AddUser creates an account and its attendance without a team
func (f *Fixture) AddUser(t *testing.T, emailAddr string) (*identity.User, *attendance.UserAttendance) {
	t.Helper()
	ctx := context.Background()
	user, err := identity.NewUser(emailAddr, "Password123", "Jan", "Novák")
	require.NoError(t, err)
	user.ClearDomainEvents()
	require.NoError(t, f.Store.Users().Create(ctx, user))

	ua, err := attendance.NewUserAttendance(f.Campaign.ID, user.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.Store.Attendances().Save(ctx, ua))
	return user, ua
}

// AddMember creates a paid participant in team. approved decides the
// team approval state.
func (f *Fixture) AddMember(t *testing.T, team *organization.Team, emailAddr string, approved bool) (*identity.User, *attendance.UserAttendance) {
	t.Helper()
	user, ua := f.AddUser(t, emailAddr)
	teamID := team.ID
	ua.TeamID = &teamID
	ua.ApprovedForTeam = organization.ApprovalUndecided
	if approved {
		ua.ApprovedForTeam = organization.ApprovalApproved
	}
	ua.PaymentStatus = attendance.PaymentDone
	require.NoError(t, f.Store.Attendances().Save(context.Background(), ua))
	return user, ua
}

// Reload returns the stored version of an attendance
func (f *Fixture) Reload(t *testing.T, id uuid.UUID) *attendance.UserAttendance {
	t.Helper()
	ua, err := f.Store.Attendances().FindByID(context.Background(), id)
	require.NoError(t, err)
	return ua
}
