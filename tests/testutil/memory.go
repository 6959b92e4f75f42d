package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/invoice"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/google/uuid"
)

// Store is an in-memory stand-in for the database used by application
// service tests. Every repository view shares one lock and one set of maps.
type Store struct {
	mu sync.Mutex

	campaigns    map[uuid.UUID]campaign.Campaign
	sizes        map[uuid.UUID]campaign.TShirtSize
	cities       map[uuid.UUID]campaign.City
	companies    map[uuid.UUID]organization.Company
	subsidiaries map[uuid.UUID]organization.Subsidiary
	teams        map[uuid.UUID]organization.Team
	admins       map[uuid.UUID]organization.CompanyAdmin
	attendances  map[uuid.UUID]attendance.UserAttendance
	users        map[uuid.UUID]identity.User
	trips        map[uuid.UUID]trip.Trip
	competitions map[uuid.UUID]competition.Competition
	results      map[uuid.UUID]competition.Result
	questions    map[uuid.UUID]competition.Question
	answers      map[uuid.UUID]competition.Answer
	dirty        []competition.DirtyEntry
	payments     map[uuid.UUID]payment.Payment
	common       map[uuid.UUID]payment.CommonTransaction
	invoices     map[uuid.UUID]invoice.Invoice
	packages     map[uuid.UUID]delivery.PackageTransaction
	batches      map[uuid.UUID]delivery.Batch
	coupons      map[uuid.UUID]voucher.DiscountCoupon
	vouchers     map[uuid.UUID]voucher.Voucher

	Publisher *RecordingPublisher
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		campaigns:    make(map[uuid.UUID]campaign.Campaign),
		sizes:        make(map[uuid.UUID]campaign.TShirtSize),
		cities:       make(map[uuid.UUID]campaign.City),
		companies:    make(map[uuid.UUID]organization.Company),
		subsidiaries: make(map[uuid.UUID]organization.Subsidiary),
		teams:        make(map[uuid.UUID]organization.Team),
		admins:       make(map[uuid.UUID]organization.CompanyAdmin),
		attendances:  make(map[uuid.UUID]attendance.UserAttendance),
		users:        make(map[uuid.UUID]identity.User),
		trips:        make(map[uuid.UUID]trip.Trip),
		competitions: make(map[uuid.UUID]competition.Competition),
		results:      make(map[uuid.UUID]competition.Result),
		questions:    make(map[uuid.UUID]competition.Question),
		answers:      make(map[uuid.UUID]competition.Answer),
		payments:     make(map[uuid.UUID]payment.Payment),
		common:       make(map[uuid.UUID]payment.CommonTransaction),
		invoices:     make(map[uuid.UUID]invoice.Invoice),
		packages:     make(map[uuid.UUID]delivery.PackageTransaction),
		batches:      make(map[uuid.UUID]delivery.Batch),
		coupons:      make(map[uuid.UUID]voucher.DiscountCoupon),
		vouchers:     make(map[uuid.UUID]voucher.Voucher),
		Publisher:    NewRecordingPublisher(),
	}
}

// InTx runs fn directly; the store has no rollback
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func page[T any](items []T, filter shared.Filter) []T {
	if filter.PageSize <= 0 {
		return items
	}
	from := filter.Offset()
	if from >= len(items) {
		return nil
	}
	to := from + filter.PageSize
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

// Campaigns returns the campaign repository view
func (s *Store) Campaigns() campaign.CampaignRepository { return (*campaignRepo)(s) }

// TShirtSizes returns the t-shirt size repository view
func (s *Store) TShirtSizes() campaign.TShirtSizeRepository { return (*sizeRepo)(s) }

// Cities returns the city repository view
func (s *Store) Cities() campaign.CityRepository { return (*cityRepo)(s) }

// Companies returns the company repository view
func (s *Store) Companies() organization.CompanyRepository { return (*companyRepo)(s) }

// Subsidiaries returns the subsidiary repository view
func (s *Store) Subsidiaries() organization.SubsidiaryRepository { return (*subsidiaryRepo)(s) }

// Teams returns the team repository view
func (s *Store) Teams() organization.TeamRepository { return (*teamRepo)(s) }

// CompanyAdmins returns the company admin repository view
func (s *Store) CompanyAdmins() organization.CompanyAdminRepository { return (*adminRepo)(s) }

// Attendances returns the attendance repository view
func (s *Store) Attendances() attendance.UserAttendanceRepository { return (*attendanceRepo)(s) }

// Users returns the user repository view
func (s *Store) Users() identity.UserRepository { return (*userRepo)(s) }

// Trips returns the trip repository view
func (s *Store) Trips() trip.TripRepository { return (*tripRepo)(s) }

// Competitions returns the competition repository view
func (s *Store) Competitions() competition.CompetitionRepository { return (*competitionRepo)(s) }

// Results returns the result repository view
func (s *Store) Results() competition.ResultRepository { return (*resultRepo)(s) }

// Questions returns the question repository view
func (s *Store) Questions() competition.QuestionRepository { return (*questionRepo)(s) }

// Answers returns the answer repository view
func (s *Store) Answers() competition.AnswerRepository { return (*answerRepo)(s) }

// DirtyQueue returns the dirty queue view
func (s *Store) DirtyQueue() competition.DirtyQueue { return (*dirtyQueue)(s) }

// Payments returns the payment repository view
func (s *Store) Payments() payment.PaymentRepository { return (*paymentRepo)(s) }

// CommonTransactions returns the manual transaction repository view
func (s *Store) CommonTransactions() payment.CommonTransactionRepository { return (*commonRepo)(s) }

// Invoices returns the invoice repository view
func (s *Store) Invoices() invoice.InvoiceRepository { return (*invoiceRepo)(s) }

// Packages returns the package repository view
func (s *Store) Packages() delivery.PackageRepository { return (*packageRepo)(s) }

// Batches returns the delivery batch repository view
func (s *Store) Batches() delivery.BatchRepository { return (*batchRepo)(s) }

// Coupons returns the coupon repository view
func (s *Store) Coupons() voucher.CouponRepository { return (*couponRepo)(s) }

// Vouchers returns the voucher repository view
func (s *Store) Vouchers() voucher.VoucherRepository { return (*voucherRepo)(s) }

// DirtyEntries returns a copy of the queued dirty competitors
func (s *Store) DirtyEntries() []competition.DirtyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]competition.DirtyEntry(nil), s.dirty...)
}

func get[T any](s *Store, m map[uuid.UUID]T, id uuid.UUID) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := m[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func first[T any](s *Store, m map[uuid.UUID]T, match func(*T) bool) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range m {
		if match(&v) {
			return &v, nil
		}
	}
	return nil, shared.ErrNotFound
}

func all[T any](s *Store, m map[uuid.UUID]T, match func(*T) bool, less func(a, b *T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0)
	for _, v := range m {
		if match(&v) {
			out = append(out, v)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	}
	return out
}

// put stores a copy of v without its pending domain events, like a
// database row
func put[T any](s *Store, m map[uuid.UUID]T, id uuid.UUID, v T) {
	if root, ok := any(&v).(interface{ ClearDomainEvents() }); ok {
		root.ClearDomainEvents()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m[id] = v
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type campaignRepo Store

func (r *campaignRepo) FindByID(_ context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	s := (*Store)(r)
	return get(s, s.campaigns, id)
}

func (r *campaignRepo) FindBySlug(_ context.Context, slug string) (*campaign.Campaign, error) {
	s := (*Store)(r)
	return first(s, s.campaigns, func(c *campaign.Campaign) bool { return c.Slug == slug })
}

func (r *campaignRepo) FindActive(_ context.Context) ([]campaign.Campaign, error) {
	s := (*Store)(r)
	return all(s, s.campaigns, func(c *campaign.Campaign) bool { return c.Active }, nil), nil
}

func (r *campaignRepo) Save(_ context.Context, c *campaign.Campaign) error {
	s := (*Store)(r)
	put(s, s.campaigns, c.ID, *c)
	return nil
}

type sizeRepo Store

func (r *sizeRepo) FindByID(_ context.Context, id uuid.UUID) (*campaign.TShirtSize, error) {
	s := (*Store)(r)
	return get(s, s.sizes, id)
}

func (r *sizeRepo) FindByCampaign(_ context.Context, campaignID uuid.UUID) ([]campaign.TShirtSize, error) {
	s := (*Store)(r)
	return all(s, s.sizes,
		func(v *campaign.TShirtSize) bool { return v.CampaignID == campaignID },
		func(a, b *campaign.TShirtSize) bool { return a.Order < b.Order },
	), nil
}

func (r *sizeRepo) Save(_ context.Context, size *campaign.TShirtSize) error {
	s := (*Store)(r)
	put(s, s.sizes, size.ID, *size)
	return nil
}

type cityRepo Store

func (r *cityRepo) FindByID(_ context.Context, id uuid.UUID) (*campaign.City, error) {
	s := (*Store)(r)
	return get(s, s.cities, id)
}

func (r *cityRepo) FindBySlug(_ context.Context, slug string) (*campaign.City, error) {
	s := (*Store)(r)
	return first(s, s.cities, func(c *campaign.City) bool { return c.Slug == slug })
}

func (r *cityRepo) FindByCampaign(_ context.Context, campaignID uuid.UUID) ([]campaign.City, error) {
	s := (*Store)(r)
	return all(s, s.cities,
		func(c *campaign.City) bool { return c.InCampaign(campaignID) },
		func(a, b *campaign.City) bool { return a.Name < b.Name },
	), nil
}

func (r *cityRepo) Save(_ context.Context, city *campaign.City) error {
	s := (*Store)(r)
	put(s, s.cities, city.ID, *city)
	return nil
}

type companyRepo Store

func (r *companyRepo) FindByID(_ context.Context, id uuid.UUID) (*organization.Company, error) {
	s := (*Store)(r)
	return get(s, s.companies, id)
}

func (r *companyRepo) FindByName(_ context.Context, name string) (*organization.Company, error) {
	s := (*Store)(r)
	normalized := organization.NormalizeName(name)
	return first(s, s.companies, func(c *organization.Company) bool { return c.NormalizedName() == normalized })
}

func (r *companyRepo) FindByICO(_ context.Context, ico string) (*organization.Company, error) {
	s := (*Store)(r)
	return first(s, s.companies, func(c *organization.Company) bool { return ico != "" && c.ICO == ico })
}

func (r *companyRepo) FindAll(_ context.Context, filter shared.Filter) ([]organization.Company, int64, error) {
	s := (*Store)(r)
	search := strings.ToLower(filter.Search)
	items := all(s, s.companies,
		func(c *organization.Company) bool { return strings.Contains(strings.ToLower(c.Name), search) },
		func(a, b *organization.Company) bool { return a.Name < b.Name },
	)
	return page(items, filter), int64(len(items)), nil
}

func (r *companyRepo) Save(_ context.Context, c *organization.Company) error {
	s := (*Store)(r)
	put(s, s.companies, c.ID, *c)
	return nil
}

type subsidiaryRepo Store

func (r *subsidiaryRepo) FindByID(_ context.Context, id uuid.UUID) (*organization.Subsidiary, error) {
	s := (*Store)(r)
	return get(s, s.subsidiaries, id)
}

func (r *subsidiaryRepo) FindByCompany(_ context.Context, companyID uuid.UUID) ([]organization.Subsidiary, error) {
	s := (*Store)(r)
	return all(s, s.subsidiaries, func(v *organization.Subsidiary) bool { return v.CompanyID == companyID }, nil), nil
}

func (r *subsidiaryRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]organization.Subsidiary, error) {
	s := (*Store)(r)
	return all(s, s.subsidiaries, func(v *organization.Subsidiary) bool { return containsID(ids, v.ID) }, nil), nil
}

func (r *subsidiaryRepo) Save(_ context.Context, v *organization.Subsidiary) error {
	s := (*Store)(r)
	put(s, s.subsidiaries, v.ID, *v)
	return nil
}

type teamRepo Store

func (r *teamRepo) FindByID(_ context.Context, id uuid.UUID) (*organization.Team, error) {
	s := (*Store)(r)
	return get(s, s.teams, id)
}

func (r *teamRepo) FindByInvitationToken(_ context.Context, token string) (*organization.Team, error) {
	s := (*Store)(r)
	return first(s, s.teams, func(t *organization.Team) bool { return t.InvitationToken == token })
}

func (r *teamRepo) FindByName(_ context.Context, campaignID uuid.UUID, name string) (*organization.Team, error) {
	s := (*Store)(r)
	normalized := organization.NormalizeName(name)
	return first(s, s.teams, func(t *organization.Team) bool {
		return t.CampaignID == campaignID && organization.NormalizeName(t.Name) == normalized
	})
}

func (r *teamRepo) FindByCampaign(_ context.Context, campaignID uuid.UUID, filter shared.Filter) ([]organization.Team, int64, error) {
	s := (*Store)(r)
	search := strings.ToLower(filter.Search)
	items := all(s, s.teams,
		func(t *organization.Team) bool {
			return t.CampaignID == campaignID && strings.Contains(strings.ToLower(t.Name), search)
		},
		func(a, b *organization.Team) bool { return a.Name < b.Name },
	)
	return page(items, filter), int64(len(items)), nil
}

func (r *teamRepo) FindBySubsidiary(_ context.Context, campaignID, subsidiaryID uuid.UUID) ([]organization.Team, error) {
	s := (*Store)(r)
	return all(s, s.teams, func(t *organization.Team) bool {
		return t.CampaignID == campaignID && t.SubsidiaryID == subsidiaryID
	}, nil), nil
}

func (r *teamRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*organization.Team, error) {
	return r.FindByID(ctx, id)
}

func (r *teamRepo) Save(_ context.Context, t *organization.Team) error {
	s := (*Store)(r)
	put(s, s.teams, t.ID, *t)
	return nil
}

type adminRepo Store

func (r *adminRepo) FindByUser(_ context.Context, campaignID, userID uuid.UUID) (*organization.CompanyAdmin, error) {
	s := (*Store)(r)
	return first(s, s.admins, func(a *organization.CompanyAdmin) bool {
		return a.CampaignID == campaignID && a.UserID == userID
	})
}

func (r *adminRepo) FindByCompany(_ context.Context, campaignID, companyID uuid.UUID) ([]organization.CompanyAdmin, error) {
	s := (*Store)(r)
	return all(s, s.admins, func(a *organization.CompanyAdmin) bool {
		return a.CampaignID == campaignID && a.CompanyID == companyID
	}, nil), nil
}

func (r *adminRepo) Save(_ context.Context, a *organization.CompanyAdmin) error {
	s := (*Store)(r)
	put(s, s.admins, a.ID, *a)
	return nil
}

type attendanceRepo Store

func (r *attendanceRepo) FindByID(_ context.Context, id uuid.UUID) (*attendance.UserAttendance, error) {
	s := (*Store)(r)
	return get(s, s.attendances, id)
}

func (r *attendanceRepo) FindByUser(_ context.Context, campaignID, userID uuid.UUID) (*attendance.UserAttendance, error) {
	s := (*Store)(r)
	return first(s, s.attendances, func(ua *attendance.UserAttendance) bool {
		return ua.CampaignID == campaignID && ua.UserID == userID
	})
}

func (r *attendanceRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]attendance.UserAttendance, error) {
	s := (*Store)(r)
	return all(s, s.attendances, func(ua *attendance.UserAttendance) bool { return containsID(ids, ua.ID) }, byCreated), nil
}

func (r *attendanceRepo) FindByTeam(_ context.Context, teamID uuid.UUID) ([]attendance.UserAttendance, error) {
	s := (*Store)(r)
	return all(s, s.attendances, func(ua *attendance.UserAttendance) bool { return ua.InTeam(teamID) }, byCreated), nil
}

func (r *attendanceRepo) FindByCompany(_ context.Context, campaignID, companyID uuid.UUID) ([]attendance.UserAttendance, error) {
	s := (*Store)(r)
	s.mu.Lock()
	teamIDs := make([]uuid.UUID, 0)
	for _, t := range s.teams {
		if sub, ok := s.subsidiaries[t.SubsidiaryID]; ok && sub.CompanyID == companyID && t.CampaignID == campaignID {
			teamIDs = append(teamIDs, t.ID)
		}
	}
	s.mu.Unlock()
	return all(s, s.attendances, func(ua *attendance.UserAttendance) bool {
		return ua.IsApprovedTeamMember() && containsID(teamIDs, *ua.TeamID)
	}, byCreated), nil
}

func (r *attendanceRepo) FindAll(_ context.Context, campaignID uuid.UUID, filter attendance.Filter) ([]attendance.UserAttendance, int64, error) {
	s := (*Store)(r)
	items := all(s, s.attendances, func(ua *attendance.UserAttendance) bool {
		if ua.CampaignID != campaignID {
			return false
		}
		if filter.TeamID != nil && !ua.InTeam(*filter.TeamID) {
			return false
		}
		return filter.PaymentStatus == "" || ua.PaymentStatus == filter.PaymentStatus
	}, byCreated)
	return page(items, filter.Filter), int64(len(items)), nil
}

func (r *attendanceRepo) CountApprovedMembers(_ context.Context, teamID uuid.UUID, exclude *uuid.UUID) (int, error) {
	s := (*Store)(r)
	items := all(s, s.attendances, func(ua *attendance.UserAttendance) bool {
		if exclude != nil && ua.ID == *exclude {
			return false
		}
		return ua.InTeam(teamID) && ua.IsApprovedTeamMember()
	}, nil)
	return len(items), nil
}

func (r *attendanceRepo) Save(_ context.Context, ua *attendance.UserAttendance) error {
	s := (*Store)(r)
	put(s, s.attendances, ua.ID, *ua)
	return nil
}

func byCreated(a, b *attendance.UserAttendance) bool { return a.CreatedAt.Before(b.CreatedAt) }

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *identity.User) error {
	s := (*Store)(r)
	put(s, s.users, u.ID, *u)
	return nil
}

func (r *userRepo) Update(_ context.Context, u *identity.User) error {
	s := (*Store)(r)
	put(s, s.users, u.ID, *u)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	s := (*Store)(r)
	return get(s, s.users, id)
}

func (r *userRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]identity.User, error) {
	s := (*Store)(r)
	return all(s, s.users, func(u *identity.User) bool { return containsID(ids, u.ID) }, nil), nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	s := (*Store)(r)
	email = strings.ToLower(strings.TrimSpace(email))
	return first(s, s.users, func(u *identity.User) bool { return u.Email == email })
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

type tripRepo Store

func (r *tripRepo) FindByID(_ context.Context, id uuid.UUID) (*trip.Trip, error) {
	s := (*Store)(r)
	return get(s, s.trips, id)
}

func (r *tripRepo) FindByKey(_ context.Context, key trip.Key) (*trip.Trip, error) {
	s := (*Store)(r)
	return first(s, s.trips, func(t *trip.Trip) bool { return t.Key() == key })
}

func (r *tripRepo) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID, from, to time.Time) ([]trip.Trip, error) {
	return r.FindByAttendances(ctx, []uuid.UUID{userAttendanceID}, from, to)
}

func (r *tripRepo) FindByAttendances(_ context.Context, ids []uuid.UUID, from, to time.Time) ([]trip.Trip, error) {
	s := (*Store)(r)
	from, to = shared.DateOf(from), shared.DateOf(to)
	return all(s, s.trips,
		func(t *trip.Trip) bool {
			return containsID(ids, t.UserAttendanceID) && !t.Date.Before(from) && !t.Date.After(to)
		},
		func(a, b *trip.Trip) bool {
			if a.Date.Equal(b.Date) {
				return a.Direction < b.Direction
			}
			return a.Date.Before(b.Date)
		},
	), nil
}

func (r *tripRepo) Save(_ context.Context, t *trip.Trip) error {
	s := (*Store)(r)
	put(s, s.trips, t.ID, *t)
	return nil
}

func (r *tripRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trips, id)
	return nil
}

func (r *tripRepo) StatisticsByMode(_ context.Context, campaignID uuid.UUID) ([]trip.ModeStatistics, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	byMode := make(map[trip.CommuteMode]*trip.ModeStatistics)
	for _, t := range s.trips {
		if t.CampaignID != campaignID {
			continue
		}
		st, ok := byMode[t.CommuteMode]
		if !ok {
			st = &trip.ModeStatistics{CommuteMode: t.CommuteMode}
			byMode[t.CommuteMode] = st
		}
		st.Trips++
		st.Distance = st.Distance.Add(t.Distance)
	}
	out := make([]trip.ModeStatistics, 0, len(byMode))
	for _, mode := range trip.AllModes {
		if st, ok := byMode[mode]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

type competitionRepo Store

func (r *competitionRepo) FindByID(_ context.Context, id uuid.UUID) (*competition.Competition, error) {
	s := (*Store)(r)
	return get(s, s.competitions, id)
}

func (r *competitionRepo) FindBySlug(_ context.Context, campaignID uuid.UUID, slug string) (*competition.Competition, error) {
	s := (*Store)(r)
	return first(s, s.competitions, func(c *competition.Competition) bool {
		return c.CampaignID == campaignID && c.Slug == slug
	})
}

func (r *competitionRepo) FindByCampaign(_ context.Context, campaignID uuid.UUID) ([]competition.Competition, error) {
	s := (*Store)(r)
	return all(s, s.competitions,
		func(c *competition.Competition) bool { return c.CampaignID == campaignID },
		func(a, b *competition.Competition) bool { return a.Slug < b.Slug },
	), nil
}

func (r *competitionRepo) Save(_ context.Context, c *competition.Competition) error {
	s := (*Store)(r)
	put(s, s.competitions, c.ID, *c)
	return nil
}

type resultRepo Store

func (r *resultRepo) FindByCompetition(ctx context.Context, competitionID uuid.UUID, filter shared.Filter) ([]competition.Result, int64, error) {
	items, _ := r.FindAllByCompetition(ctx, competitionID)
	return page(items, filter), int64(len(items)), nil
}

func (r *resultRepo) FindAllByCompetition(_ context.Context, competitionID uuid.UUID) ([]competition.Result, error) {
	s := (*Store)(r)
	return all(s, s.results,
		func(v *competition.Result) bool { return v.CompetitionID == competitionID },
		func(a, b *competition.Result) bool { return a.Result.GreaterThan(b.Result) },
	), nil
}

func (r *resultRepo) FindForCompetitor(_ context.Context, competitionID uuid.UUID, ref competition.CompetitorRef) (*competition.Result, error) {
	s := (*Store)(r)
	return first(s, s.results, func(v *competition.Result) bool {
		return v.CompetitionID == competitionID && v.Competitor() == ref
	})
}

func (r *resultRepo) FindByCompetitor(_ context.Context, ref competition.CompetitorRef) ([]competition.Result, error) {
	s := (*Store)(r)
	return all(s, s.results, func(v *competition.Result) bool { return v.Competitor() == ref }, nil), nil
}

func (r *resultRepo) Upsert(ctx context.Context, result *competition.Result) error {
	s := (*Store)(r)
	if existing, err := r.FindForCompetitor(ctx, result.CompetitionID, result.Competitor()); err == nil {
		result.ID = existing.ID
	}
	put(s, s.results, result.ID, *result)
	return nil
}

func (r *resultRepo) DeleteForCompetitor(ctx context.Context, competitionID uuid.UUID, ref competition.CompetitorRef) error {
	s := (*Store)(r)
	existing, err := r.FindForCompetitor(ctx, competitionID, ref)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, existing.ID)
	return nil
}

func (r *resultRepo) CountBetter(ctx context.Context, competitionID uuid.UUID, result *competition.Result) (int, int, error) {
	items, _ := r.FindAllByCompetition(ctx, competitionID)
	better, equal := 0, 0
	for _, v := range items {
		switch {
		case v.Result.GreaterThan(result.Result):
			better++
		case v.Result.Equal(result.Result):
			equal++
		}
	}
	return better, equal, nil
}

type questionRepo Store

func (r *questionRepo) FindByID(_ context.Context, id uuid.UUID) (*competition.Question, error) {
	s := (*Store)(r)
	return get(s, s.questions, id)
}

func (r *questionRepo) FindByCompetition(_ context.Context, competitionID uuid.UUID) ([]competition.Question, error) {
	s := (*Store)(r)
	return all(s, s.questions,
		func(q *competition.Question) bool { return q.CompetitionID == competitionID },
		func(a, b *competition.Question) bool { return a.Order < b.Order },
	), nil
}

func (r *questionRepo) Save(_ context.Context, q *competition.Question) error {
	s := (*Store)(r)
	put(s, s.questions, q.ID, *q)
	return nil
}

type answerRepo Store

func (r *answerRepo) FindByID(_ context.Context, id uuid.UUID) (*competition.Answer, error) {
	s := (*Store)(r)
	return get(s, s.answers, id)
}

func (r *answerRepo) FindByQuestion(_ context.Context, questionID, userAttendanceID uuid.UUID) (*competition.Answer, error) {
	s := (*Store)(r)
	return first(s, s.answers, func(a *competition.Answer) bool {
		return a.QuestionID == questionID && a.UserAttendanceID == userAttendanceID
	})
}

func (r *answerRepo) FindByAttendances(_ context.Context, competitionID uuid.UUID, ids []uuid.UUID) ([]competition.Answer, error) {
	s := (*Store)(r)
	return all(s, s.answers, func(a *competition.Answer) bool {
		return a.CompetitionID == competitionID && containsID(ids, a.UserAttendanceID)
	}, nil), nil
}

func (r *answerRepo) Save(_ context.Context, a *competition.Answer) error {
	s := (*Store)(r)
	put(s, s.answers, a.ID, *a)
	return nil
}

type dirtyQueue Store

func (q *dirtyQueue) Mark(_ context.Context, campaignID uuid.UUID, refs ...competition.CompetitorRef) error {
	s := (*Store)(q)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		found := false
		for _, e := range s.dirty {
			if e.Ref == ref {
				found = true
				break
			}
		}
		if !found {
			s.dirty = append(s.dirty, competition.DirtyEntry{CampaignID: campaignID, Ref: ref, MarkedAt: time.Now()})
		}
	}
	return nil
}

func (q *dirtyQueue) Pop(_ context.Context, limit int) ([]competition.DirtyEntry, error) {
	s := (*Store)(q)
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.dirty) {
		limit = len(s.dirty)
	}
	out := append([]competition.DirtyEntry(nil), s.dirty[:limit]...)
	s.dirty = s.dirty[limit:]
	return out, nil
}

type paymentRepo Store

func (r *paymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	s := (*Store)(r)
	return get(s, s.payments, id)
}

func (r *paymentRepo) FindBySessionID(_ context.Context, sessionID string) (*payment.Payment, error) {
	s := (*Store)(r)
	return first(s, s.payments, func(p *payment.Payment) bool { return p.SessionID == sessionID })
}

func (r *paymentRepo) FindBySessionIDForUpdate(ctx context.Context, sessionID string) (*payment.Payment, error) {
	return r.FindBySessionID(ctx, sessionID)
}

func (r *paymentRepo) FindByAttendance(_ context.Context, userAttendanceID uuid.UUID) ([]payment.Payment, error) {
	s := (*Store)(r)
	return all(s, s.payments,
		func(p *payment.Payment) bool { return p.UserAttendanceID == userAttendanceID },
		func(a, b *payment.Payment) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (r *paymentRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]payment.Payment, error) {
	s := (*Store)(r)
	return all(s, s.payments, func(p *payment.Payment) bool { return containsID(ids, p.ID) }, nil), nil
}

func (r *paymentRepo) FindByInvoice(_ context.Context, invoiceID uuid.UUID) ([]payment.Payment, error) {
	s := (*Store)(r)
	return all(s, s.payments, func(p *payment.Payment) bool {
		return p.InvoiceID != nil && *p.InvoiceID == invoiceID
	}, nil), nil
}

func (r *paymentRepo) FindAll(_ context.Context, campaignID uuid.UUID, filter payment.Filter) ([]payment.Payment, int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	companyAttendances := make(map[uuid.UUID]bool)
	if filter.CompanyID != nil {
		for _, ua := range s.attendances {
			if ua.TeamID == nil {
				continue
			}
			t := s.teams[*ua.TeamID]
			if sub, ok := s.subsidiaries[t.SubsidiaryID]; ok && sub.CompanyID == *filter.CompanyID {
				companyAttendances[ua.ID] = true
			}
		}
	}
	s.mu.Unlock()
	items := all(s, s.payments, func(p *payment.Payment) bool {
		if p.CampaignID != campaignID {
			return false
		}
		if filter.UserAttendanceID != nil && p.UserAttendanceID != *filter.UserAttendanceID {
			return false
		}
		if filter.CompanyID != nil && !companyAttendances[p.UserAttendanceID] {
			return false
		}
		if filter.PayType != "" && p.PayType != filter.PayType {
			return false
		}
		if len(filter.Statuses) > 0 {
			for _, st := range filter.Statuses {
				if p.Status == st {
					return true
				}
			}
			return false
		}
		return true
	}, func(a, b *payment.Payment) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return page(items, filter.Filter), int64(len(items)), nil
}

func (r *paymentRepo) Save(_ context.Context, p *payment.Payment) error {
	s := (*Store)(r)
	put(s, s.payments, p.ID, *p)
	return nil
}

type commonRepo Store

func (r *commonRepo) FindByAttendance(_ context.Context, userAttendanceID uuid.UUID) ([]payment.CommonTransaction, error) {
	s := (*Store)(r)
	return all(s, s.common, func(t *payment.CommonTransaction) bool { return t.UserAttendanceID == userAttendanceID }, nil), nil
}

func (r *commonRepo) Save(_ context.Context, t *payment.CommonTransaction) error {
	s := (*Store)(r)
	put(s, s.common, t.ID, *t)
	return nil
}

type invoiceRepo Store

func (r *invoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	s := (*Store)(r)
	return get(s, s.invoices, id)
}

func (r *invoiceRepo) FindByCompany(_ context.Context, campaignID, companyID uuid.UUID) ([]invoice.Invoice, error) {
	s := (*Store)(r)
	return all(s, s.invoices, func(i *invoice.Invoice) bool {
		return i.CampaignID == campaignID && i.CompanyID == companyID
	}, nil), nil
}

func (r *invoiceRepo) FindAll(_ context.Context, campaignID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	s := (*Store)(r)
	items := all(s, s.invoices,
		func(i *invoice.Invoice) bool { return i.CampaignID == campaignID },
		func(a, b *invoice.Invoice) bool { return a.SequenceNumber < b.SequenceNumber },
	)
	return page(items, filter), int64(len(items)), nil
}

func (r *invoiceRepo) LastSequenceNumber(_ context.Context, campaignID uuid.UUID) (*int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *int64
	for _, i := range s.invoices {
		if i.CampaignID == campaignID && (last == nil || i.SequenceNumber > *last) {
			n := i.SequenceNumber
			last = &n
		}
	}
	return last, nil
}

func (r *invoiceRepo) Save(_ context.Context, i *invoice.Invoice) error {
	s := (*Store)(r)
	put(s, s.invoices, i.ID, *i)
	return nil
}

type packageRepo Store

func (r *packageRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]delivery.PackageTransaction, error) {
	s := (*Store)(r)
	return all(s, s.packages,
		func(p *delivery.PackageTransaction) bool { return p.BatchID != nil && *p.BatchID == batchID },
		func(a, b *delivery.PackageTransaction) bool { return a.TrackingNumber < b.TrackingNumber },
	), nil
}

func (r *packageRepo) FindByAttendance(_ context.Context, userAttendanceID uuid.UUID) ([]delivery.PackageTransaction, error) {
	s := (*Store)(r)
	return all(s, s.packages, func(p *delivery.PackageTransaction) bool { return p.UserAttendanceID == userAttendanceID }, nil), nil
}

func (r *packageRepo) FindByTrackingNumber(_ context.Context, campaignID uuid.UUID, n int64) (*delivery.PackageTransaction, error) {
	s := (*Store)(r)
	return first(s, s.packages, func(p *delivery.PackageTransaction) bool {
		return p.CampaignID == campaignID && p.TrackingNumber == n
	})
}

func (r *packageRepo) LastTrackingNumber(_ context.Context, campaignID uuid.UUID) (*int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *int64
	for _, p := range s.packages {
		if p.CampaignID == campaignID && (last == nil || p.TrackingNumber > *last) {
			n := p.TrackingNumber
			last = &n
		}
	}
	return last, nil
}

func (r *packageRepo) SaveBatch(ctx context.Context, packages []*delivery.PackageTransaction) error {
	for _, p := range packages {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *packageRepo) Save(_ context.Context, p *delivery.PackageTransaction) error {
	s := (*Store)(r)
	put(s, s.packages, p.ID, *p)
	return nil
}

type batchRepo Store

func (r *batchRepo) FindByID(_ context.Context, id uuid.UUID) (*delivery.Batch, error) {
	s := (*Store)(r)
	return get(s, s.batches, id)
}

func (r *batchRepo) FindByCampaign(_ context.Context, campaignID uuid.UUID) ([]delivery.Batch, error) {
	s := (*Store)(r)
	return all(s, s.batches,
		func(b *delivery.Batch) bool { return b.CampaignID == campaignID },
		func(a, b *delivery.Batch) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (r *batchRepo) FindCandidates(_ context.Context, campaignID uuid.UUID) ([]delivery.Candidate, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	packaged := make(map[uuid.UUID]bool)
	for _, p := range s.packages {
		packaged[p.UserAttendanceID] = true
	}
	out := make([]delivery.Candidate, 0)
	for _, ua := range s.attendances {
		if ua.CampaignID != campaignID || packaged[ua.ID] || !ua.PaymentStatus.IsPaid() ||
			!ua.IsApprovedTeamMember() || ua.TShirtSizeID == nil {
			continue
		}
		if size, ok := s.sizes[*ua.TShirtSizeID]; !ok || !size.ShipIt {
			continue
		}
		out = append(out, delivery.Candidate{
			UserAttendanceID: ua.ID,
			SubsidiaryID:     s.teams[*ua.TeamID].SubsidiaryID,
			TShirtSizeID:     *ua.TShirtSizeID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserAttendanceID.String() < out[j].UserAttendanceID.String() })
	return out, nil
}

func (r *batchRepo) Save(_ context.Context, b *delivery.Batch) error {
	s := (*Store)(r)
	put(s, s.batches, b.ID, *b)
	return nil
}

type couponRepo Store

func (r *couponRepo) FindByID(_ context.Context, id uuid.UUID) (*voucher.DiscountCoupon, error) {
	s := (*Store)(r)
	return get(s, s.coupons, id)
}

func (r *couponRepo) FindByCode(_ context.Context, campaignID uuid.UUID, couponType, token string) (*voucher.DiscountCoupon, error) {
	s := (*Store)(r)
	return first(s, s.coupons, func(c *voucher.DiscountCoupon) bool {
		return c.CampaignID == campaignID && c.CouponType == couponType && c.Token == token
	})
}

func (r *couponRepo) CountUses(_ context.Context, couponID uuid.UUID) (int, error) {
	s := (*Store)(r)
	return len(all(s, s.attendances, func(ua *attendance.UserAttendance) bool {
		return ua.DiscountCouponID != nil && *ua.DiscountCouponID == couponID
	}, nil)), nil
}

func (r *couponRepo) Save(_ context.Context, c *voucher.DiscountCoupon) error {
	s := (*Store)(r)
	put(s, s.coupons, c.ID, *c)
	return nil
}

type voucherRepo Store

func (r *voucherRepo) FindByAttendance(_ context.Context, userAttendanceID uuid.UUID) ([]voucher.Voucher, error) {
	s := (*Store)(r)
	return all(s, s.vouchers, func(v *voucher.Voucher) bool {
		return v.UserAttendanceID != nil && *v.UserAttendanceID == userAttendanceID
	}, nil), nil
}

func (r *voucherRepo) FindFreeForUpdate(_ context.Context, campaignID uuid.UUID, typ voucher.Type) (*voucher.Voucher, error) {
	s := (*Store)(r)
	return first(s, s.vouchers, func(v *voucher.Voucher) bool {
		return v.CampaignID == campaignID && v.Type == typ && v.UserAttendanceID == nil
	})
}

func (r *voucherRepo) Save(_ context.Context, v *voucher.Voucher) error {
	s := (*Store)(r)
	put(s, s.vouchers, v.ID, *v)
	return nil
}

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewRecordingPublisher creates an empty publisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the events
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Events returns the recorded events
func (p *RecordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

// EventTypes returns the types of the recorded events in order
func (p *RecordingPublisher) EventTypes() []string {
	events := p.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// Reset drops the recorded events
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// StubEvent is an event no handler subscribes to
type StubEvent struct {
	shared.BaseDomainEvent
}

// NewStubEvent returns an event of eventType raised in campaignID
func NewStubEvent(eventType string, campaignID uuid.UUID) *StubEvent {
	return &StubEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Stub", uuid.New(), campaignID)}
}

// RecordingSender collects sent e-mail
type RecordingSender struct {
	mu       sync.Mutex
	messages []*email.Message
}

// Send records the message
func (s *RecordingSender) Send(_ context.Context, msg *email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns the recorded messages
func (s *RecordingSender) Messages() []*email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*email.Message(nil), s.messages...)
}
