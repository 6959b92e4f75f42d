package reporting

import (
	"bytes"
	"context"

	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/export"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const exportPageSize = 500

// Repositories groups the stores the reports read
type Repositories struct {
	Campaigns    campaign.CampaignRepository
	Cities       campaign.CityRepository
	TShirtSizes  campaign.TShirtSizeRepository
	Attendances  attendance.UserAttendanceRepository
	Users        identity.UserRepository
	Teams        organization.TeamRepository
	Companies    organization.CompanyRepository
	Subsidiaries organization.SubsidiaryRepository
	Trips        trip.TripRepository
}

// Standings provides complete results tables
type Standings interface {
	Standings(ctx context.Context, campaignID uuid.UUID, slug string) (*results.ResultsPage, error)
}

// ReportService produces the staff exports, imports and statistics
type ReportService struct {
	repos     Repositories
	standings Standings
	tx        shared.Transactor
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(repos Repositories, standings Standings, tx shared.Transactor, logger *zap.Logger) *ReportService {
	return &ReportService{repos: repos, standings: standings, tx: tx, logger: logger}
}

// ExportAttendances lists every participant of the campaign
func (s *ReportService) ExportAttendances(ctx context.Context, campaignID uuid.UUID, format export.Format) (*File, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sizes, err := s.repos.TShirtSizes.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sizeNames := make(map[uuid.UUID]string, len(sizes))
	for _, size := range sizes {
		sizeNames[size.ID] = size.Name
	}

	table := export.NewTable("Účastníci",
		"Jméno", "E-mail", "Tým", "Pobočka", "Firma", "Město",
		"Stav platby", "Triko", "Vzdálenost", "Pravidelnost")
	l := newLookup(s.repos)

	for page := 1; ; page++ {
		items, total, err := s.repos.Attendances.FindAll(ctx, campaignID, attendance.Filter{
			Filter: shared.Filter{Page: page, PageSize: exportPageSize, OrderBy: "created_at"},
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendAttendances(ctx, table, items, l, sizeNames); err != nil {
			return nil, err
		}
		if len(items) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	table.SortBy(0)

	s.logger.Info("Attendances exported",
		zap.String("campaign", c.Slug),
		zap.Int("rows", len(table.Rows)),
		zap.String("format", string(format)))
	return s.file(table, "ucastnici-"+c.Slug, format)
}

func (s *ReportService) appendAttendances(ctx context.Context, table *export.Table, items []attendance.UserAttendance, l *lookup, sizeNames map[uuid.UUID]string) error {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].UserID
	}
	users, err := s.repos.Users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for i := range items {
		ua := &items[i]
		user, ok := byID[ua.UserID]
		if !ok {
			continue
		}
		var teamName, subsidiary, company, city string
		if ua.TeamID != nil {
			place, err := l.place(ctx, *ua.TeamID)
			if err != nil {
				return err
			}
			teamName, subsidiary, company, city = place.team, place.subsidiary, place.company, place.city
		}
		size := ""
		if ua.TShirtSizeID != nil {
			size = sizeNames[*ua.TShirtSizeID]
		}
		table.Append(
			user.FullName(),
			user.Email,
			teamName,
			subsidiary,
			company,
			city,
			string(ua.PaymentStatus),
			size,
			ua.TripLengthTotal.StringFixed(2),
			ua.Frequency.StringFixed(3),
		)
	}
	return nil
}

// ExportResults writes the full results table of a competition
func (s *ReportService) ExportResults(ctx context.Context, campaignID uuid.UUID, slug string, format export.Format) (*File, error) {
	page, err := s.standings.Standings(ctx, campaignID, slug)
	if err != nil {
		return nil, err
	}
	table := export.NewTable(page.Competition.Name, "Pořadí", "Soutěžící", "Výsledek", "Dělenec", "Dělitel")
	for _, row := range page.Items {
		table.Append(
			row.Place,
			row.Competitor.Name,
			row.Result.String(),
			row.Divident.String(),
			row.Divisor.String(),
		)
	}
	return s.file(table, "vysledky-"+page.Competition.Slug, format)
}

// CampaignStatistics counts participants, payments and trips
func (s *ReportService) CampaignStatistics(ctx context.Context, campaignID uuid.UUID) (*Statistics, error) {
	if _, err := s.repos.Campaigns.FindByID(ctx, campaignID); err != nil {
		return nil, err
	}
	one := shared.Filter{Page: 1, PageSize: 1}
	_, registered, err := s.repos.Attendances.FindAll(ctx, campaignID, attendance.Filter{Filter: one})
	if err != nil {
		return nil, err
	}
	_, paid, err := s.repos.Attendances.FindAll(ctx, campaignID, attendance.Filter{Filter: one, PaymentStatus: attendance.PaymentDone})
	if err != nil {
		return nil, err
	}
	_, teams, err := s.repos.Teams.FindByCampaign(ctx, campaignID, one)
	if err != nil {
		return nil, err
	}
	modes, err := s.repos.Trips.StatisticsByMode(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Registered:    registered,
		Paid:          paid,
		Teams:         teams,
		TotalDistance: decimal.Zero,
		ByMode:        make([]ModeStatistics, len(modes)),
	}
	for i, m := range modes {
		stats.ByMode[i] = ModeStatistics{CommuteMode: m.CommuteMode, Trips: m.Trips, Distance: m.Distance}
		stats.TripCount += m.Trips
		if m.CommuteMode.Eco() {
			stats.TotalDistance = stats.TotalDistance.Add(m.Distance)
		}
	}
	return stats, nil
}

func (s *ReportService) file(table *export.Table, name string, format export.Format) (*File, error) {
	var buf bytes.Buffer
	if err := table.Write(&buf, format); err != nil {
		return nil, err
	}
	return &File{
		Filename:    name + format.Extension(),
		ContentType: format.ContentType(),
		Content:     buf.Bytes(),
	}, nil
}

type teamPlace struct {
	team       string
	subsidiary string
	company    string
	city       string
}

// lookup memoizes where teams sit within one export
type lookup struct {
	repos  Repositories
	places map[uuid.UUID]teamPlace
}

func newLookup(repos Repositories) *lookup {
	return &lookup{repos: repos, places: make(map[uuid.UUID]teamPlace)}
}

func (l *lookup) place(ctx context.Context, teamID uuid.UUID) (teamPlace, error) {
	if p, ok := l.places[teamID]; ok {
		return p, nil
	}
	team, err := l.repos.Teams.FindByID(ctx, teamID)
	if err != nil {
		return teamPlace{}, err
	}
	sub, err := l.repos.Subsidiaries.FindByID(ctx, team.SubsidiaryID)
	if err != nil {
		return teamPlace{}, err
	}
	company, err := l.repos.Companies.FindByID(ctx, sub.CompanyID)
	if err != nil {
		return teamPlace{}, err
	}
	p := teamPlace{team: team.Name, subsidiary: sub.Address.String(), company: company.Name}
	if city, err := l.repos.Cities.FindByID(ctx, sub.CityID); err == nil {
		p.city = city.Name
	}
	l.places[teamID] = p
	return p, nil
}
