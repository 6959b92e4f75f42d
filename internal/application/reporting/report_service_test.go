package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/export"
	"github.com/dpnk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedStandings struct {
	page *results.ResultsPage
}

func (s fixedStandings) Standings(_ context.Context, _ uuid.UUID, slug string) (*results.ResultsPage, error) {
	if s.page == nil || s.page.Competition.Slug != slug {
		return nil, shared.ErrNotFound
	}
	return s.page, nil
}

func newReportService(f *testutil.Fixture, standings Standings) *ReportService {
	return NewReportService(Repositories{
		Campaigns:    f.Store.Campaigns(),
		Cities:       f.Store.Cities(),
		TShirtSizes:  f.Store.TShirtSizes(),
		Attendances:  f.Store.Attendances(),
		Users:        f.Store.Users(),
		Teams:        f.Store.Teams(),
		Companies:    f.Store.Companies(),
		Subsidiaries: f.Store.Subsidiaries(),
		Trips:        f.Store.Trips(),
	}, standings, f.Store, zap.NewNop())
}

func TestReportService_ExportAttendances(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	svc := newReportService(f, fixedStandings{})
	team := f.AddTeam(t, "Pedálníci")
	_, jan := f.AddMember(t, team, "jan@example.com", true)
	jan.ChooseTShirt(f.Sizes[1].ID)
	jan.TripLengthTotal = decimal.NewFromFloat(42.5)
	require.NoError(t, f.Store.Attendances().Save(ctx, jan))
	f.AddUser(t, "petr@example.com")

	t.Run("csv", func(t *testing.T) {
		file, err := svc.ExportAttendances(ctx, f.Campaign.ID, export.FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, "ucastnici-dpnk2026.csv", file.Filename)
		assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

		headers, rows, err := export.ReadCSV(bytes.NewReader(file.Content))
		require.NoError(t, err)
		assert.Equal(t, "e-mail", headers[1])
		require.Len(t, rows, 2)

		byEmail := make(map[string]*export.Row)
		for _, row := range rows {
			byEmail[row.Get("e-mail")] = row
		}
		row := byEmail["jan@example.com"]
		require.NotNil(t, row)
		assert.Equal(t, "Jan Novák", row.Get("jméno"))
		assert.Equal(t, "Pedálníci", row.Get("tým"))
		assert.Equal(t, "Auto*Mat", row.Get("firma"))
		assert.Equal(t, "Praha", row.Get("město"))
		assert.Equal(t, "done", row.Get("stav platby"))
		assert.Equal(t, "Triko L", row.Get("triko"))
		assert.Equal(t, "42.50", row.Get("vzdálenost"))
		assert.Equal(t, "", byEmail["petr@example.com"].Get("tým"))
	})

	t.Run("xlsx", func(t *testing.T) {
		file, err := svc.ExportAttendances(ctx, f.Campaign.ID, export.FormatXLSX)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))
		_, rows, err := export.ReadXLSX(bytes.NewReader(file.Content))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		_, err := svc.ExportAttendances(ctx, uuid.New(), export.FormatCSV)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReportService_ExportResults(t *testing.T) {
	f := testutil.NewFixture(t)
	page := &results.ResultsPage{
		Competition: results.CompetitionResponse{Name: "Pravidelnost", Slug: "pravidelnost"},
		Items: []results.ResultRow{
			{Place: "1.", Competitor: results.CompetitorResponse{Kind: competition.KindTeam, Name: "Pedálníci"}, Result: decimal.NewFromFloat(0.9), Divident: decimal.NewFromInt(18), Divisor: decimal.NewFromInt(20)},
			{Place: "2.-3.", Competitor: results.CompetitorResponse{Kind: competition.KindTeam, Name: "Šlapky"}, Result: decimal.NewFromFloat(0.5), Divident: decimal.NewFromInt(10), Divisor: decimal.NewFromInt(20)},
		},
	}
	svc := newReportService(f, fixedStandings{page: page})

	file, err := svc.ExportResults(context.Background(), f.Campaign.ID, "pravidelnost", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "vysledky-pravidelnost.csv", file.Filename)

	_, rows, err := export.ReadCSV(bytes.NewReader(file.Content))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1.", rows[0].Get("pořadí"))
	assert.Equal(t, "Pedálníci", rows[0].Get("soutěžící"))
	assert.Equal(t, "0.9", rows[0].Get("výsledek"))
	assert.Equal(t, "Šlapky", rows[1].Get("soutěžící"))

	_, err = svc.ExportResults(context.Background(), f.Campaign.ID, "neni", export.FormatCSV)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReportService_ImportCompanies(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	svc := newReportService(f, fixedStandings{})

	data := strings.Join([]string{
		"name,ico,dic,street,street_number,city,psc",
		"Auto*Mat Praha,22670319,CZ22670319,,,,",
		"Cyklo s.r.o.,,,Dlouhá,5,Brno,602 00",
		"Špatné IČO,12345678,,,,,",
		",,,,,,",
		"Bez čísla,,,Krátká,,Ostrava,70200",
	}, "\n")

	result, err := svc.ImportCompanies(ctx, strings.NewReader(data), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 1, result.ImportedRows)
	assert.Equal(t, 1, result.UpdatedRows)
	assert.Equal(t, 2, result.ErrorRows)
	assert.Equal(t, 2, result.TotalErrors)

	updated, err := f.Store.Companies().FindByID(ctx, f.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Auto*Mat Praha", updated.Name)
	assert.Equal(t, "CZ22670319", updated.DIC)
	assert.Equal(t, "Praha", updated.Address.City())

	created, err := f.Store.Companies().FindByName(ctx, "cyklo s.r.o.")
	require.NoError(t, err)
	assert.Equal(t, "Brno", created.Address.City())
	assert.Equal(t, "60200", created.Address.PSC())

	t.Run("missing name column", func(t *testing.T) {
		result, err := svc.ImportCompanies(ctx, strings.NewReader("ico,dic\n22670319,\n"), export.FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, 0, result.ImportedRows)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, export.CodeMissingColumn, result.Errors[0].Code)
	})

	t.Run("empty upload", func(t *testing.T) {
		_, err := svc.ImportCompanies(ctx, strings.NewReader(""), export.FormatCSV)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestReportService_CampaignStatistics(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	svc := newReportService(f, fixedStandings{})
	team := f.AddTeam(t, "Pedálníci")
	_, jan := f.AddMember(t, team, "jan@example.com", true)
	f.AddMember(t, team, "eva@example.com", true)
	f.AddUser(t, "petr@example.com")

	for _, tt := range []struct {
		day       int
		direction trip.Direction
		mode      trip.CommuteMode
		distance  int64
	}{
		{4, trip.DirectionTo, trip.ModeBicycle, 5},
		{4, trip.DirectionFrom, trip.ModeBicycle, 5},
		{5, trip.DirectionTo, trip.ModeByCar, 10},
	} {
		tr, err := trip.NewTrip(f.Campaign.ID, jan.ID, testutil.Date(tt.day), tt.direction, trip.Details{
			CommuteMode: tt.mode,
			Distance:    decimal.NewFromInt(tt.distance),
		})
		require.NoError(t, err)
		require.NoError(t, f.Store.Trips().Save(ctx, tr))
	}

	stats, err := svc.CampaignStatistics(ctx, f.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Registered)
	assert.Equal(t, int64(2), stats.Paid)
	assert.Equal(t, int64(1), stats.Teams)
	assert.Equal(t, int64(3), stats.TripCount)
	assert.True(t, decimal.NewFromInt(10).Equal(stats.TotalDistance))
	require.Len(t, stats.ByMode, 2)
	assert.Equal(t, trip.ModeBicycle, stats.ByMode[0].CommuteMode)
	assert.Equal(t, int64(2), stats.ByMode[0].Trips)
}
