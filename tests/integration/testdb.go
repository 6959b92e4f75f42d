// Package integration runs repository and schema tests against a real
// PostgreSQL database started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/dpnk/backend/internal/infrastructure/logger"
	"github.com/dpnk/backend/internal/infrastructure/migration"
	"github.com/dpnk/backend/internal/infrastructure/persistence"
	"github.com/dpnk/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

// TestDB is a migrated database in its own PostgreSQL container
type TestDB struct {
	*persistence.Database
	SqlDB *sql.DB
	DSN   string
}

// NewTestDB starts PostgreSQL, applies the embedded migrations and
// terminates the container when t ends. Set TEST_DB_DEBUG to see the SQL.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dpnk_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("dpnk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlLevel := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		sqlLevel = gormlogger.Info
	}
	db, err := persistence.OpenDialector(ctx, gormpostgres.Open(dsn),
		&config.DatabaseConfig{MaxOpenConns: 5, MaxIdleConns: 2, ConnMaxLifetime: 5},
		logger.NewSQLLogger(zaptest.NewLogger(t), sqlLevel))
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	// the migrator is left open; closing it would close sqlDB too
	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")

	return &TestDB{Database: db, SqlDB: sqlDB, DSN: dsn}
}

// Seed is the minimal campaign graph most tables reference
type Seed struct {
	Campaign   *campaign.Campaign
	City       *campaign.City
	Company    *organization.Company
	Subsidiary *organization.Subsidiary
}

// SeedCampaign stores a campaign with a competition phase in May of year,
// one city, one company and its subsidiary
func (tdb *TestDB) SeedCampaign(t *testing.T, slug string, year int, ico string) *Seed {
	t.Helper()
	ctx := context.Background()

	c, err := campaign.NewCampaign(slug, "Do práce na kole "+slug, year)
	require.NoError(t, err)
	from := time.Date(year, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, 5, 31, 0, 0, 0, 0, time.UTC)
	phase, err := campaign.NewPhase(campaign.PhaseCompetition, &from, &to)
	require.NoError(t, err)
	c.SetPhase(phase)
	require.NoError(t, c.AddPriceLevel(campaign.PriceCategoryBasic, decimal.NewFromInt(250), time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, persistence.NewGormCampaignRepository(tdb.DB).Save(ctx, c))

	city, err := campaign.NewCity("Město "+slug, "mesto-"+slug)
	require.NoError(t, err)
	city.JoinCampaign(c.ID)
	require.NoError(t, persistence.NewGormCityRepository(tdb.DB).Save(ctx, city))

	addr, err := valueobject.NewAddress("Vinohradská", "12", "Praha", "120 00")
	require.NoError(t, err)
	company, err := organization.NewCompany("Firma "+slug, ico, "", addr)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCompanyRepository(tdb.DB).Save(ctx, company))

	sub, err := organization.NewSubsidiary(company.ID, city.ID, addr)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormSubsidiaryRepository(tdb.DB).Save(ctx, sub))

	return &Seed{Campaign: c, City: city, Company: company, Subsidiary: sub}
}
