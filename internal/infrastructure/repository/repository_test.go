package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/database"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: opens a different database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.PlanModel{}, &models.EntitlementModel{}, &models.UsageEventModel{}))
	return db
}

// setupFileDB opens a file-backed database with the server's DSN and a pool of
// maxConns connections, so concurrent transactions really overlap.
func setupFileDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saathi.db")
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(path)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.PlanModel{}, &models.EntitlementModel{}, &models.UsageEventModel{}))
	return db
}

func insertEntitlement(t *testing.T, db *gorm.DB, model models.EntitlementModel) {
	t.Helper()
	if model.Version == 0 {
		model.Version = 1
	}
	require.NoError(t, db.Create(&model).Error)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

type fakeImageCounter struct {
	counts map[uint]uint64
	calls  int
}

func (f *fakeImageCounter) CountOf(_ context.Context, subscriberID uint) (uint64, error) {
	f.calls++
	return f.counts[subscriberID], nil
}

func mustPlan(t *testing.T, id uint, interest, contactView, image quota.Limit, validity quota.Validity) *quota.Plan {
	t.Helper()
	p, err := quota.NewPlan(id, "Plan", quota.PlanLimits{Interest: interest, ContactView: contactView, Image: image}, validity)
	require.NoError(t, err)
	return p
}
