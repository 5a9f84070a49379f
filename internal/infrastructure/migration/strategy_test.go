package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/saathi-inc/saathi/internal/shared/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGooseStrategy_UpDownOnSQLite(t *testing.T) {
	db := openSQLite(t)

	s, err := NewStrategy(StrategyGoose, "sqlite", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StrategyGoose, s.Name())

	require.NoError(t, s.Up(db))

	version, err := s.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	for _, table := range []string{"plans", "entitlements", "usage_events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	require.NoError(t, s.Status(db))

	require.NoError(t, s.Down(db, 1))
	assert.False(t, db.Migrator().HasTable("usage_events"))

	version, err = s.Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestNewStrategy_Validation(t *testing.T) {
	_, err := NewStrategy(StrategyGolangMigrate, "sqlite", logger.NewNop())
	assert.Error(t, err)

	_, err = NewStrategy("flyway", "mysql", logger.NewNop())
	assert.Error(t, err)

	s, err := NewStrategy(StrategyGolangMigrate, "postgres", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StrategyGolangMigrate, s.Name())
}

func TestAutoMigrate(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable("entitlements"))
}
