package usecases

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/database"
	"github.com/saathi-inc/saathi/internal/infrastructure/migration"
	"github.com/saathi-inc/saathi/internal/infrastructure/repository"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func setupIntegrationFileDB(t *testing.T, maxConns int) *gorm.DB {
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

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func TestConcurrentApplyAndConsume_FileDatabase(t *testing.T) {
	db := setupIntegrationFileDB(t, 10)
	log := logger.NewNop()
	ctx := context.Background()

	plans := repository.NewPlanRepository(db, log)
	store := repository.NewEntitlementRepository(db, nil, log)
	notifier := NewChangeNotifier(nil, nil, log)
	require.NoError(t, plans.Upsert(ctx, planFixture(t, 1, quota.Bounded(50), quota.Bounded(10), quota.Bounded(3), 30)))

	retry := RetryConfig{MaxAttempts: 8, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond}
	apply := NewApplyPlanUseCase(plans, store, quota.DefaultRenewalPolicy(), retry, notifier, nil, log)
	consume := NewCheckAndConsumeUseCase(store, nil, retry, notifier, nil, log)

	const (
		subscribers = 20
		perKind     = 4
	)
	var wg sync.WaitGroup
	for id := uint(1); id <= subscribers; id++ {
		for i := 0; i < perKind; i++ {
			wg.Add(2)
			go func(id uint) {
				defer wg.Done()
				_, err := apply.Execute(ctx, ApplyPlanCommand{SubscriberID: id, PlanID: 1, Now: testNow})
				assert.NoError(t, err, "apply for subscriber %d", id)
			}(id)
			go func(id uint) {
				defer wg.Done()
				_, err := consume.Execute(ctx, CheckAndConsumeCommand{SubscriberID: id, Kind: "interest", Now: testNow})
				assert.NoError(t, err, "consume for subscriber %d", id)
			}(id)
		}
	}
	wg.Wait()

	for id := uint(1); id <= subscribers; id++ {
		e, err := store.Get(ctx, id)
		require.NoError(t, err, "subscriber %d", id)
		assert.True(t, e.IsValid(testNow))
	}
}

func TestQuotaLifecycle_SQLite(t *testing.T) {
	db := setupIntegrationDB(t)
	log := logger.NewNop()
	ctx := context.Background()

	plans := repository.NewPlanRepository(db, log)
	store := repository.NewEntitlementRepository(db, nil, log)
	ledger := repository.NewUsageLedgerRepository(db, log)
	notifier := NewChangeNotifier(nil, nil, log)

	starter := planFixture(t, 1, quota.Bounded(5), quota.Bounded(2), quota.Bounded(3), 30)
	upgrade := planFixture(t, 2, quota.Bounded(20), quota.Unlimited(), quota.Bounded(10), 90)
	require.NoError(t, plans.Upsert(ctx, starter))
	require.NoError(t, plans.Upsert(ctx, upgrade))

	apply := NewApplyPlanUseCase(plans, store, quota.DefaultRenewalPolicy(), fastRetry(), notifier, nil, log)
	consume := NewCheckAndConsumeUseCase(store, ledger, fastRetry(), notifier, nil, log)

	first, err := apply.Execute(ctx, ApplyPlanCommand{SubscriberID: 42, PlanID: 1, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, "reset", first.Mode)

	// Twenty concurrent requests against an allowance of five.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		denied  int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := consume.Execute(ctx, CheckAndConsumeCommand{SubscriberID: 42, Kind: "interest", Now: testNow.Add(time.Minute)})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if resp.Allowed {
				allowed++
			} else {
				assert.Equal(t, "quota_exceeded", resp.Reason)
				denied++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
	assert.Equal(t, 15, denied)

	summary, err := ledger.Summarize(ctx, 42, testNow)
	require.NoError(t, err)
	counts := map[quota.UsageOutcome]int64{}
	for _, s := range summary {
		counts[s.Outcome] += s.Count
	}
	assert.Equal(t, int64(5), counts[quota.UsageOutcomeConsumed])
	assert.Equal(t, int64(15), counts[quota.UsageOutcomeDenied])

	// Renewal while active merges the (empty) remainder with the upgrade.
	second, err := apply.Execute(ctx, ApplyPlanCommand{SubscriberID: 42, PlanID: 2, Now: testNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "merge", second.Mode)
	assert.Equal(t, uint64(20), second.Entitlement.Interest.Limit.Value)
	assert.Equal(t, uint64(0), second.Entitlement.Interest.Used)
	assert.True(t, second.Entitlement.ContactView.Limit.Unlimited)

	// Once expired, every kind is denied.
	expiredAt := testNow.Add(time.Hour).AddDate(0, 0, 91)
	resp, err := consume.Execute(ctx, CheckAndConsumeCommand{SubscriberID: 42, Kind: "contact_view", Now: expiredAt})
	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "validity_expired", resp.Reason)
}
