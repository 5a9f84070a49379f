// Package scheduler runs periodic maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/saathi-inc/saathi/internal/infrastructure/metrics"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const (
	// DefaultRetentionDays is the default number of days to retain usage events.
	DefaultRetentionDays = 90
	// DefaultLedgerCleanupCron runs the ledger cleanup at 05:00 UTC every day.
	DefaultLedgerCleanupCron = "0 5 * * *"

	ledgerCleanupTimeout = 10 * time.Minute
)

// LedgerPurger deletes usage events older than a cutoff.
type LedgerPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SchedulerManager owns the single gocron scheduler of the process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

// NewSchedulerManager creates a scheduler evaluating cron expressions in UTC.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// RegisterLedgerRetentionJob registers the usage ledger cleanup job.
// retentionDays <= 0 falls back to DefaultRetentionDays and an empty
// cronExpr to DefaultLedgerCleanupCron.
func (m *SchedulerManager) RegisterLedgerRetentionJob(
	purger LedgerPurger,
	retentionDays int,
	cronExpr string,
) error {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if cronExpr == "" {
		cronExpr = DefaultLedgerCleanupCron
	}

	_, err := m.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), ledgerCleanupTimeout)
			defer cancel()
			m.executeLedgerCleanup(ctx, purger, retentionDays)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "cleanup"),
		gocron.WithName("usage-ledger-cleanup"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered usage ledger cleanup job",
		"schedule", cronExpr,
		"retention_days", retentionDays,
	)
	return nil
}

func (m *SchedulerManager) executeLedgerCleanup(ctx context.Context, purger LedgerPurger, retentionDays int) {
	startTime := time.Now()
	cutoff := m.now().AddDate(0, 0, -retentionDays)

	m.logger.Debugw("executing usage ledger cleanup",
		"retention_days", retentionDays,
		"cutoff", cutoff,
	)

	deleted, err := purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Errorw("usage ledger cleanup failed", "error", err, "cutoff", cutoff)
		}
		return
	}

	metrics.LedgerEventsPurgedTotal.Add(float64(deleted))
	m.logger.Infow("usage ledger cleanup completed",
		"deleted", deleted,
		"cutoff", cutoff,
		"duration", time.Since(startTime),
	)
}

// Start begins running registered jobs. Calling it twice is harmless.
func (m *SchedulerManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.scheduler.Start()
	m.running = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down, blocking until in-flight jobs return.
func (m *SchedulerManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown failed", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}

// IsStarted reports whether Start has been called without a matching Stop.
func (m *SchedulerManager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Jobs lists the registered jobs.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
