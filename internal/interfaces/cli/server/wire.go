package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	quotaApp "github.com/saathi-inc/saathi/internal/application/quota"
	"github.com/saathi-inc/saathi/internal/application/quota/usecases"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/adapters/gallery"
	"github.com/saathi-inc/saathi/internal/infrastructure/cache"
	"github.com/saathi-inc/saathi/internal/infrastructure/metrics"
	"github.com/saathi-inc/saathi/internal/infrastructure/pubsub"
	"github.com/saathi-inc/saathi/internal/infrastructure/repository"
	"github.com/saathi-inc/saathi/internal/infrastructure/scheduler"
	"github.com/saathi-inc/saathi/internal/interfaces/cli/common"
	httpRouter "github.com/saathi-inc/saathi/internal/interfaces/http"
	"github.com/saathi-inc/saathi/internal/interfaces/http/handlers"
	"github.com/saathi-inc/saathi/internal/shared/goroutine"
)

// application is the wired object graph behind the HTTP server.
type application struct {
	router      *httpRouter.Router
	redisClient *redis.Client
	subscriber  <-chan struct{}
	scheduler   *scheduler.SchedulerManager
}

func newApplication(ctx context.Context, e *common.Env) (*application, error) {
	cfg, log, db := e.Config, e.Logger, e.DB

	images, err := gallery.NewImageCounter(db, cfg.Gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to create image counter: %w", err)
	}

	policy, err := cfg.RenewalPolicy()
	if err != nil {
		return nil, err
	}

	entitlementRepo := repository.NewEntitlementRepository(db, images, log.Named("repository.entitlement"))
	planRepo := repository.NewPlanRepository(db, log.Named("repository.plan"))
	catalog := cache.NewCachedPlanCatalog(planRepo, cfg.Catalog.CacheSize, log.Named("cache.plan"))

	app := &application{}

	var ledger quota.UsageLedger
	if cfg.Quota.LedgerEnabled {
		ledgerRepo := repository.NewUsageLedgerRepository(db, log.Named("repository.ledger"))
		ledger = ledgerRepo

		if cfg.Quota.LedgerRetentionDays > 0 {
			manager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
			if err != nil {
				return nil, fmt.Errorf("failed to create scheduler: %w", err)
			}
			if err := manager.RegisterLedgerRetentionJob(ledgerRepo, cfg.Quota.LedgerRetentionDays, cfg.Quota.LedgerCleanupCron); err != nil {
				return nil, fmt.Errorf("failed to register ledger cleanup job: %w", err)
			}
			app.scheduler = manager
		}
	}
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var entitlementCache cache.EntitlementCache = cache.NopEntitlementCache{}
	var publisher quota.EntitlementEventPublisher = pubsub.NopEntitlementEventPublisher{}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())

		redisCache := cache.NewRedisEntitlementCache(client, cfg.Quota.DisplayCacheTTL(), log.Named("cache.entitlement"))
		bus := pubsub.NewRedisEntitlementEventBus(client, log.Named("pubsub"))

		app.subscriber = goroutine.SafeGo(ctx, log, "entitlement-invalidation", func(ctx context.Context) {
			err := bus.SubscribeEntitlementChanged(ctx, func(ctx context.Context, event quota.EntitlementChangedEvent) {
				if err := redisCache.Invalidate(ctx, event.SubscriberID); err != nil {
					log.Warnw("failed to invalidate entitlement cache from event",
						"subscriber_id", event.SubscriberID,
						"reason", event.Reason,
						"error", err)
				}
			})
			if err != nil && ctx.Err() == nil {
				log.Errorw("entitlement event subscriber stopped", "error", err)
			}
		})

		entitlementCache = redisCache
		publisher = bus
		app.redisClient = client
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}

	service := quotaApp.NewService(quotaApp.Dependencies{
		Store:     entitlementRepo,
		Catalog:   catalog,
		Ledger:    ledger,
		Images:    images,
		Cache:     entitlementCache,
		Publisher: publisher,
		Metrics:   metrics.NewRecorder(),
		Logger:    log,
	}, quotaApp.Settings{
		Policy: policy,
		Retry: usecases.RetryConfig{
			MaxAttempts:     cfg.Quota.RetryAttempts,
			InitialInterval: cfg.Quota.RetryInitialInterval(),
			MaxInterval:     cfg.Quota.RetryMaxInterval(),
		},
		DefaultPlanID: cfg.Quota.DefaultPlanID,
	})

	app.router = httpRouter.NewRouter(httpRouter.RouterDeps{
		Service:      service,
		HealthChecks: checks,
		Metrics:      cfg.Metrics,
		Logger:       log,
	})
	app.router.SetupRoutes()

	if app.scheduler != nil {
		app.scheduler.Start()
	}

	return app, nil
}

// close stops the scheduler, waits for the subscriber to stop, then
// releases Redis. The context passed to newApplication must already be cancelled.
func (a *application) close() {
	if a.scheduler != nil {
		_ = a.scheduler.Stop()
	}
	if a.subscriber != nil {
		<-a.subscriber
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}
