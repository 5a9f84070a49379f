// Package quota wires the quota use cases into a single service used by the
// HTTP handlers and by in-process collaborators.
package quota

import (
	"context"
	"time"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/application/quota/usecases"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/cache"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// Dependencies are the ports the service runs against. Ledger, Images, Cache,
// Publisher and Metrics are optional.
type Dependencies struct {
	Store     quota.EntitlementStore
	Catalog   quota.PlanCatalog
	Ledger    quota.UsageLedger
	Images    quota.ImageCounter
	Cache     cache.EntitlementCache
	Publisher quota.EntitlementEventPublisher
	Metrics   usecases.MetricsRecorder
	Logger    logger.Interface
}

// Settings tune renewal and retry behaviour.
type Settings struct {
	Policy        quota.RenewalPolicy
	Retry         usecases.RetryConfig
	DefaultPlanID uint
}

// Service is the entry point to the entitlement engine.
type Service struct {
	checkAndConsume  *usecases.CheckAndConsumeUseCase
	applyPlan        *usecases.ApplyPlanUseCase
	getEntitlement   *usecases.GetEntitlementUseCase
	provisionDefault *usecases.ProvisionDefaultUseCase
	getUsageReport   *usecases.GetUsageReportUseCase
	listPlans        *usecases.ListPlansUseCase
	getPlan          *usecases.GetPlanUseCase
}

// NewService builds every use case from deps and settings.
func NewService(deps Dependencies, settings Settings) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	notifier := usecases.NewChangeNotifier(deps.Cache, deps.Publisher, log)

	return &Service{
		checkAndConsume:  usecases.NewCheckAndConsumeUseCase(deps.Store, deps.Ledger, settings.Retry, notifier, deps.Metrics, log.Named("enforcer")),
		applyPlan:        usecases.NewApplyPlanUseCase(deps.Catalog, deps.Store, settings.Policy, settings.Retry, notifier, deps.Metrics, log.Named("renewal")),
		getEntitlement:   usecases.NewGetEntitlementUseCase(deps.Store, deps.Cache, deps.Images, log),
		provisionDefault: usecases.NewProvisionDefaultUseCase(deps.Catalog, deps.Store, settings.DefaultPlanID, settings.Retry, notifier, deps.Metrics, log.Named("provision")),
		getUsageReport:   usecases.NewGetUsageReportUseCase(deps.Ledger, log),
		listPlans:        usecases.NewListPlansUseCase(deps.Catalog, log),
		getPlan:          usecases.NewGetPlanUseCase(deps.Catalog, log),
	}
}

// CheckAndConsume decides and, when allowed, consumes one unit of kind.
func (s *Service) CheckAndConsume(ctx context.Context, subscriberID uint, kind string, now time.Time) (*dto.DecisionResponse, error) {
	return s.checkAndConsume.Execute(ctx, usecases.CheckAndConsumeCommand{
		SubscriberID: subscriberID,
		Kind:         kind,
		Now:          now,
	})
}

// ApplyPlan merges or resets the subscriber's entitlement against planID.
func (s *Service) ApplyPlan(ctx context.Context, subscriberID, planID uint, now time.Time) (*dto.RenewalResponse, error) {
	return s.applyPlan.Execute(ctx, usecases.ApplyPlanCommand{
		SubscriberID: subscriberID,
		PlanID:       planID,
		Now:          now,
	})
}

// GetEntitlement returns the display snapshot.
func (s *Service) GetEntitlement(ctx context.Context, subscriberID uint, now time.Time) (*dto.EntitlementResponse, error) {
	return s.getEntitlement.Execute(ctx, usecases.GetEntitlementQuery{
		SubscriberID: subscriberID,
		Now:          now,
	})
}

// ProvisionDefault grants the default plan if the subscriber has none.
func (s *Service) ProvisionDefault(ctx context.Context, subscriberID uint, now time.Time) (*dto.ProvisionResponse, error) {
	return s.provisionDefault.Execute(ctx, usecases.ProvisionDefaultCommand{
		SubscriberID: subscriberID,
		Now:          now,
	})
}

// GetUsageReport summarizes the advisory ledger.
func (s *Service) GetUsageReport(ctx context.Context, query usecases.GetUsageReportQuery) (*dto.UsageReportResponse, error) {
	return s.getUsageReport.Execute(ctx, query)
}

// ListPlans returns the plan catalog.
func (s *Service) ListPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	return s.listPlans.Execute(ctx)
}

// GetPlan returns one plan.
func (s *Service) GetPlan(ctx context.Context, planID uint) (*dto.PlanResponse, error) {
	return s.getPlan.Execute(ctx, planID)
}
