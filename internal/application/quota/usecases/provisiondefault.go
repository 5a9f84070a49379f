package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const operationProvisionDefault = "provision_default"

var errAlreadyProvisioned = errors.New("subscriber already has an entitlement")

// ProvisionDefaultCommand provisions SubscriberID with the default plan at Now.
type ProvisionDefaultCommand struct {
	SubscriberID uint
	Now          time.Time
}

// ProvisionDefaultUseCase grants the default plan to a subscriber that has no
// entitlement yet. An existing entitlement is returned untouched.
type ProvisionDefaultUseCase struct {
	catalog       quota.PlanCatalog
	store         quota.EntitlementStore
	defaultPlanID uint
	retry         RetryConfig
	notifier      ChangeNotifier
	metrics       MetricsRecorder
	logger        logger.Interface
}

// NewProvisionDefaultUseCase creates the use case for defaultPlanID.
func NewProvisionDefaultUseCase(
	catalog quota.PlanCatalog,
	store quota.EntitlementStore,
	defaultPlanID uint,
	retry RetryConfig,
	notifier ChangeNotifier,
	metrics MetricsRecorder,
	logger logger.Interface,
) *ProvisionDefaultUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ProvisionDefaultUseCase{
		catalog:       catalog,
		store:         store,
		defaultPlanID: defaultPlanID,
		retry:         retry,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
	}
}

func (uc *ProvisionDefaultUseCase) Execute(ctx context.Context, cmd ProvisionDefaultCommand) (*dto.ProvisionResponse, error) {
	if cmd.SubscriberID == 0 {
		return nil, apperrors.NewValidationError("subscriber ID is required")
	}
	if uc.defaultPlanID == 0 {
		return nil, apperrors.NewBadRequestError("no default plan is configured")
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	existing, err := uc.store.Get(ctx, cmd.SubscriberID)
	switch {
	case err == nil:
		return &dto.ProvisionResponse{Entitlement: dto.ToEntitlementResponse(existing, now, nil)}, nil
	case !errors.Is(err, quota.ErrNoEntitlement):
		uc.logger.Errorw("failed to load entitlement", "subscriber_id", cmd.SubscriberID, "error", err)
		return nil, toAppError(fmt.Errorf("failed to load entitlement: %w", err))
	}

	plan, err := uc.catalog.GetPlan(ctx, uc.defaultPlanID)
	if err != nil {
		uc.logger.Errorw("default plan is unavailable", "plan_id", uc.defaultPlanID, "error", err)
		return nil, toAppError(err)
	}

	saved, err := retryOnConflict(ctx, uc.retry, uc.metrics, uc.logger, operationProvisionDefault, func(uint) (*quota.Entitlement, error) {
		return uc.store.ApplyRenewal(ctx, cmd.SubscriberID, func(current *quota.Entitlement) (*quota.Entitlement, error) {
			if current != nil {
				return nil, errAlreadyProvisioned
			}
			next, _, err := quota.Renew(cmd.SubscriberID, nil, plan, now, quota.DefaultRenewalPolicy())
			return next, err
		})
	})
	if errors.Is(err, errAlreadyProvisioned) {
		// Provisioned concurrently by someone else.
		existing, err := uc.store.Get(ctx, cmd.SubscriberID)
		if err != nil {
			return nil, toAppError(err)
		}
		return &dto.ProvisionResponse{Entitlement: dto.ToEntitlementResponse(existing, now, nil)}, nil
	}
	if err != nil {
		uc.logger.Errorw("failed to provision default entitlement",
			"subscriber_id", cmd.SubscriberID,
			"plan_id", uc.defaultPlanID,
			"error", err,
		)
		return nil, toAppError(err)
	}

	uc.metrics.RecordRenewal(string(quota.RenewalModeReset))
	uc.notifier.entitlementChanged(ctx, cmd.SubscriberID, changeReasonProvision, now.Unix())

	uc.logger.Infow("default entitlement provisioned",
		"subscriber_id", cmd.SubscriberID,
		"plan_id", uc.defaultPlanID,
	)

	return &dto.ProvisionResponse{
		Created:     true,
		Entitlement: dto.ToEntitlementResponse(saved, now, nil),
	}, nil
}
