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

const operationApplyPlan = "apply_plan"

// ApplyPlanCommand applies PlanID to SubscriberID at Now.
type ApplyPlanCommand struct {
	SubscriberID uint
	PlanID       uint
	Now          time.Time
}

// ApplyPlanUseCase is the renewal coordinator: it merges or resets the
// subscriber's entitlement against a plan inside the store's row lock.
type ApplyPlanUseCase struct {
	catalog  quota.PlanCatalog
	store    quota.EntitlementStore
	policy   quota.RenewalPolicy
	retry    RetryConfig
	notifier ChangeNotifier
	metrics  MetricsRecorder
	logger   logger.Interface
}

// NewApplyPlanUseCase creates the renewal coordinator.
func NewApplyPlanUseCase(
	catalog quota.PlanCatalog,
	store quota.EntitlementStore,
	policy quota.RenewalPolicy,
	retry RetryConfig,
	notifier ChangeNotifier,
	metrics MetricsRecorder,
	logger logger.Interface,
) *ApplyPlanUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ApplyPlanUseCase{
		catalog:  catalog,
		store:    store,
		policy:   policy,
		retry:    retry,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

func (uc *ApplyPlanUseCase) Execute(ctx context.Context, cmd ApplyPlanCommand) (*dto.RenewalResponse, error) {
	uc.logger.Infow("executing apply plan use case",
		"subscriber_id", cmd.SubscriberID,
		"plan_id", cmd.PlanID,
	)

	if cmd.SubscriberID == 0 {
		return nil, apperrors.NewValidationError("subscriber ID is required")
	}
	if cmd.PlanID == 0 {
		return nil, apperrors.NewValidationError("plan ID is required")
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	// Unknown plans are rejected before any retry.
	plan, err := uc.catalog.GetPlan(ctx, cmd.PlanID)
	if err != nil {
		if errors.Is(err, quota.ErrPlanNotFound) {
			uc.logger.Warnw("plan not found", "plan_id", cmd.PlanID)
		} else {
			uc.logger.Errorw("failed to get plan", "plan_id", cmd.PlanID, "error", err)
		}
		return nil, toAppError(err)
	}

	saved, mode, err := applyPlan(ctx, uc.store, uc.retry, uc.metrics, uc.logger, cmd.SubscriberID, plan, now, uc.policy)
	if err != nil {
		uc.logger.Errorw("failed to apply plan",
			"subscriber_id", cmd.SubscriberID,
			"plan_id", cmd.PlanID,
			"error", err,
		)
		return nil, toAppError(err)
	}

	uc.metrics.RecordRenewal(string(mode))
	uc.notifier.entitlementChanged(ctx, cmd.SubscriberID, changeReasonRenewal, now.Unix())

	uc.logger.Infow("plan applied successfully",
		"subscriber_id", cmd.SubscriberID,
		"plan_id", cmd.PlanID,
		"mode", mode,
		"version", saved.Version(),
	)

	return &dto.RenewalResponse{
		Mode:        string(mode),
		Entitlement: dto.ToEntitlementResponse(saved, now, nil),
	}, nil
}

type renewalResult struct {
	entitlement *quota.Entitlement
	mode        quota.RenewalMode
}

// applyPlan writes plan over the subscriber's entitlement, retrying whole
// read-compute-write cycles that lose a concurrent update.
func applyPlan(
	ctx context.Context,
	store quota.EntitlementStore,
	retry RetryConfig,
	metrics MetricsRecorder,
	log logger.Interface,
	subscriberID uint,
	plan *quota.Plan,
	now time.Time,
	policy quota.RenewalPolicy,
) (*quota.Entitlement, quota.RenewalMode, error) {
	result, err := retryOnConflict(ctx, retry, metrics, log, operationApplyPlan, func(attempt uint) (renewalResult, error) {
		var mode quota.RenewalMode
		saved, err := store.ApplyRenewal(ctx, subscriberID, func(current *quota.Entitlement) (*quota.Entitlement, error) {
			next, m, err := quota.Renew(subscriberID, current, plan, now, policy)
			if err != nil {
				return nil, err
			}
			mode = m
			return next, nil
		})
		if err != nil {
			return renewalResult{}, err
		}
		return renewalResult{entitlement: saved, mode: mode}, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to apply plan %d: %w", plan.ID(), err)
	}
	return result.entitlement, result.mode, nil
}
