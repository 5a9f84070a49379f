package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const operationConsume = "consume"

// CheckAndConsumeCommand asks to consume one unit of Kind for SubscriberID at Now.
type CheckAndConsumeCommand struct {
	SubscriberID uint
	Kind         string
	Now          time.Time
}

// CheckAndConsumeUseCase is the quota enforcer: it applies the validity gate
// and then delegates the atomic check-and-consume to the store.
type CheckAndConsumeUseCase struct {
	store    quota.EntitlementStore
	ledger   quota.UsageLedger // Optional: advisory audit trail
	retry    RetryConfig
	notifier ChangeNotifier
	metrics  MetricsRecorder
	logger   logger.Interface
}

// NewCheckAndConsumeUseCase creates the enforcer. ledger may be nil.
func NewCheckAndConsumeUseCase(
	store quota.EntitlementStore,
	ledger quota.UsageLedger,
	retry RetryConfig,
	notifier ChangeNotifier,
	metrics MetricsRecorder,
	logger logger.Interface,
) *CheckAndConsumeUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &CheckAndConsumeUseCase{
		store:    store,
		ledger:   ledger,
		retry:    retry,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute returns the decision. Denials are decisions, not errors; errors are
// reserved for invalid input and storage failures.
func (uc *CheckAndConsumeUseCase) Execute(ctx context.Context, cmd CheckAndConsumeCommand) (*dto.DecisionResponse, error) {
	if cmd.SubscriberID == 0 {
		return nil, apperrors.NewValidationError("subscriber ID is required")
	}
	kind, err := quota.ParseResourceKind(cmd.Kind)
	if err != nil {
		uc.logger.Warnw("rejected consume with invalid resource kind",
			"subscriber_id", cmd.SubscriberID,
			"resource_kind", cmd.Kind,
		)
		return nil, toAppError(err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	decision, err := uc.decide(ctx, cmd.SubscriberID, kind, now)
	if err != nil {
		uc.logger.Errorw("failed to check and consume quota",
			"subscriber_id", cmd.SubscriberID,
			"resource_kind", kind,
			"error", err,
		)
		return nil, toAppError(err)
	}

	uc.metrics.RecordDecision(kind.String(), outcomeLabel(decision), string(decision.Reason))
	uc.logger.Debugw("quota decision",
		"subscriber_id", cmd.SubscriberID,
		"resource_kind", kind,
		"allowed", decision.Allowed,
		"remaining", decision.Remaining.String(),
		"reason", decision.Reason,
	)

	uc.appendLedger(ctx, cmd.SubscriberID, decision, now)
	if decision.Allowed && kind.IsDecrementing() {
		uc.notifier.entitlementChanged(ctx, cmd.SubscriberID, changeReasonConsume, now.Unix())
	}

	resp := dto.ToDecisionResponse(cmd.SubscriberID, decision)
	return &resp, nil
}

func (uc *CheckAndConsumeUseCase) decide(ctx context.Context, subscriberID uint, kind quota.ResourceKind, now time.Time) (quota.Decision, error) {
	entitlement, err := uc.store.Get(ctx, subscriberID)
	if err != nil {
		if errors.Is(err, quota.ErrNoEntitlement) {
			return quota.Deny(kind, quota.DenyReasonNoEntitlement), nil
		}
		return quota.Decision{}, fmt.Errorf("failed to load entitlement: %w", err)
	}

	// Validity gates every kind before any per-resource count is looked at.
	if !entitlement.IsValid(now) {
		return quota.Deny(kind, quota.DenyReasonValidityExpired), nil
	}

	// A conflicted consume rolled back without spending anything.
	outcome, err := retryOnConflict(ctx, uc.retry, uc.metrics, uc.logger, operationConsume, func(uint) (quota.ConsumeOutcome, error) {
		return uc.store.TryConsume(ctx, subscriberID, kind, now)
	})
	if err != nil {
		if errors.Is(err, quota.ErrNoEntitlement) {
			return quota.Deny(kind, quota.DenyReasonNoEntitlement), nil
		}
		return quota.Decision{}, err
	}

	if !outcome.Consumed {
		reason := outcome.Reason
		if reason == "" {
			reason = quota.DenyReasonQuotaExceeded
		}
		return quota.Deny(kind, reason), nil
	}
	return quota.Allow(kind, outcome.Remaining), nil
}

func (uc *CheckAndConsumeUseCase) appendLedger(ctx context.Context, subscriberID uint, decision quota.Decision, now time.Time) {
	if uc.ledger == nil {
		return
	}

	event, err := quota.NewUsageEvent(uuid.NewString(), subscriberID, decision, now)
	if err != nil {
		uc.logger.Warnw("failed to build usage event", "subscriber_id", subscriberID, "error", err)
		return
	}
	// The ledger is advisory: a failed append never undoes the consumption.
	if err := uc.ledger.Append(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Warnw("failed to append usage event",
			"subscriber_id", subscriberID,
			"resource_kind", decision.Kind,
			"error", err,
		)
	}
}

func outcomeLabel(d quota.Decision) string {
	if d.Allowed {
		return string(quota.UsageOutcomeConsumed)
	}
	return string(quota.UsageOutcomeDenied)
}
