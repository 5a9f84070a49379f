package usecases

import (
	"context"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/cache"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// MetricsRecorder receives quota decision and renewal counts.
type MetricsRecorder interface {
	RecordDecision(kind, outcome, reason string)
	RecordRenewal(mode string)
	RecordConflictRetry(operation string)
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, string, string) {}
func (nopMetrics) RecordRenewal(string)                  {}
func (nopMetrics) RecordConflictRetry(string)            {}

const (
	changeReasonConsume   = "consume"
	changeReasonRenewal   = "renewal"
	changeReasonProvision = "provision"
)

// ChangeNotifier drops the local display snapshot and tells other instances to do
// the same. Both steps are best effort; the store stays authoritative.
type ChangeNotifier struct {
	cache     cache.EntitlementCache
	publisher quota.EntitlementEventPublisher // Optional
	logger    logger.Interface
}

// NewChangeNotifier creates a notifier. publisher may be nil.
func NewChangeNotifier(entitlementCache cache.EntitlementCache, publisher quota.EntitlementEventPublisher, logger logger.Interface) ChangeNotifier {
	if entitlementCache == nil {
		entitlementCache = cache.NopEntitlementCache{}
	}
	return ChangeNotifier{
		cache:     entitlementCache,
		publisher: publisher,
		logger:    logger,
	}
}

func (n ChangeNotifier) entitlementChanged(ctx context.Context, subscriberID uint, reason string, timestamp int64) {
	notifyCtx := context.WithoutCancel(ctx)

	if n.cache != nil {
		if err := n.cache.Invalidate(notifyCtx, subscriberID); err != nil {
			n.logger.Warnw("failed to invalidate entitlement cache",
				"subscriber_id", subscriberID,
				"error", err,
			)
		}
	}

	if n.publisher == nil {
		return
	}
	event := quota.EntitlementChangedEvent{
		SubscriberID: subscriberID,
		Reason:       reason,
		Timestamp:    timestamp,
	}
	if err := n.publisher.PublishEntitlementChanged(notifyCtx, event); err != nil {
		// Log error but don't fail the write
		n.logger.Warnw("failed to publish entitlement change",
			"subscriber_id", subscriberID,
			"reason", reason,
			"error", err,
		)
	}
}
