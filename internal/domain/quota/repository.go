package quota

import (
	"context"
	"time"
)

// PlanCatalog is the read-only lookup of plan definitions.
type PlanCatalog interface {
	// GetPlan returns ErrPlanNotFound when planID is unknown.
	GetPlan(ctx context.Context, planID uint) (*Plan, error)
	ListPlans(ctx context.Context) ([]*Plan, error)
}

// PlanWriter loads reference data into the catalog. It is used by seeding, never at request time.
type PlanWriter interface {
	Upsert(ctx context.Context, plan *Plan) error
}

// RenewFunc computes the replacement for current inside the store's critical section.
// current is nil when the subscriber has no entitlement yet.
type RenewFunc func(current *Entitlement) (*Entitlement, error)

// EntitlementStore owns the one-row-per-subscriber entitlement record.
type EntitlementStore interface {
	// Get returns ErrNoEntitlement when no row exists.
	Get(ctx context.Context, subscriberID uint) (*Entitlement, error)

	// TryConsume atomically checks and consumes one unit of kind at now.
	// Decrementing kinds use a single conditional update; countable kinds
	// are a pure check against images counted fresh.
	TryConsume(ctx context.Context, subscriberID uint, kind ResourceKind, now time.Time) (ConsumeOutcome, error)

	// ApplyRenewal replaces the subscriber's entitlement with the result of renew,
	// serialized against concurrent consumption of the same row. It returns
	// ErrConcurrentUpdateConflict when another writer won the race.
	ApplyRenewal(ctx context.Context, subscriberID uint, renew RenewFunc) (*Entitlement, error)

	// IsValid reports whether the subscriber's entitlement is usable at now.
	IsValid(ctx context.Context, subscriberID uint, now time.Time) (bool, error)
}

// ImageCounter reports how many stored images a subscriber currently owns.
// It is provided by the gallery collaborator.
type ImageCounter interface {
	CountOf(ctx context.Context, subscriberID uint) (uint64, error)
}

// UsageLedger is the advisory audit trail of consumption attempts.
type UsageLedger interface {
	Append(ctx context.Context, event *UsageEvent) error
	ListBySubscriber(ctx context.Context, subscriberID uint, since time.Time, limit int) ([]*UsageEvent, error)
	Summarize(ctx context.Context, subscriberID uint, since time.Time) ([]UsageSummary, error)
}

// EntitlementChangedEvent announces that a subscriber's entitlement was written.
type EntitlementChangedEvent struct {
	SubscriberID uint   `json:"subscriber_id"`
	Reason       string `json:"reason"`
	Timestamp    int64  `json:"timestamp"`
}

// EntitlementEventPublisher broadcasts entitlement changes to other instances.
type EntitlementEventPublisher interface {
	PublishEntitlementChanged(ctx context.Context, event EntitlementChangedEvent) error
}
