package quota

import (
	"fmt"
	"time"
)

// UsageOutcome records whether a consumption attempt succeeded.
type UsageOutcome string

const (
	UsageOutcomeConsumed UsageOutcome = "consumed"
	UsageOutcomeDenied   UsageOutcome = "denied"
)

// IsValid checks if the outcome is known
func (o UsageOutcome) IsValid() bool {
	return o == UsageOutcomeConsumed || o == UsageOutcomeDenied
}

// UsageEvent is an append-only advisory record of one consumption attempt.
// It is never consulted for remaining-quota math.
type UsageEvent struct {
	ID           string
	SubscriberID uint
	Kind         ResourceKind
	Outcome      UsageOutcome
	Reason       DenyReason
	OccurredAt   time.Time
	Details      map[string]any
}

// NewUsageEvent records decision for subscriberID at now.
func NewUsageEvent(id string, subscriberID uint, decision Decision, now time.Time) (*UsageEvent, error) {
	if subscriberID == 0 {
		return nil, fmt.Errorf("subscriber ID is required")
	}
	if !decision.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceKind, decision.Kind)
	}

	event := &UsageEvent{
		ID:           id,
		SubscriberID: subscriberID,
		Kind:         decision.Kind,
		Outcome:      UsageOutcomeDenied,
		Reason:       decision.Reason,
		OccurredAt:   now,
		Details:      make(map[string]any),
	}
	if decision.Allowed {
		event.Outcome = UsageOutcomeConsumed
		event.Reason = ""
		event.Details["remaining"] = decision.Remaining.String()
	}
	return event, nil
}

// UsageSummary is a count of events per kind and outcome.
type UsageSummary struct {
	Kind    ResourceKind
	Outcome UsageOutcome
	Count   int64
}
