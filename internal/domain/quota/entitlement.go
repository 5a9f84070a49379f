package quota

import (
	"fmt"
	"time"
)

// Entitlement is the per-subscriber aggregate holding current allowances,
// what has been consumed against them, and when they stop being usable.
// Exactly one entitlement exists per subscriber once a plan has been applied.
type Entitlement struct {
	subscriberID     uint
	planID           uint
	interestLimit    Limit
	interestUsed     uint64
	contactViewLimit Limit
	contactViewUsed  uint64
	imageLimit       Limit
	expiresAt        *time.Time // nil means lifetime
	createdAt        time.Time
	updatedAt        time.Time
	version          int // Version for optimistic locking
}

// EntitlementState is the full field set used to reconstruct an entitlement.
type EntitlementState struct {
	SubscriberID     uint
	PlanID           uint
	InterestLimit    Limit
	InterestUsed     uint64
	ContactViewLimit Limit
	ContactViewUsed  uint64
	ImageLimit       Limit
	ExpiresAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// ReconstructEntitlement rebuilds an entitlement from persisted state and
// rejects state where a bounded used counter exceeds its limit.
func ReconstructEntitlement(state EntitlementState) (*Entitlement, error) {
	if state.SubscriberID == 0 {
		return nil, fmt.Errorf("subscriber ID is required")
	}
	if !state.InterestLimit.IsUnlimited() {
		if n, _ := state.InterestLimit.Value(); state.InterestUsed > n {
			return nil, ErrUsedExceedsLimit(ResourceKindInterest, state.InterestUsed, state.InterestLimit)
		}
	}
	if !state.ContactViewLimit.IsUnlimited() {
		if n, _ := state.ContactViewLimit.Value(); state.ContactViewUsed > n {
			return nil, ErrUsedExceedsLimit(ResourceKindContactView, state.ContactViewUsed, state.ContactViewLimit)
		}
	}

	return &Entitlement{
		subscriberID:     state.SubscriberID,
		planID:           state.PlanID,
		interestLimit:    state.InterestLimit,
		interestUsed:     state.InterestUsed,
		contactViewLimit: state.ContactViewLimit,
		contactViewUsed:  state.ContactViewUsed,
		imageLimit:       state.ImageLimit,
		expiresAt:        copyTime(state.ExpiresAt),
		createdAt:        state.CreatedAt,
		updatedAt:        state.UpdatedAt,
		version:          state.Version,
	}, nil
}

// State returns a copy of the entitlement's fields.
func (e *Entitlement) State() EntitlementState {
	return EntitlementState{
		SubscriberID:     e.subscriberID,
		PlanID:           e.planID,
		InterestLimit:    e.interestLimit,
		InterestUsed:     e.interestUsed,
		ContactViewLimit: e.contactViewLimit,
		ContactViewUsed:  e.contactViewUsed,
		ImageLimit:       e.imageLimit,
		ExpiresAt:        copyTime(e.expiresAt),
		CreatedAt:        e.createdAt,
		UpdatedAt:        e.updatedAt,
		Version:          e.version,
	}
}

// SubscriberID returns the subscriber ID
func (e *Entitlement) SubscriberID() uint {
	return e.subscriberID
}

// PlanID returns the last applied plan ID, kept for display only
func (e *Entitlement) PlanID() uint {
	return e.planID
}

// ExpiresAt returns the expiration time, nil for lifetime
func (e *Entitlement) ExpiresAt() *time.Time {
	return copyTime(e.expiresAt)
}

// CreatedAt returns when the entitlement was first provisioned
func (e *Entitlement) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the entitlement last changed
func (e *Entitlement) UpdatedAt() time.Time {
	return e.updatedAt
}

// Version returns the optimistic locking version
func (e *Entitlement) Version() int {
	return e.version
}

// IsValid reports whether the entitlement is usable at now.
func (e *Entitlement) IsValid(now time.Time) bool {
	return IsValidAt(e.expiresAt, now)
}

// IsLifetime reports whether the entitlement never expires.
func (e *Entitlement) IsLifetime() bool {
	return e.expiresAt == nil
}

// LimitFor returns the current allowance for kind.
func (e *Entitlement) LimitFor(kind ResourceKind) (Limit, error) {
	switch kind {
	case ResourceKindInterest:
		return e.interestLimit, nil
	case ResourceKindContactView:
		return e.contactViewLimit, nil
	case ResourceKindImage:
		return e.imageLimit, nil
	default:
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidResourceKind, kind)
	}
}

// UsedFor returns the used counter of a decrementing kind.
// Countable kinds have no counter and report an error.
func (e *Entitlement) UsedFor(kind ResourceKind) (uint64, error) {
	switch kind {
	case ResourceKindInterest:
		return e.interestUsed, nil
	case ResourceKindContactView:
		return e.contactViewUsed, nil
	case ResourceKindImage:
		return 0, fmt.Errorf("%w: %s is measured by count, not by counter", ErrInvalidResourceKind, kind)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidResourceKind, kind)
	}
}

// Remaining returns what is left of a decrementing kind's allowance.
func (e *Entitlement) Remaining(kind ResourceKind) (Limit, error) {
	limit, err := e.LimitFor(kind)
	if err != nil {
		return Limit{}, err
	}
	used, err := e.UsedFor(kind)
	if err != nil {
		return Limit{}, err
	}
	return limit.Remaining(used), nil
}

// RemainingImages returns the image allowance left given the live image count.
func (e *Entitlement) RemainingImages(count uint64) Limit {
	return e.imageLimit.Remaining(count)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
