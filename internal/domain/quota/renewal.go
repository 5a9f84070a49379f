package quota

import (
	"fmt"
	"time"
)

// RenewalMode is how an applied plan treated the previous entitlement.
type RenewalMode string

const (
	// RenewalModeMerge carries the remaining allowance of an active entitlement into the new grant.
	RenewalModeMerge RenewalMode = "merge"
	// RenewalModeReset discards any prior remainder and grants the plan defaults.
	RenewalModeReset RenewalMode = "reset"
)

// CountPolicy selects what merge mode does with remaining counts.
type CountPolicy string

const (
	CountPolicyMerge CountPolicy = "merge"
	CountPolicyReset CountPolicy = "reset"
)

// WindowPolicy selects how merge mode computes the new expiry.
type WindowPolicy string

const (
	// WindowPolicyFromNow measures the new window from the renewal moment.
	WindowPolicyFromNow WindowPolicy = "from_now"
	// WindowPolicyExtend appends the new window to whatever time was left.
	WindowPolicyExtend WindowPolicy = "extend"
)

// RenewalPolicy configures the count and time-window behaviour of merge mode
// independently. Reset mode always grants plan defaults from now.
type RenewalPolicy struct {
	Counts CountPolicy
	Window WindowPolicy
}

// DefaultRenewalPolicy merges counts and restarts the window from now.
func DefaultRenewalPolicy() RenewalPolicy {
	return RenewalPolicy{Counts: CountPolicyMerge, Window: WindowPolicyFromNow}
}

// Validate checks that both policy knobs hold known values.
func (p RenewalPolicy) Validate() error {
	switch p.Counts {
	case CountPolicyMerge, CountPolicyReset:
	default:
		return fmt.Errorf("%w: count policy %q", ErrInvalidRenewalPolicy, p.Counts)
	}
	switch p.Window {
	case WindowPolicyFromNow, WindowPolicyExtend:
	default:
		return fmt.Errorf("%w: window policy %q", ErrInvalidRenewalPolicy, p.Window)
	}
	return nil
}

// ParseRenewalPolicy builds a policy from its string form. Empty values fall back to defaults.
func ParseRenewalPolicy(counts, window string) (RenewalPolicy, error) {
	policy := DefaultRenewalPolicy()
	if counts != "" {
		policy.Counts = CountPolicy(counts)
	}
	if window != "" {
		policy.Window = WindowPolicy(window)
	}
	if err := policy.Validate(); err != nil {
		return RenewalPolicy{}, err
	}
	return policy, nil
}

// SelectRenewalMode returns merge for an entitlement that is still active with a
// finite expiry at now, and reset otherwise (absent, lifetime-unset, or expired).
func SelectRenewalMode(current *Entitlement, now time.Time) RenewalMode {
	if current == nil || current.expiresAt == nil {
		return RenewalModeReset
	}
	if current.expiresAt.Before(now) {
		return RenewalModeReset
	}
	return RenewalModeMerge
}

// Renew computes the entitlement that results from applying plan to current at now.
// current may be nil for a subscriber that was never provisioned. The result keeps
// current's version so the store can detect concurrent writers.
func Renew(subscriberID uint, current *Entitlement, plan *Plan, now time.Time, policy RenewalPolicy) (*Entitlement, RenewalMode, error) {
	if subscriberID == 0 {
		return nil, "", fmt.Errorf("subscriber ID is required")
	}
	if plan == nil {
		return nil, "", ErrPlanNotFound
	}
	if err := policy.Validate(); err != nil {
		return nil, "", err
	}

	mode := SelectRenewalMode(current, now)

	next := &Entitlement{
		subscriberID:     subscriberID,
		planID:           plan.id,
		interestLimit:    plan.interestLimit,
		contactViewLimit: plan.contactViewLimit,
		imageLimit:       plan.imageLimit,
		expiresAt:        plan.validity.ExpiryFrom(now),
		createdAt:        now,
		updatedAt:        now,
	}
	if current != nil {
		next.createdAt = current.createdAt
		next.version = current.version
	}

	if mode == RenewalModeReset {
		return next, mode, nil
	}

	if policy.Counts == CountPolicyMerge {
		next.interestLimit = current.interestLimit.Remaining(current.interestUsed).Combine(plan.interestLimit)
		next.contactViewLimit = current.contactViewLimit.Remaining(current.contactViewUsed).Combine(plan.contactViewLimit)
	}

	if policy.Window == WindowPolicyExtend && !plan.validity.IsLifetime() {
		base := now
		if current.expiresAt.After(base) {
			base = *current.expiresAt
		}
		next.expiresAt = plan.validity.ExpiryFrom(base)
	}

	return next, mode, nil
}
