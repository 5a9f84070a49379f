package quota

import (
	"errors"
	"fmt"
)

var (
	ErrNoEntitlement             = errors.New("no entitlement provisioned for subscriber")
	ErrValidityExpired           = errors.New("entitlement validity expired")
	ErrQuotaExceeded             = errors.New("quota exceeded")
	ErrPlanNotFound              = errors.New("plan not found")
	ErrConcurrentUpdateConflict  = errors.New("concurrent entitlement update conflict")
	ErrInvalidResourceKind       = errors.New("invalid resource kind")
	ErrInvalidLimit              = errors.New("invalid limit")
	ErrInvalidValidity           = errors.New("invalid validity")
	ErrInvariantViolation        = errors.New("entitlement invariant violated")
	ErrInvalidRenewalPolicy      = errors.New("invalid renewal policy")
	ErrImageCounterNotConfigured = errors.New("image counter not configured")
)

// ErrUsedExceedsLimit reports a used counter that overflows its bounded limit.
func ErrUsedExceedsLimit(kind ResourceKind, used uint64, limit Limit) error {
	return fmt.Errorf("%w: %s used=%d limit=%s", ErrInvariantViolation, kind, used, limit)
}
