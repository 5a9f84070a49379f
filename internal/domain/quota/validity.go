package quota

import (
	"fmt"
	"time"
)

// Validity is the duration an applied plan keeps an entitlement usable:
// either a positive number of days or Lifetime.
type Validity struct {
	lifetime bool
	days     uint32
}

// Lifetime returns the validity that never expires.
func Lifetime() Validity {
	return Validity{lifetime: true}
}

// ValidForDays returns a validity of n days. n must be positive.
func ValidForDays(n uint32) (Validity, error) {
	if n == 0 {
		return Validity{}, fmt.Errorf("%w: days must be positive", ErrInvalidValidity)
	}
	return Validity{days: n}, nil
}

// IsLifetime reports whether the validity never expires.
func (v Validity) IsLifetime() bool {
	return v.lifetime
}

// Days returns the number of days and true, or 0 and false for Lifetime.
func (v Validity) Days() (uint32, bool) {
	if v.lifetime {
		return 0, false
	}
	return v.days, true
}

// ExpiryFrom returns the expiry moment of a window starting at start,
// or nil for Lifetime.
func (v Validity) ExpiryFrom(start time.Time) *time.Time {
	if v.lifetime {
		return nil
	}
	expiry := start.Add(time.Duration(v.days) * 24 * time.Hour)
	return &expiry
}

// String returns "lifetime" or "<n>d".
func (v Validity) String() string {
	if v.lifetime {
		return "lifetime"
	}
	return fmt.Sprintf("%dd", v.days)
}

// IsValidAt reports whether an entitlement with the given expiry is usable at now.
// A nil expiry never expires; otherwise the entitlement is valid through expiresAt inclusive.
func IsValidAt(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return !expiresAt.Before(now)
}
