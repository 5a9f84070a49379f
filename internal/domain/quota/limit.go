// Package quota provides the domain model for subscription entitlements and
// quota enforcement: allowance limits, plans, per-subscriber entitlements and
// the renewal algorithm that merges or resets them.
package quota

import (
	"fmt"
	"math"
)

// Limit is an allowance bound. It is either Unlimited or a bounded,
// non-negative count. The zero value is Bounded(0), so an uninitialised
// limit never grants anything.
type Limit struct {
	unlimited bool
	n         uint64
}

// Unlimited returns the limit that places no bound on consumption.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// Bounded returns a limit allowing at most n consumptions.
func Bounded(n uint64) Limit {
	return Limit{n: n}
}

// IsUnlimited reports whether no bound applies.
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Value returns the bound and true for a bounded limit, or 0 and false for Unlimited.
func (l Limit) Value() (uint64, bool) {
	if l.unlimited {
		return 0, false
	}
	return l.n, true
}

// Combine adds two limits. Unlimited is absorbing: if either operand is
// Unlimited the result is Unlimited. Bounded sums saturate at math.MaxUint64.
func (l Limit) Combine(other Limit) Limit {
	if l.unlimited || other.unlimited {
		return Unlimited()
	}
	if l.n > math.MaxUint64-other.n {
		return Bounded(math.MaxUint64)
	}
	return Bounded(l.n + other.n)
}

// Remaining returns what is left after used consumptions.
// Unlimited stays Unlimited; bounded limits floor at zero.
func (l Limit) Remaining(used uint64) Limit {
	if l.unlimited {
		return l
	}
	if used >= l.n {
		return Bounded(0)
	}
	return Bounded(l.n - used)
}

// Allows reports whether one more consumption fits after used consumptions.
func (l Limit) Allows(used uint64) bool {
	return l.unlimited || used < l.n
}

// IsExhausted reports whether a bounded limit has nothing left.
func (l Limit) IsExhausted() bool {
	return !l.unlimited && l.n == 0
}

// Equal reports whether two limits are the same.
func (l Limit) Equal(other Limit) bool {
	return l.unlimited == other.unlimited && l.n == other.n
}

// String returns "unlimited" or the decimal bound.
func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.n)
}
