package mappers

import (
	"fmt"
	"math"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/constants"
)

// LimitFromLegacy decodes a stored limit column: -1 is unlimited, n >= 0 is bounded.
func LimitFromLegacy(v int64) (quota.Limit, error) {
	switch {
	case v == constants.LegacyUnlimited:
		return quota.Unlimited(), nil
	case v >= 0:
		return quota.Bounded(uint64(v)), nil
	default:
		return quota.Limit{}, fmt.Errorf("%w: stored value %d", quota.ErrInvalidLimit, v)
	}
}

// LimitToLegacy encodes a limit for storage. Bounded values beyond the column range saturate.
func LimitToLegacy(l quota.Limit) int64 {
	n, ok := l.Value()
	if !ok {
		return constants.LegacyUnlimited
	}
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// UsedFromLegacy decodes a stored used counter.
func UsedFromLegacy(kind quota.ResourceKind, v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %s used=%d", quota.ErrInvariantViolation, kind, v)
	}
	return uint64(v), nil
}

// ValidityFromLegacy decodes a stored validity_days column: -1 is lifetime, n > 0 is days.
func ValidityFromLegacy(v int64) (quota.Validity, error) {
	switch {
	case v == constants.LegacyUnlimited:
		return quota.Lifetime(), nil
	case v > 0 && v <= math.MaxUint32:
		return quota.ValidForDays(uint32(v))
	default:
		return quota.Validity{}, fmt.Errorf("%w: stored validity_days %d", quota.ErrInvalidValidity, v)
	}
}

// ValidityToLegacy encodes a validity for storage.
func ValidityToLegacy(v quota.Validity) int64 {
	days, ok := v.Days()
	if !ok {
		return constants.LegacyUnlimited
	}
	return int64(days)
}
