package quota

// DenyReason explains why a quota-gated action was refused.
type DenyReason string

const (
	DenyReasonNoEntitlement   DenyReason = "no_entitlement"
	DenyReasonValidityExpired DenyReason = "validity_expired"
	DenyReasonQuotaExceeded   DenyReason = "quota_exceeded"
)

// Error maps the reason to its sentinel error for callers that prefer error values.
func (r DenyReason) Error() error {
	switch r {
	case DenyReasonNoEntitlement:
		return ErrNoEntitlement
	case DenyReasonValidityExpired:
		return ErrValidityExpired
	case DenyReasonQuotaExceeded:
		return ErrQuotaExceeded
	default:
		return nil
	}
}

// Decision is the typed outcome of checkAndConsume. Denials are business
// outcomes and are carried here, not as errors.
type Decision struct {
	Kind      ResourceKind
	Allowed   bool
	Remaining Limit
	Reason    DenyReason
}

// Allow builds an allowed decision carrying the allowance left after consumption.
func Allow(kind ResourceKind, remaining Limit) Decision {
	return Decision{Kind: kind, Allowed: true, Remaining: remaining}
}

// Deny builds a denied decision.
func Deny(kind ResourceKind, reason DenyReason) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// ConsumeOutcome is what the store reports for a single consume attempt.
type ConsumeOutcome struct {
	Consumed  bool
	Remaining Limit
	Reason    DenyReason
}

// Consumed reports a successful consumption.
func Consumed(remaining Limit) ConsumeOutcome {
	return ConsumeOutcome{Consumed: true, Remaining: remaining}
}

// Denied reports a refused consumption.
func Denied(reason DenyReason) ConsumeOutcome {
	return ConsumeOutcome{Reason: reason}
}
