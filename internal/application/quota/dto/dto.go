package dto

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/saathi-inc/saathi/internal/domain/quota"
)

const unlimitedJSON = `"unlimited"`

// Allowance renders a limit as a JSON number, or the string "unlimited".
type Allowance struct {
	Unlimited bool
	Value     uint64
}

// NewAllowance converts a domain limit.
func NewAllowance(l quota.Limit) Allowance {
	n, ok := l.Value()
	if !ok {
		return Allowance{Unlimited: true}
	}
	return Allowance{Value: n}
}

// Limit converts back to the domain limit.
func (a Allowance) Limit() quota.Limit {
	if a.Unlimited {
		return quota.Unlimited()
	}
	return quota.Bounded(a.Value)
}

func (a Allowance) MarshalJSON() ([]byte, error) {
	if a.Unlimited {
		return []byte(unlimitedJSON), nil
	}
	return []byte(strconv.FormatUint(a.Value, 10)), nil
}

func (a *Allowance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == unlimitedJSON {
		*a = Allowance{Unlimited: true}
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("allowance must be a non-negative integer or \"unlimited\": %s", data)
	}
	*a = Allowance{Value: n}
	return nil
}

// CounterResponse describes a decrementing resource.
type CounterResponse struct {
	Limit     Allowance `json:"limit"`
	Used      uint64    `json:"used"`
	Remaining Allowance `json:"remaining"`
}

// ImageResponse describes the countable image resource. Used and Remaining are
// only present when the live image count was available.
type ImageResponse struct {
	Limit     Allowance  `json:"limit"`
	Used      *uint64    `json:"used,omitempty"`
	Remaining *Allowance `json:"remaining,omitempty"`
}

// EntitlementResponse is the display snapshot of a subscriber's entitlement.
type EntitlementResponse struct {
	SubscriberID uint            `json:"subscriber_id"`
	PlanID       uint            `json:"plan_id"`
	Active       bool            `json:"active"`
	Lifetime     bool            `json:"lifetime"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	Interest     CounterResponse `json:"interest"`
	ContactView  CounterResponse `json:"contact_view"`
	Image        ImageResponse   `json:"image"`
	Version      int             `json:"version"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DecisionResponse is the outcome of a consume request.
type DecisionResponse struct {
	SubscriberID uint       `json:"subscriber_id"`
	Kind         string     `json:"kind"`
	Allowed      bool       `json:"allowed"`
	Remaining    *Allowance `json:"remaining,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// RenewalResponse is the entitlement written by a plan application.
type RenewalResponse struct {
	Mode        string              `json:"mode"`
	Entitlement EntitlementResponse `json:"entitlement"`
}

// ProvisionResponse reports whether a default entitlement was created.
type ProvisionResponse struct {
	Created     bool                `json:"created"`
	Entitlement EntitlementResponse `json:"entitlement"`
}

// PlanResponse describes a catalog plan.
type PlanResponse struct {
	ID               uint           `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	InterestLimit    Allowance      `json:"interest_limit"`
	ContactViewLimit Allowance      `json:"contact_view_limit"`
	ImageLimit       Allowance      `json:"image_limit"`
	Lifetime         bool           `json:"lifetime"`
	ValidityDays     *uint32        `json:"validity_days,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// UsageSummaryItem is one (kind, outcome) bucket of the usage report.
type UsageSummaryItem struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

// UsageEventResponse is one ledger entry.
type UsageEventResponse struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Details    map[string]any `json:"details,omitempty"`
}

// UsageReportResponse aggregates a subscriber's ledger since a point in time.
type UsageReportResponse struct {
	SubscriberID uint                 `json:"subscriber_id"`
	Since        time.Time            `json:"since"`
	Summary      []UsageSummaryItem   `json:"summary"`
	Events       []UsageEventResponse `json:"events"`
}
