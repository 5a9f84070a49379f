package dto

import (
	"time"

	"github.com/saathi-inc/saathi/internal/domain/quota"
)

// ToEntitlementResponse converts an entitlement evaluated at now. imageCount is
// nil when the live count is unknown.
func ToEntitlementResponse(e *quota.Entitlement, now time.Time, imageCount *uint64) EntitlementResponse {
	s := e.State()

	resp := EntitlementResponse{
		SubscriberID: s.SubscriberID,
		PlanID:       s.PlanID,
		Active:       e.IsValid(now),
		Lifetime:     e.IsLifetime(),
		ExpiresAt:    s.ExpiresAt,
		Interest:     toCounterResponse(s.InterestLimit, s.InterestUsed),
		ContactView:  toCounterResponse(s.ContactViewLimit, s.ContactViewUsed),
		Image:        ImageResponse{Limit: NewAllowance(s.ImageLimit)},
		Version:      s.Version,
		UpdatedAt:    s.UpdatedAt,
	}

	if imageCount != nil {
		used := *imageCount
		remaining := NewAllowance(e.RemainingImages(used))
		resp.Image.Used = &used
		resp.Image.Remaining = &remaining
	}
	return resp
}

func toCounterResponse(limit quota.Limit, used uint64) CounterResponse {
	return CounterResponse{
		Limit:     NewAllowance(limit),
		Used:      used,
		Remaining: NewAllowance(limit.Remaining(used)),
	}
}

// ToDecisionResponse converts a quota decision.
func ToDecisionResponse(subscriberID uint, d quota.Decision) DecisionResponse {
	resp := DecisionResponse{
		SubscriberID: subscriberID,
		Kind:         d.Kind.String(),
		Allowed:      d.Allowed,
	}
	if d.Allowed {
		remaining := NewAllowance(d.Remaining)
		resp.Remaining = &remaining
	} else {
		resp.Reason = string(d.Reason)
	}
	return resp
}

// ToPlanResponse converts a catalog plan.
func ToPlanResponse(p *quota.Plan) PlanResponse {
	limits := p.Limits()
	resp := PlanResponse{
		ID:               p.ID(),
		Name:             p.Name(),
		Description:      p.Description(),
		InterestLimit:    NewAllowance(limits.Interest),
		ContactViewLimit: NewAllowance(limits.ContactView),
		ImageLimit:       NewAllowance(limits.Image),
		Lifetime:         p.Validity().IsLifetime(),
	}
	if days, ok := p.Validity().Days(); ok {
		resp.ValidityDays = &days
	}
	if md := p.Metadata(); len(md) > 0 {
		resp.Metadata = md
	}
	return resp
}

// ToPlanResponses converts a list of plans.
func ToPlanResponses(plans []*quota.Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlanResponse(p))
	}
	return out
}

// ToUsageReportResponse converts ledger summaries and events.
func ToUsageReportResponse(subscriberID uint, since time.Time, summary []quota.UsageSummary, events []*quota.UsageEvent) UsageReportResponse {
	resp := UsageReportResponse{
		SubscriberID: subscriberID,
		Since:        since,
		Summary:      make([]UsageSummaryItem, 0, len(summary)),
		Events:       make([]UsageEventResponse, 0, len(events)),
	}
	for _, s := range summary {
		resp.Summary = append(resp.Summary, UsageSummaryItem{
			Kind:    s.Kind.String(),
			Outcome: string(s.Outcome),
			Count:   s.Count,
		})
	}
	for _, e := range events {
		item := UsageEventResponse{
			ID:         e.ID,
			Kind:       e.Kind.String(),
			Outcome:    string(e.Outcome),
			Reason:     string(e.Reason),
			OccurredAt: e.OccurredAt,
		}
		if len(e.Details) > 0 {
			item.Details = e.Details
		}
		resp.Events = append(resp.Events, item)
	}
	return resp
}
