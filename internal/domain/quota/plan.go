package quota

import (
	"fmt"
	"strings"
)

// Plan is immutable reference data describing a subscription tier:
// how many of each action it grants and for how long.
type Plan struct {
	id               uint
	name             string
	description      string
	interestLimit    Limit
	contactViewLimit Limit
	imageLimit       Limit
	validity         Validity
	metadata         map[string]any
}

// PlanLimits groups the per-kind allowances of a plan.
type PlanLimits struct {
	Interest    Limit
	ContactView Limit
	Image       Limit
}

// NewPlan creates a plan definition.
func NewPlan(id uint, name string, limits PlanLimits, validity Validity) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if days, _ := validity.Days(); !validity.IsLifetime() && days == 0 {
		return nil, fmt.Errorf("%w: plan %d has no validity", ErrInvalidValidity, id)
	}

	return &Plan{
		id:               id,
		name:             name,
		interestLimit:    limits.Interest,
		contactViewLimit: limits.ContactView,
		imageLimit:       limits.Image,
		validity:         validity,
		metadata:         make(map[string]any),
	}, nil
}

// ID returns the plan ID
func (p *Plan) ID() uint {
	return p.id
}

// Name returns the plan name
func (p *Plan) Name() string {
	return p.name
}

// Description returns the plan description
func (p *Plan) Description() string {
	return p.description
}

// Validity returns how long an application of the plan stays valid
func (p *Plan) Validity() Validity {
	return p.validity
}

// Limits returns all per-kind allowances of the plan
func (p *Plan) Limits() PlanLimits {
	return PlanLimits{
		Interest:    p.interestLimit,
		ContactView: p.contactViewLimit,
		Image:       p.imageLimit,
	}
}

// LimitFor returns the plan's allowance for kind.
func (p *Plan) LimitFor(kind ResourceKind) (Limit, error) {
	switch kind {
	case ResourceKindInterest:
		return p.interestLimit, nil
	case ResourceKindContactView:
		return p.contactViewLimit, nil
	case ResourceKindImage:
		return p.imageLimit, nil
	default:
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidResourceKind, kind)
	}
}

// Metadata returns a copy of the plan metadata
func (p *Plan) Metadata() map[string]any {
	result := make(map[string]any, len(p.metadata))
	for k, v := range p.metadata {
		result[k] = v
	}
	return result
}

// WithDescription returns a copy of the plan carrying description.
func (p *Plan) WithDescription(description string) *Plan {
	cp := *p
	cp.description = strings.TrimSpace(description)
	return &cp
}

// WithMetadata returns a copy of the plan carrying metadata.
func (p *Plan) WithMetadata(metadata map[string]any) *Plan {
	cp := *p
	cp.metadata = make(map[string]any, len(metadata))
	for k, v := range metadata {
		cp.metadata[k] = v
	}
	return &cp
}
