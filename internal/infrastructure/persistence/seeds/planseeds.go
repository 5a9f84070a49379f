package seeds

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saathi-inc/saathi/internal/domain/quota"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

const (
	yamlUnlimited = "unlimited"
	yamlLifetime  = "lifetime"
)

type planFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID               uint           `yaml:"id"`
	Name             string         `yaml:"name"`
	Description      string         `yaml:"description"`
	InterestLimit    limitValue     `yaml:"interest_limit"`
	ContactViewLimit limitValue     `yaml:"contact_view_limit"`
	ImageLimit       limitValue     `yaml:"image_limit"`
	ValidityDays     validityValue  `yaml:"validity_days"`
	Metadata         map[string]any `yaml:"metadata"`
}

type limitValue struct {
	limit quota.Limit
	set   bool
}

func (l *limitValue) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if strings.EqualFold(raw, yamlUnlimited) {
		l.limit, l.set = quota.Unlimited(), true
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: %w: %q is neither a non-negative integer nor %q", node.Line, quota.ErrInvalidLimit, raw, yamlUnlimited)
	}
	l.limit, l.set = quota.Bounded(n), true
	return nil
}

type validityValue struct {
	validity quota.Validity
	set      bool
}

func (v *validityValue) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if strings.EqualFold(raw, yamlLifetime) {
		v.validity, v.set = quota.Lifetime(), true
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("line %d: %w: %q is neither a positive integer nor %q", node.Line, quota.ErrInvalidValidity, raw, yamlLifetime)
	}
	validity, err := quota.ValidForDays(uint32(n))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	v.validity, v.set = validity, true
	return nil
}

// DefaultPlans returns the built-in plan catalog.
func DefaultPlans() ([]*quota.Plan, error) {
	return LoadPlans(bytes.NewReader(defaultPlansYAML))
}

// LoadPlansFile reads a plan catalog from a YAML file.
func LoadPlansFile(path string) ([]*quota.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan file: %w", err)
	}
	defer f.Close()
	return LoadPlans(f)
}

// LoadPlans parses a plan catalog. Every limit and validity must be given explicitly
// and plan IDs must be unique.
func LoadPlans(r io.Reader) ([]*quota.Plan, error) {
	var file planFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	seen := make(map[uint]struct{}, len(file.Plans))
	plans := make([]*quota.Plan, 0, len(file.Plans))
	for i, entry := range file.Plans {
		plan, err := entry.toPlan()
		if err != nil {
			return nil, fmt.Errorf("plan #%d (%s): %w", i+1, entry.Name, err)
		}
		if _, dup := seen[plan.ID()]; dup {
			return nil, fmt.Errorf("plan #%d: duplicate plan id %d", i+1, plan.ID())
		}
		seen[plan.ID()] = struct{}{}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (e planEntry) toPlan() (*quota.Plan, error) {
	for field, set := range map[string]bool{
		"interest_limit":     e.InterestLimit.set,
		"contact_view_limit": e.ContactViewLimit.set,
		"image_limit":        e.ImageLimit.set,
		"validity_days":      e.ValidityDays.set,
	} {
		if !set {
			return nil, fmt.Errorf("%s is required", field)
		}
	}

	plan, err := quota.NewPlan(e.ID, e.Name, quota.PlanLimits{
		Interest:    e.InterestLimit.limit,
		ContactView: e.ContactViewLimit.limit,
		Image:       e.ImageLimit.limit,
	}, e.ValidityDays.validity)
	if err != nil {
		return nil, err
	}
	if e.Description != "" {
		plan = plan.WithDescription(e.Description)
	}
	if len(e.Metadata) > 0 {
		plan = plan.WithMetadata(e.Metadata)
	}
	return plan, nil
}

// SeedPlans upserts every plan through writer. It is idempotent.
func SeedPlans(ctx context.Context, writer quota.PlanWriter, plans []*quota.Plan) error {
	for _, plan := range plans {
		if err := writer.Upsert(ctx, plan); err != nil {
			return fmt.Errorf("failed to seed plan %d: %w", plan.ID(), err)
		}
	}
	return nil
}
