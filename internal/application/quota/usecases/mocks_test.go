package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/cache"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, subscriberID uint) (*quota.Entitlement, error) {
	args := m.Called(ctx, subscriberID)
	e, _ := args.Get(0).(*quota.Entitlement)
	return e, args.Error(1)
}

func (m *mockStore) TryConsume(ctx context.Context, subscriberID uint, kind quota.ResourceKind, now time.Time) (quota.ConsumeOutcome, error) {
	args := m.Called(ctx, subscriberID, kind, now)
	return args.Get(0).(quota.ConsumeOutcome), args.Error(1)
}

// ApplyRenewal runs renew against the entitlement configured as the first
// return value and then returns the renew result, or the configured error.
func (m *mockStore) ApplyRenewal(ctx context.Context, subscriberID uint, renew quota.RenewFunc) (*quota.Entitlement, error) {
	args := m.Called(ctx, subscriberID, renew)
	current, _ := args.Get(0).(*quota.Entitlement)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return renew(current)
}

func (m *mockStore) IsValid(ctx context.Context, subscriberID uint, now time.Time) (bool, error) {
	args := m.Called(ctx, subscriberID, now)
	return args.Bool(0), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetPlan(ctx context.Context, planID uint) (*quota.Plan, error) {
	args := m.Called(ctx, planID)
	p, _ := args.Get(0).(*quota.Plan)
	return p, args.Error(1)
}

func (m *mockCatalog) ListPlans(ctx context.Context) ([]*quota.Plan, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]*quota.Plan)
	return p, args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Append(ctx context.Context, event *quota.UsageEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockLedger) ListBySubscriber(ctx context.Context, subscriberID uint, since time.Time, limit int) ([]*quota.UsageEvent, error) {
	args := m.Called(ctx, subscriberID, since, limit)
	e, _ := args.Get(0).([]*quota.UsageEvent)
	return e, args.Error(1)
}

func (m *mockLedger) Summarize(ctx context.Context, subscriberID uint, since time.Time) ([]quota.UsageSummary, error) {
	args := m.Called(ctx, subscriberID, since)
	s, _ := args.Get(0).([]quota.UsageSummary)
	return s, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEntitlementChanged(ctx context.Context, event quota.EntitlementChangedEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, subscriberID uint) (*cache.CachedEntitlement, error) {
	args := m.Called(ctx, subscriberID)
	c, _ := args.Get(0).(*cache.CachedEntitlement)
	return c, args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, entitlement *quota.Entitlement) error {
	return m.Called(ctx, entitlement).Error(0)
}

func (m *mockCache) SetNullMarker(ctx context.Context, subscriberID uint) error {
	return m.Called(ctx, subscriberID).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, subscriberID uint) error {
	return m.Called(ctx, subscriberID).Error(0)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordDecision(kind, outcome, reason string) {
	m.Called(kind, outcome, reason)
}

func (m *mockMetrics) RecordRenewal(mode string) {
	m.Called(mode)
}

func (m *mockMetrics) RecordConflictRetry(operation string) {
	m.Called(operation)
}

type fixedImageCounter uint64

func (f fixedImageCounter) CountOf(context.Context, uint) (uint64, error) {
	return uint64(f), nil
}

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func entitlementFixture(t *testing.T, state quota.EntitlementState) *quota.Entitlement {
	t.Helper()
	if state.SubscriberID == 0 {
		state.SubscriberID = 42
	}
	if state.Version == 0 {
		state.Version = 1
	}
	e, err := quota.ReconstructEntitlement(state)
	require.NoError(t, err)
	return e
}

func planFixture(t *testing.T, id uint, interest, contactView, image quota.Limit, days uint32) *quota.Plan {
	t.Helper()
	validity := quota.Lifetime()
	if days > 0 {
		v, err := quota.ValidForDays(days)
		require.NoError(t, err)
		validity = v
	}
	p, err := quota.NewPlan(id, "Plan", quota.PlanLimits{Interest: interest, ContactView: contactView, Image: image}, validity)
	require.NoError(t, err)
	return p
}

func timePtr(t time.Time) *time.Time {
	return &t
}
