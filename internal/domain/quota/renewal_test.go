package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func testPlan(t *testing.T, interest, contactView, image Limit, validity Validity) *Plan {
	t.Helper()
	p, err := NewPlan(2, "Gold", PlanLimits{Interest: interest, ContactView: contactView, Image: image}, validity)
	require.NoError(t, err)
	return p
}

func days(t *testing.T, n uint32) Validity {
	t.Helper()
	v, err := ValidForDays(n)
	require.NoError(t, err)
	return v
}

func testEntitlement(t *testing.T, interest Limit, interestUsed uint64, expiresAt *time.Time) *Entitlement {
	t.Helper()
	e, err := ReconstructEntitlement(EntitlementState{
		SubscriberID:     9,
		PlanID:           1,
		InterestLimit:    interest,
		InterestUsed:     interestUsed,
		ContactViewLimit: Bounded(5),
		ContactViewUsed:  2,
		ImageLimit:       Bounded(3),
		ExpiresAt:        expiresAt,
		Version:          4,
	})
	require.NoError(t, err)
	return e
}

var renewalNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// =============================================================================
// Mode selection
// =============================================================================

func TestSelectRenewalMode(t *testing.T) {
	future := renewalNow.Add(24 * time.Hour)
	past := renewalNow.Add(-time.Second)
	exact := renewalNow

	assert.Equal(t, RenewalModeReset, SelectRenewalMode(nil, renewalNow))
	assert.Equal(t, RenewalModeMerge, SelectRenewalMode(testEntitlement(t, Bounded(10), 4, &future), renewalNow))
	assert.Equal(t, RenewalModeMerge, SelectRenewalMode(testEntitlement(t, Bounded(10), 4, &exact), renewalNow))
	assert.Equal(t, RenewalModeReset, SelectRenewalMode(testEntitlement(t, Bounded(10), 4, &past), renewalNow))
	assert.Equal(t, RenewalModeReset, SelectRenewalMode(testEntitlement(t, Bounded(10), 4, nil), renewalNow))
}

// =============================================================================
// Renew
// =============================================================================

func TestRenew_MergeWhileActive(t *testing.T) {
	future := renewalNow.Add(10 * 24 * time.Hour)
	current := testEntitlement(t, Bounded(10), 4, &future)
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), days(t, 30))

	next, mode, err := Renew(9, current, plan, renewalNow, DefaultRenewalPolicy())
	require.NoError(t, err)

	assert.Equal(t, RenewalModeMerge, mode)
	s := next.State()
	assert.True(t, Bounded(26).Equal(s.InterestLimit), "got %s", s.InterestLimit)
	assert.Equal(t, uint64(0), s.InterestUsed)
	assert.True(t, Bounded(11).Equal(s.ContactViewLimit), "got %s", s.ContactViewLimit)
	assert.Equal(t, uint64(0), s.ContactViewUsed)
	assert.True(t, Bounded(12).Equal(s.ImageLimit), "image limit is replaced, not merged")
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, renewalNow.Add(30*24*time.Hour), *s.ExpiresAt)
	assert.Equal(t, uint(2), s.PlanID)
	assert.Equal(t, 4, s.Version, "version is carried for the store's optimistic check")
}

func TestRenew_UnlimitedAbsorption(t *testing.T) {
	future := renewalNow.Add(time.Hour)

	t.Run("unlimited entitlement merged with bounded plan", func(t *testing.T) {
		current := testEntitlement(t, Unlimited(), 50, &future)
		plan := testPlan(t, Bounded(20), Bounded(1), Bounded(1), days(t, 7))

		next, _, err := Renew(9, current, plan, renewalNow, DefaultRenewalPolicy())
		require.NoError(t, err)
		assert.True(t, next.State().InterestLimit.IsUnlimited())
	})

	t.Run("bounded entitlement merged with unlimited plan", func(t *testing.T) {
		current := testEntitlement(t, Bounded(10), 9, &future)
		plan := testPlan(t, Unlimited(), Bounded(1), Bounded(1), days(t, 7))

		next, _, err := Renew(9, current, plan, renewalNow, DefaultRenewalPolicy())
		require.NoError(t, err)
		assert.True(t, next.State().InterestLimit.IsUnlimited())
	})
}

func TestRenew_ResetWhenExpired(t *testing.T) {
	past := renewalNow.Add(-time.Hour)
	current := testEntitlement(t, Bounded(10), 9, &past)
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), days(t, 30))

	next, mode, err := Renew(9, current, plan, renewalNow, DefaultRenewalPolicy())
	require.NoError(t, err)

	assert.Equal(t, RenewalModeReset, mode)
	s := next.State()
	assert.True(t, Bounded(20).Equal(s.InterestLimit))
	assert.Equal(t, uint64(0), s.InterestUsed)
	assert.True(t, Bounded(8).Equal(s.ContactViewLimit))
	assert.Equal(t, uint64(0), s.ContactViewUsed)
}

func TestRenew_ResetWhenAbsent(t *testing.T) {
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), Lifetime())

	next, mode, err := Renew(9, nil, plan, renewalNow, DefaultRenewalPolicy())
	require.NoError(t, err)

	assert.Equal(t, RenewalModeReset, mode)
	s := next.State()
	assert.Equal(t, uint(9), s.SubscriberID)
	assert.Nil(t, s.ExpiresAt, "lifetime plan grants a lifetime entitlement")
	assert.Equal(t, 0, s.Version)
	assert.Equal(t, renewalNow, s.CreatedAt)
}

func TestRenew_LifetimeEntitlementResets(t *testing.T) {
	current := testEntitlement(t, Bounded(10), 4, nil)
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), days(t, 30))

	next, mode, err := Renew(9, current, plan, renewalNow, DefaultRenewalPolicy())
	require.NoError(t, err)

	assert.Equal(t, RenewalModeReset, mode)
	assert.True(t, Bounded(20).Equal(next.State().InterestLimit))
}

func TestRenew_CountPolicyReset(t *testing.T) {
	future := renewalNow.Add(time.Hour)
	current := testEntitlement(t, Bounded(10), 4, &future)
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), days(t, 30))

	policy := RenewalPolicy{Counts: CountPolicyReset, Window: WindowPolicyFromNow}
	next, mode, err := Renew(9, current, plan, renewalNow, policy)
	require.NoError(t, err)

	assert.Equal(t, RenewalModeMerge, mode)
	assert.True(t, Bounded(20).Equal(next.State().InterestLimit))
}

func TestRenew_WindowPolicyExtend(t *testing.T) {
	oldExpiry := renewalNow.Add(10 * 24 * time.Hour)
	current := testEntitlement(t, Bounded(10), 4, &oldExpiry)
	plan := testPlan(t, Bounded(20), Bounded(8), Bounded(12), days(t, 30))

	policy := RenewalPolicy{Counts: CountPolicyMerge, Window: WindowPolicyExtend}
	next, _, err := Renew(9, current, plan, renewalNow, policy)
	require.NoError(t, err)

	require.NotNil(t, next.ExpiresAt())
	assert.Equal(t, oldExpiry.Add(30*24*time.Hour), *next.ExpiresAt())
	assert.True(t, Bounded(26).Equal(next.State().InterestLimit))

	lifetime := testPlan(t, Bounded(20), Bounded(8), Bounded(12), Lifetime())
	next, _, err = Renew(9, current, lifetime, renewalNow, policy)
	require.NoError(t, err)
	assert.Nil(t, next.ExpiresAt())
}

func TestRenew_InvalidInput(t *testing.T) {
	plan := testPlan(t, Bounded(1), Bounded(1), Bounded(1), Lifetime())

	_, _, err := Renew(9, nil, nil, renewalNow, DefaultRenewalPolicy())
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, _, err = Renew(0, nil, plan, renewalNow, DefaultRenewalPolicy())
	assert.Error(t, err)

	_, _, err = Renew(9, nil, plan, renewalNow, RenewalPolicy{Counts: "sum", Window: WindowPolicyFromNow})
	assert.ErrorIs(t, err, ErrInvalidRenewalPolicy)
}

func TestParseRenewalPolicy(t *testing.T) {
	p, err := ParseRenewalPolicy("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRenewalPolicy(), p)

	p, err = ParseRenewalPolicy("reset", "extend")
	require.NoError(t, err)
	assert.Equal(t, CountPolicyReset, p.Counts)
	assert.Equal(t, WindowPolicyExtend, p.Window)

	_, err = ParseRenewalPolicy("merge", "forever")
	assert.ErrorIs(t, err, ErrInvalidRenewalPolicy)
}

func TestNewUsageEvent(t *testing.T) {
	e, err := NewUsageEvent("evt-1", 3, Allow(ResourceKindInterest, Bounded(2)), renewalNow)
	require.NoError(t, err)
	assert.Equal(t, UsageOutcomeConsumed, e.Outcome)
	assert.Equal(t, "2", e.Details["remaining"])

	e, err = NewUsageEvent("evt-2", 3, Deny(ResourceKindImage, DenyReasonQuotaExceeded), renewalNow)
	require.NoError(t, err)
	assert.Equal(t, UsageOutcomeDenied, e.Outcome)
	assert.Equal(t, DenyReasonQuotaExceeded, e.Reason)

	_, err = NewUsageEvent("evt-3", 3, Deny("video", DenyReasonQuotaExceeded), renewalNow)
	assert.ErrorIs(t, err, ErrInvalidResourceKind)
}
