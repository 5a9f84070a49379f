package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructEntitlement_RejectsUsedAboveLimit(t *testing.T) {
	_, err := ReconstructEntitlement(EntitlementState{
		SubscriberID:  1,
		InterestLimit: Bounded(5),
		InterestUsed:  6,
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = ReconstructEntitlement(EntitlementState{
		SubscriberID:     1,
		InterestLimit:    Unlimited(),
		InterestUsed:     600,
		ContactViewLimit: Bounded(2),
		ContactViewUsed:  3,
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestReconstructEntitlement_UnlimitedAcceptsAnyUsed(t *testing.T) {
	e, err := ReconstructEntitlement(EntitlementState{
		SubscriberID:  1,
		InterestLimit: Unlimited(),
		InterestUsed:  600,
	})
	require.NoError(t, err)

	remaining, err := e.Remaining(ResourceKindInterest)
	require.NoError(t, err)
	assert.True(t, remaining.IsUnlimited())
}

func TestEntitlement_RemainingAndValidity(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	e, err := ReconstructEntitlement(EntitlementState{
		SubscriberID:     7,
		InterestLimit:    Bounded(10),
		InterestUsed:     4,
		ContactViewLimit: Bounded(3),
		ImageLimit:       Bounded(5),
		ExpiresAt:        &past,
	})
	require.NoError(t, err)

	remaining, err := e.Remaining(ResourceKindInterest)
	require.NoError(t, err)
	assert.True(t, Bounded(6).Equal(remaining))

	_, err = e.Remaining(ResourceKindImage)
	assert.ErrorIs(t, err, ErrInvalidResourceKind)

	assert.True(t, Bounded(2).Equal(e.RemainingImages(3)))
	assert.True(t, Bounded(0).Equal(e.RemainingImages(9)))

	assert.False(t, e.IsValid(now))
	assert.False(t, e.IsLifetime())
}

func TestEntitlement_ExpiresAtIsCopied(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	e, err := ReconstructEntitlement(EntitlementState{SubscriberID: 1, ExpiresAt: &expiry})
	require.NoError(t, err)

	got := e.ExpiresAt()
	*got = got.Add(-48 * time.Hour)
	assert.True(t, e.IsValid(time.Now()))
}
