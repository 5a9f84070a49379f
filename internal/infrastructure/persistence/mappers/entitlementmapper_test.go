package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

func TestEntitlementMapper_ToEntity(t *testing.T) {
	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	model := &models.EntitlementModel{
		SubscriberID:     11,
		PlanID:           3,
		InterestLimit:    -1,
		InterestUsed:     40,
		ContactViewLimit: 10,
		ContactViewUsed:  4,
		ImageLimit:       6,
		ExpiresAt:        &expires,
		Version:          2,
	}

	e, err := NewEntitlementMapper().ToEntity(model)
	require.NoError(t, err)

	s := e.State()
	assert.True(t, s.InterestLimit.IsUnlimited())
	assert.Equal(t, uint64(40), s.InterestUsed)
	assert.True(t, quota.Bounded(10).Equal(s.ContactViewLimit))
	assert.True(t, quota.Bounded(6).Equal(s.ImageLimit))
	assert.Equal(t, 2, s.Version)

	back := NewEntitlementMapper().ToModel(e)
	assert.Equal(t, int64(-1), back.InterestLimit)
	assert.Equal(t, int64(10), back.ContactViewLimit)
	assert.Equal(t, expires, *back.ExpiresAt)
}

func TestEntitlementMapper_RejectsCorruptRows(t *testing.T) {
	mapper := NewEntitlementMapper()

	_, err := mapper.ToEntity(&models.EntitlementModel{SubscriberID: 1, InterestLimit: 5, InterestUsed: 6})
	assert.ErrorIs(t, err, quota.ErrInvariantViolation)

	_, err = mapper.ToEntity(&models.EntitlementModel{SubscriberID: 1, ContactViewLimit: -3})
	assert.ErrorIs(t, err, quota.ErrInvalidLimit)

	_, err = mapper.ToEntity(&models.EntitlementModel{SubscriberID: 1, InterestLimit: 5, InterestUsed: -1})
	assert.ErrorIs(t, err, quota.ErrInvariantViolation)
}

func TestPlanMapper_RoundTripWithMetadata(t *testing.T) {
	model := &models.PlanModel{
		ID:               4,
		Name:             "Platinum",
		Description:      "Unlimited interests for a year",
		InterestLimit:    -1,
		ContactViewLimit: 200,
		ImageLimit:       20,
		ValidityDays:     365,
		Metadata:         []byte(`{"tier":"premium"}`),
	}

	plan, err := NewPlanMapper().ToEntity(model)
	require.NoError(t, err)
	assert.True(t, plan.Limits().Interest.IsUnlimited())
	assert.Equal(t, "premium", plan.Metadata()["tier"])

	days, ok := plan.Validity().Days()
	require.True(t, ok)
	assert.Equal(t, uint32(365), days)

	back, err := NewPlanMapper().ToModel(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), back.InterestLimit)
	assert.Equal(t, int64(365), back.ValidityDays)
	assert.JSONEq(t, `{"tier":"premium"}`, string(back.Metadata))
}
