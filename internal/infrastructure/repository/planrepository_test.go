package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

func TestPlanRepository_UpsertGetList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlanRepository(db, logger.NewNop())
	ctx := context.Background()

	thirty, err := quota.ValidForDays(30)
	require.NoError(t, err)

	free := mustPlan(t, 1, quota.Bounded(5), quota.Bounded(2), quota.Bounded(3), quota.Lifetime())
	gold := mustPlan(t, 2, quota.Unlimited(), quota.Bounded(50), quota.Bounded(10), thirty).
		WithMetadata(map[string]any{"badge": "gold"})

	require.NoError(t, repo.Upsert(ctx, gold))
	require.NoError(t, repo.Upsert(ctx, free))

	got, err := repo.GetPlan(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.Limits().Interest.IsUnlimited())
	assert.Equal(t, "gold", got.Metadata()["badge"])

	_, err = repo.GetPlan(ctx, 42)
	assert.ErrorIs(t, err, quota.ErrPlanNotFound)

	plans, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, uint(1), plans[0].ID())

	updated := mustPlan(t, 1, quota.Bounded(7), quota.Bounded(2), quota.Bounded(3), quota.Lifetime())
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err = repo.GetPlan(ctx, 1)
	require.NoError(t, err)
	assert.True(t, quota.Bounded(7).Equal(got.Limits().Interest))

	plans, err = repo.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
