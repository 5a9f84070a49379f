package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

func newProvisionUseCase(f *applyFixture, defaultPlanID uint) *ProvisionDefaultUseCase {
	notifier := NewChangeNotifier(f.cache, f.publisher, logger.NewNop())
	return NewProvisionDefaultUseCase(f.catalog, f.store, defaultPlanID, fastRetry(), notifier, f.metrics, logger.NewNop())
}

func TestProvisionDefault_CreatesMissingEntitlement(t *testing.T) {
	f := newApplyFixture()
	ctx := context.Background()

	free := planFixture(t, 1, quota.Bounded(5), quota.Bounded(0), quota.Bounded(3), 0)
	f.store.On("Get", ctx, uint(42)).Return(nil, quota.ErrNoEntitlement)
	f.catalog.On("GetPlan", ctx, uint(1)).Return(free, nil)
	f.store.On("ApplyRenewal", ctx, uint(42), mock.Anything).Return(nil, nil)
	f.metrics.On("RecordRenewal", "reset").Return()
	f.cache.On("Invalidate", mock.Anything, uint(42)).Return(nil)
	f.publisher.On("PublishEntitlementChanged", mock.Anything, mock.MatchedBy(func(e quota.EntitlementChangedEvent) bool {
		return e.Reason == "provision"
	})).Return(nil)

	resp, err := newProvisionUseCase(f, 1).Execute(ctx, ProvisionDefaultCommand{SubscriberID: 42, Now: testNow})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, uint(1), resp.Entitlement.PlanID)
	assert.Equal(t, uint64(5), resp.Entitlement.Interest.Limit.Value)
	assert.True(t, resp.Entitlement.Active)

	f.publisher.AssertExpectations(t)
}

func TestProvisionDefault_ExistingEntitlementUntouched(t *testing.T) {
	f := newApplyFixture()
	ctx := context.Background()

	existing := activeEntitlement(t)
	f.store.On("Get", ctx, uint(42)).Return(existing, nil)

	resp, err := newProvisionUseCase(f, 1).Execute(ctx, ProvisionDefaultCommand{SubscriberID: 42, Now: testNow})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, uint64(1), resp.Entitlement.Interest.Used)

	f.store.AssertNotCalled(t, "ApplyRenewal", mock.Anything, mock.Anything, mock.Anything)
	f.catalog.AssertNotCalled(t, "GetPlan", mock.Anything, mock.Anything)
}

func TestProvisionDefault_LosesRaceToConcurrentProvision(t *testing.T) {
	f := newApplyFixture()
	ctx := context.Background()

	free := planFixture(t, 1, quota.Bounded(5), quota.Bounded(0), quota.Bounded(3), 0)
	existing := activeEntitlement(t)

	f.store.On("Get", ctx, uint(42)).Return(nil, quota.ErrNoEntitlement).Once()
	f.catalog.On("GetPlan", ctx, uint(1)).Return(free, nil)
	// The row appeared between the read and the locked write.
	f.store.On("ApplyRenewal", ctx, uint(42), mock.Anything).Return(existing, nil)
	f.store.On("Get", ctx, uint(42)).Return(existing, nil).Once()

	resp, err := newProvisionUseCase(f, 1).Execute(ctx, ProvisionDefaultCommand{SubscriberID: 42, Now: testNow})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, existing.Version(), resp.Entitlement.Version)
	f.metrics.AssertNotCalled(t, "RecordRenewal", mock.Anything)
}

func TestProvisionDefault_Misconfigured(t *testing.T) {
	f := newApplyFixture()

	_, err := newProvisionUseCase(f, 0).Execute(context.Background(), ProvisionDefaultCommand{SubscriberID: 42})
	assert.Equal(t, apperrors.ErrorTypeBadRequest, apperrors.GetAppError(err).Type)

	f.store.On("Get", mock.Anything, uint(42)).Return(nil, quota.ErrNoEntitlement)
	f.catalog.On("GetPlan", mock.Anything, uint(7)).Return(nil, quota.ErrPlanNotFound)
	_, err = newProvisionUseCase(f, 7).Execute(context.Background(), ProvisionDefaultCommand{SubscriberID: 42})
	assert.True(t, apperrors.IsNotFoundError(err))
}
