package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/cache"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// GetEntitlementQuery reads SubscriberID's entitlement for display at Now.
type GetEntitlementQuery struct {
	SubscriberID uint
	Now          time.Time
}

// GetEntitlementUseCase serves dashboard reads through the display cache.
// The image count is always fetched live.
type GetEntitlementUseCase struct {
	store  quota.EntitlementStore
	cache  cache.EntitlementCache
	images quota.ImageCounter // Optional
	logger logger.Interface
}

// NewGetEntitlementUseCase creates the read use case. images may be nil.
func NewGetEntitlementUseCase(
	store quota.EntitlementStore,
	entitlementCache cache.EntitlementCache,
	images quota.ImageCounter,
	logger logger.Interface,
) *GetEntitlementUseCase {
	if entitlementCache == nil {
		entitlementCache = cache.NopEntitlementCache{}
	}
	return &GetEntitlementUseCase{
		store:  store,
		cache:  entitlementCache,
		images: images,
		logger: logger,
	}
}

func (uc *GetEntitlementUseCase) Execute(ctx context.Context, query GetEntitlementQuery) (*dto.EntitlementResponse, error) {
	if query.SubscriberID == 0 {
		return nil, apperrors.NewValidationError("subscriber ID is required")
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	entitlement, err := uc.load(ctx, query.SubscriberID)
	if err != nil {
		return nil, toAppError(err)
	}

	var imageCount *uint64
	if uc.images != nil {
		count, err := uc.images.CountOf(ctx, query.SubscriberID)
		if err != nil {
			uc.logger.Warnw("failed to count images for display",
				"subscriber_id", query.SubscriberID,
				"error", err,
			)
		} else {
			imageCount = &count
		}
	}

	resp := dto.ToEntitlementResponse(entitlement, now, imageCount)
	return &resp, nil
}

func (uc *GetEntitlementUseCase) load(ctx context.Context, subscriberID uint) (*quota.Entitlement, error) {
	cached, err := uc.cache.Get(ctx, subscriberID)
	if err != nil {
		uc.logger.Warnw("entitlement cache read failed, falling back to store",
			"subscriber_id", subscriberID,
			"error", err,
		)
	}
	if cached != nil {
		if cached.NotFound {
			return nil, quota.ErrNoEntitlement
		}
		return cached.Entitlement, nil
	}

	entitlement, err := uc.store.Get(ctx, subscriberID)
	if err != nil {
		if errors.Is(err, quota.ErrNoEntitlement) {
			if cacheErr := uc.cache.SetNullMarker(ctx, subscriberID); cacheErr != nil {
				uc.logger.Warnw("failed to cache missing entitlement", "subscriber_id", subscriberID, "error", cacheErr)
			}
			return nil, err
		}
		uc.logger.Errorw("failed to get entitlement", "subscriber_id", subscriberID, "error", err)
		return nil, err
	}

	if err := uc.cache.Set(ctx, entitlement); err != nil {
		uc.logger.Warnw("failed to cache entitlement", "subscriber_id", subscriberID, "error", err)
	}
	return entitlement, nil
}
