package cache

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const defaultPlanCacheSize = 128

// CachedPlanCatalog decorates a PlanCatalog with an in-process LRU.
// Plans are immutable at runtime, so entries never need invalidation
// except through Purge after a reseed.
type CachedPlanCatalog struct {
	next      quota.PlanCatalog
	plans     *lru.Cache[uint, *quota.Plan]
	loadGroup singleflight.Group // Collapses concurrent misses for the same plan
	logger    logger.Interface
}

var _ quota.PlanCatalog = (*CachedPlanCatalog)(nil)

// NewCachedPlanCatalog wraps next with an LRU holding up to size plans.
func NewCachedPlanCatalog(next quota.PlanCatalog, size int, logger logger.Interface) *CachedPlanCatalog {
	if size <= 0 {
		size = defaultPlanCacheSize
	}
	plans, err := lru.New[uint, *quota.Plan](size)
	if err != nil {
		logger.Warnw("failed to create plan cache with configured size, using default",
			"size", size,
			"error", err,
		)
		plans, _ = lru.New[uint, *quota.Plan](defaultPlanCacheSize)
	}
	return &CachedPlanCatalog{
		next:   next,
		plans:  plans,
		logger: logger,
	}
}

// GetPlan returns the cached plan or loads it once. Unknown plans are not cached.
func (c *CachedPlanCatalog) GetPlan(ctx context.Context, planID uint) (*quota.Plan, error) {
	if plan, ok := c.plans.Get(planID); ok {
		return plan, nil
	}

	result, err, _ := c.loadGroup.Do(strconv.FormatUint(uint64(planID), 10), func() (any, error) {
		// Another caller may have filled the entry while we waited.
		if plan, ok := c.plans.Get(planID); ok {
			return plan, nil
		}
		plan, err := c.next.GetPlan(ctx, planID)
		if err != nil {
			return nil, err
		}
		c.plans.Add(planID, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*quota.Plan), nil
}

// ListPlans always reads through and warms the cache with the result.
func (c *CachedPlanCatalog) ListPlans(ctx context.Context) ([]*quota.Plan, error) {
	plans, err := c.next.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, plan := range plans {
		c.plans.Add(plan.ID(), plan)
	}
	return plans, nil
}

// Purge drops every cached plan.
func (c *CachedPlanCatalog) Purge() {
	c.plans.Purge()
	c.logger.Debugw("plan cache purged")
}

// Len reports the number of cached plans.
func (c *CachedPlanCatalog) Len() int {
	return c.plans.Len()
}
