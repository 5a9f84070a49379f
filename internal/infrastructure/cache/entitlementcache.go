package cache

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/mappers"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// CachedEntitlement is a display snapshot read from the cache.
type CachedEntitlement struct {
	Entitlement *quota.Entitlement
	NotFound    bool // Null marker: subscriber confirmed unprovisioned in DB
}

// EntitlementCache caches entitlement snapshots for display reads only.
// Quota decisions never consult it.
type EntitlementCache interface {
	// Get returns nil on a cache miss.
	Get(ctx context.Context, subscriberID uint) (*CachedEntitlement, error)
	Set(ctx context.Context, entitlement *quota.Entitlement) error
	// SetNullMarker caches a short-lived marker for an unprovisioned subscriber.
	SetNullMarker(ctx context.Context, subscriberID uint) error
	Invalidate(ctx context.Context, subscriberID uint) error
}

const (
	entitlementTTLJitterRatio = 3 // jitter is up to a third of the base TTL (anti-stampede)
	entitlementNullMarkerTTL  = 30 * time.Second
	entitlementTombstoneTTL   = 5 * time.Second

	fieldPlanID           = "plan_id"
	fieldInterestLimit    = "interest_limit"
	fieldInterestUsed     = "interest_used"
	fieldContactViewLimit = "contact_view_limit"
	fieldContactViewUsed  = "contact_view_used"
	fieldImageLimit       = "image_limit"
	fieldExpiresAt        = "expires_at"
	fieldVersion          = "version"
	fieldUpdatedAt        = "updated_at"
	fieldNullMarker       = "_null"
	fieldInvalidated      = "_invalidated"
)

// setEntitlementScript replaces the cached snapshot unless a write invalidated
// the key since the caller read the store, or a newer version is already cached.
// KEYS[1] = entitlement hash key
// ARGV[1] = version, ARGV[2] = TTL in milliseconds, ARGV[3..] = field/value pairs
// Returns 1 if written, 0 if skipped
var setEntitlementScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], '_invalidated') == 1 then
    return 0
end
local cached = redis.call('HGET', KEYS[1], 'version')
if cached and tonumber(cached) > tonumber(ARGV[1]) then
    return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// setNullMarkerScript marks a subscriber as unprovisioned only while nothing
// else is cached for it.
// KEYS[1] = entitlement hash key
// ARGV[1] = TTL in milliseconds
// Returns 1 if written, 0 if skipped
var setNullMarkerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 and redis.call('HEXISTS', KEYS[1], '_null') == 0 then
    return 0
end
redis.call('HSET', KEYS[1], '_null', '1')
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return 1
`)

// RedisEntitlementCache implements EntitlementCache using a Redis hash per subscriber.
type RedisEntitlementCache struct {
	client  *redis.Client
	baseTTL time.Duration
	logger  logger.Interface
}

// NewRedisEntitlementCache creates a Redis-backed display cache with the given base TTL.
func NewRedisEntitlementCache(client *redis.Client, baseTTL time.Duration, logger logger.Interface) *RedisEntitlementCache {
	if baseTTL <= 0 {
		baseTTL = time.Minute
	}
	return &RedisEntitlementCache{
		client:  client,
		baseTTL: baseTTL,
		logger:  logger,
	}
}

func (c *RedisEntitlementCache) key(subscriberID uint) string {
	return fmt.Sprintf("%s%d", constants.CacheKeyEntitlementPrefix, subscriberID)
}

func (c *RedisEntitlementCache) Get(ctx context.Context, subscriberID uint) (*CachedEntitlement, error) {
	result, err := c.client.HGetAll(ctx, c.key(subscriberID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get entitlement from cache: %w", err)
	}

	if len(result) == 0 || result[fieldInvalidated] == "1" {
		return nil, nil // Cache miss
	}

	if result[fieldNullMarker] == "1" {
		return &CachedEntitlement{NotFound: true}, nil
	}

	entitlement, err := decodeEntitlement(subscriberID, result)
	if err != nil {
		// A malformed entry is treated as a miss and dropped.
		c.logger.Warnw("discarding malformed cached entitlement", "subscriber_id", subscriberID, "error", err)
		_ = c.client.Del(ctx, c.key(subscriberID)).Err()
		return nil, nil
	}
	return &CachedEntitlement{Entitlement: entitlement}, nil
}

func (c *RedisEntitlementCache) Set(ctx context.Context, entitlement *quota.Entitlement) error {
	s := entitlement.State()
	key := c.key(s.SubscriberID)

	expiresAt := ""
	if s.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(s.ExpiresAt.UnixNano(), 10)
	}

	args := []interface{}{
		s.Version,
		c.ttlWithJitter().Milliseconds(),
		fieldPlanID, s.PlanID,
		fieldInterestLimit, mappers.LimitToLegacy(s.InterestLimit),
		fieldInterestUsed, s.InterestUsed,
		fieldContactViewLimit, mappers.LimitToLegacy(s.ContactViewLimit),
		fieldContactViewUsed, s.ContactViewUsed,
		fieldImageLimit, mappers.LimitToLegacy(s.ImageLimit),
		fieldExpiresAt, expiresAt,
		fieldVersion, s.Version,
		fieldUpdatedAt, s.UpdatedAt.UnixNano(),
	}

	written, err := setEntitlementScript.Run(ctx, c.client, []string{key}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to set entitlement in cache: %w", err)
	}
	if written == 0 {
		c.logger.Debugw("skipped caching superseded entitlement",
			"subscriber_id", s.SubscriberID,
			"version", s.Version,
		)
		return nil
	}

	c.logger.Debugw("entitlement cached",
		"subscriber_id", s.SubscriberID,
		"version", s.Version,
	)
	return nil
}

func (c *RedisEntitlementCache) SetNullMarker(ctx context.Context, subscriberID uint) error {
	err := setNullMarkerScript.Run(ctx, c.client, []string{c.key(subscriberID)}, entitlementNullMarkerTTL.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to set null marker in cache: %w", err)
	}
	return nil
}

// Invalidate replaces the snapshot with a short-lived tombstone. Reads treat the
// tombstone as a miss, and Set skips it, so a reader that loaded the store
// before the write cannot put the old snapshot back.
func (c *RedisEntitlementCache) Invalidate(ctx context.Context, subscriberID uint) error {
	key := c.key(subscriberID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fieldInvalidated, "1")
	pipe.Expire(ctx, key, entitlementTombstoneTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate entitlement cache: %w", err)
	}

	c.logger.Debugw("entitlement cache invalidated", "subscriber_id", subscriberID)
	return nil
}

// ttlWithJitter returns a TTL in [baseTTL, baseTTL + baseTTL/3).
func (c *RedisEntitlementCache) ttlWithJitter() time.Duration {
	jitter := int64(c.baseTTL) / entitlementTTLJitterRatio
	if jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + time.Duration(rand.Int64N(jitter))
}

func decodeEntitlement(subscriberID uint, fields map[string]string) (*quota.Entitlement, error) {
	ints := make(map[string]int64, 8)
	for _, name := range []string{
		fieldPlanID, fieldInterestLimit, fieldInterestUsed, fieldContactViewLimit,
		fieldContactViewUsed, fieldImageLimit, fieldVersion, fieldUpdatedAt,
	} {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("missing field %s", name)
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		ints[name] = v
	}

	interestLimit, err := mappers.LimitFromLegacy(ints[fieldInterestLimit])
	if err != nil {
		return nil, err
	}
	contactViewLimit, err := mappers.LimitFromLegacy(ints[fieldContactViewLimit])
	if err != nil {
		return nil, err
	}
	imageLimit, err := mappers.LimitFromLegacy(ints[fieldImageLimit])
	if err != nil {
		return nil, err
	}
	interestUsed, err := mappers.UsedFromLegacy(quota.ResourceKindInterest, ints[fieldInterestUsed])
	if err != nil {
		return nil, err
	}
	contactViewUsed, err := mappers.UsedFromLegacy(quota.ResourceKindContactView, ints[fieldContactViewUsed])
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if raw := fields[fieldExpiresAt]; raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldExpiresAt, err)
		}
		t := time.Unix(0, nanos).UTC()
		expiresAt = &t
	}

	return quota.ReconstructEntitlement(quota.EntitlementState{
		SubscriberID:     subscriberID,
		PlanID:           uint(ints[fieldPlanID]),
		InterestLimit:    interestLimit,
		InterestUsed:     interestUsed,
		ContactViewLimit: contactViewLimit,
		ContactViewUsed:  contactViewUsed,
		ImageLimit:       imageLimit,
		ExpiresAt:        expiresAt,
		UpdatedAt:        time.Unix(0, ints[fieldUpdatedAt]).UTC(),
		Version:          int(ints[fieldVersion]),
	})
}

// NopEntitlementCache is used when Redis is disabled; every read is a miss.
type NopEntitlementCache struct{}

func (NopEntitlementCache) Get(context.Context, uint) (*CachedEntitlement, error) { return nil, nil }
func (NopEntitlementCache) Set(context.Context, *quota.Entitlement) error         { return nil }
func (NopEntitlementCache) SetNullMarker(context.Context, uint) error             { return nil }
func (NopEntitlementCache) Invalidate(context.Context, uint) error                { return nil }
