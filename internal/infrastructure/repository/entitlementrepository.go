package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/mappers"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	shareddb "github.com/saathi-inc/saathi/internal/shared/db"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// EntitlementRepository is the gorm-backed entitlement store. Every mutation is
// a single transaction scoped to one subscriber row.
type EntitlementRepository struct {
	db     *gorm.DB
	mapper mappers.EntitlementMapper
	images quota.ImageCounter
	logger logger.Interface
}

// NewEntitlementRepository creates an entitlement store. images may be nil when
// the image kind is not enforced.
func NewEntitlementRepository(db *gorm.DB, images quota.ImageCounter, logger logger.Interface) *EntitlementRepository {
	return &EntitlementRepository{
		db:     db,
		mapper: mappers.NewEntitlementMapper(),
		images: images,
		logger: logger,
	}
}

// Get returns quota.ErrNoEntitlement when the subscriber was never provisioned.
func (r *EntitlementRepository) Get(ctx context.Context, subscriberID uint) (*quota.Entitlement, error) {
	return r.load(shareddb.GetTxFromContext(ctx, r.db), subscriberID)
}

func (r *EntitlementRepository) load(tx *gorm.DB, subscriberID uint) (*quota.Entitlement, error) {
	var model models.EntitlementModel
	if err := tx.Where("subscriber_id = ?", subscriberID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, quota.ErrNoEntitlement
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("stored entitlement is corrupt", "subscriber_id", subscriberID, "error", err)
		return nil, err
	}
	return entity, nil
}

// IsValid reports whether the subscriber's entitlement is usable at now.
func (r *EntitlementRepository) IsValid(ctx context.Context, subscriberID uint, now time.Time) (bool, error) {
	entity, err := r.Get(ctx, subscriberID)
	if err != nil {
		return false, err
	}
	return entity.IsValid(now), nil
}

// TryConsume atomically checks and consumes one unit of kind.
func (r *EntitlementRepository) TryConsume(ctx context.Context, subscriberID uint, kind quota.ResourceKind, now time.Time) (quota.ConsumeOutcome, error) {
	now = now.UTC()
	switch {
	case kind.IsDecrementing():
		return r.consumeCounter(ctx, subscriberID, kind, now)
	case kind.IsCountable():
		return r.checkCount(ctx, subscriberID, now)
	default:
		return quota.ConsumeOutcome{}, fmt.Errorf("%w: %q", quota.ErrInvalidResourceKind, kind)
	}
}

// consumeCounter increments the used counter with one conditional UPDATE that
// only matches while the entitlement is valid and has allowance left, then
// reads the row back inside the same transaction.
func (r *EntitlementRepository) consumeCounter(ctx context.Context, subscriberID uint, kind quota.ResourceKind, now time.Time) (quota.ConsumeOutcome, error) {
	limitCol, usedCol := counterColumns(kind)

	var outcome quota.ConsumeOutcome
	err := shareddb.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&models.EntitlementModel{}).
			Where("subscriber_id = ?", subscriberID).
			Where("(expires_at IS NULL OR expires_at >= ?)", now).
			Where(fmt.Sprintf("(%s = ? OR %s < %s)", limitCol, usedCol, limitCol), constants.LegacyUnlimited).
			Updates(map[string]any{
				usedCol:      gorm.Expr(usedCol + " + 1"),
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to consume %s: %w", kind, result.Error)
		}

		entity, err := r.load(tx, subscriberID)
		if err != nil {
			return err
		}

		if result.RowsAffected == 0 {
			if !entity.IsValid(now) {
				outcome = quota.Denied(quota.DenyReasonValidityExpired)
			} else {
				outcome = quota.Denied(quota.DenyReasonQuotaExceeded)
			}
			return nil
		}

		remaining, err := entity.Remaining(kind)
		if err != nil {
			return err
		}
		outcome = quota.Consumed(remaining)
		return nil
	})
	if err != nil {
		return quota.ConsumeOutcome{}, lockConflict(err)
	}
	return outcome, nil
}

// checkCount is the pure check for countable kinds: remaining is the image limit
// minus the live image count, obtained fresh on every call.
func (r *EntitlementRepository) checkCount(ctx context.Context, subscriberID uint, now time.Time) (quota.ConsumeOutcome, error) {
	if r.images == nil {
		return quota.ConsumeOutcome{}, quota.ErrImageCounterNotConfigured
	}

	entity, err := r.Get(ctx, subscriberID)
	if err != nil {
		return quota.ConsumeOutcome{}, err
	}
	if !entity.IsValid(now) {
		return quota.Denied(quota.DenyReasonValidityExpired), nil
	}

	count, err := r.images.CountOf(ctx, subscriberID)
	if err != nil {
		return quota.ConsumeOutcome{}, fmt.Errorf("failed to count images: %w", err)
	}

	remaining := entity.RemainingImages(count)
	if remaining.IsExhausted() {
		return quota.Denied(quota.DenyReasonQuotaExceeded), nil
	}
	return quota.Consumed(remaining), nil
}

// ApplyRenewal locks the subscriber row, lets renew compute the replacement and
// writes it with an optimistic version check. The first assignment inserts the row;
// losing an insert race or a version race yields quota.ErrConcurrentUpdateConflict.
func (r *EntitlementRepository) ApplyRenewal(ctx context.Context, subscriberID uint, renew quota.RenewFunc) (*quota.Entitlement, error) {
	var saved *quota.Entitlement
	err := shareddb.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		current, err := r.load(tx.Scopes(shareddb.ForUpdate()), subscriberID)
		if err != nil && !errors.Is(err, quota.ErrNoEntitlement) {
			return err
		}

		next, err := renew(current)
		if err != nil {
			return err
		}
		if next == nil || next.SubscriberID() != subscriberID {
			return fmt.Errorf("renewal produced an entitlement for a different subscriber")
		}

		model := r.mapper.ToModel(next)
		if model.ExpiresAt != nil {
			utc := model.ExpiresAt.UTC()
			model.ExpiresAt = &utc
		}

		if current == nil {
			model.Version = 1
			if err := tx.Create(model).Error; err != nil {
				if apperrors.IsDuplicateError(err) {
					return quota.ErrConcurrentUpdateConflict
				}
				return fmt.Errorf("failed to create entitlement: %w", err)
			}
		} else {
			expected := current.Version()
			result := tx.Model(&models.EntitlementModel{}).
				Where("subscriber_id = ? AND version = ?", subscriberID, expected).
				Updates(map[string]any{
					"plan_id":            model.PlanID,
					"interest_limit":     model.InterestLimit,
					"interest_used":      model.InterestUsed,
					"contact_view_limit": model.ContactViewLimit,
					"contact_view_used":  model.ContactViewUsed,
					"image_limit":        model.ImageLimit,
					"expires_at":         model.ExpiresAt,
					"version":            expected + 1,
					"updated_at":         model.UpdatedAt,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update entitlement: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return quota.ErrConcurrentUpdateConflict
			}
		}

		saved, err = r.load(tx, subscriberID)
		return err
	})
	if err != nil {
		err = lockConflict(err)
		if errors.Is(err, quota.ErrConcurrentUpdateConflict) {
			r.logger.Warnw("entitlement renewal lost a concurrent update", "subscriber_id", subscriberID)
		}
		return nil, err
	}

	r.logger.Infow("entitlement renewed",
		"subscriber_id", subscriberID,
		"plan_id", saved.PlanID(),
		"version", saved.Version(),
	)
	return saved, nil
}

// lockConflict reclassifies deadlocks, lock wait timeouts and busy databases as
// quota.ErrConcurrentUpdateConflict so callers retry the whole transaction.
func lockConflict(err error) error {
	if err == nil || errors.Is(err, quota.ErrConcurrentUpdateConflict) {
		return err
	}
	if apperrors.IsTransientLockError(err) {
		return fmt.Errorf("%w: %v", quota.ErrConcurrentUpdateConflict, err)
	}
	return err
}

func counterColumns(kind quota.ResourceKind) (limitCol, usedCol string) {
	if kind == quota.ResourceKindContactView {
		return models.ColumnContactViewLimit, models.ColumnContactViewUsed
	}
	return models.ColumnInterestLimit, models.ColumnInterestUsed
}
