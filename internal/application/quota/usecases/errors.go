package usecases

import (
	"errors"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
)

// toAppError classifies domain errors for callers. Unknown errors pass through
// and are rendered as internal errors.
func toAppError(err error) error {
	if err == nil || apperrors.GetAppError(err) != nil {
		return err
	}

	switch {
	case errors.Is(err, quota.ErrPlanNotFound):
		return apperrors.NewNotFoundError("plan not found").WithCause(err)
	case errors.Is(err, quota.ErrNoEntitlement):
		return apperrors.NewNotFoundError("subscriber has no entitlement").WithCause(err)
	case errors.Is(err, quota.ErrInvalidResourceKind):
		return apperrors.NewValidationError("invalid resource kind", err.Error()).WithCause(err)
	case errors.Is(err, quota.ErrConcurrentUpdateConflict):
		return apperrors.NewConflictError("entitlement was updated concurrently, please retry").WithCause(err)
	case errors.Is(err, quota.ErrImageCounterNotConfigured):
		return apperrors.NewBadRequestError("image quota is not enforced").WithCause(err)
	default:
		return err
	}
}
