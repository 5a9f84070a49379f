package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const defaultUsageWindow = 30 * 24 * time.Hour

// GetUsageReportQuery selects ledger entries for SubscriberID since Since.
// A zero Since means the last 30 days; a zero Limit means the default page size.
type GetUsageReportQuery struct {
	SubscriberID uint
	Since        time.Time
	Limit        int
	Now          time.Time
}

type GetUsageReportUseCase struct {
	ledger quota.UsageLedger // nil when the ledger is disabled
	logger logger.Interface
}

func NewGetUsageReportUseCase(ledger quota.UsageLedger, logger logger.Interface) *GetUsageReportUseCase {
	return &GetUsageReportUseCase{
		ledger: ledger,
		logger: logger,
	}
}

func (uc *GetUsageReportUseCase) Execute(ctx context.Context, query GetUsageReportQuery) (*dto.UsageReportResponse, error) {
	if uc.ledger == nil {
		return nil, apperrors.NewBadRequestError("usage ledger is disabled")
	}
	if query.SubscriberID == 0 {
		return nil, apperrors.NewValidationError("subscriber ID is required")
	}
	if query.Limit < 0 || query.Limit > constants.MaxUsageListLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", constants.MaxUsageListLimit))
	}

	limit := query.Limit
	if limit == 0 {
		limit = constants.DefaultUsageListLimit
	}

	since := query.Since.UTC()
	if query.Since.IsZero() {
		now := query.Now
		if now.IsZero() {
			now = time.Now()
		}
		since = now.UTC().Add(-defaultUsageWindow)
	}

	summary, err := uc.ledger.Summarize(ctx, query.SubscriberID, since)
	if err != nil {
		uc.logger.Errorw("failed to summarize usage", "subscriber_id", query.SubscriberID, "error", err)
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}

	events, err := uc.ledger.ListBySubscriber(ctx, query.SubscriberID, since, limit)
	if err != nil {
		uc.logger.Errorw("failed to list usage events", "subscriber_id", query.SubscriberID, "error", err)
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}

	resp := dto.ToUsageReportResponse(query.SubscriberID, since, summary, events)
	return &resp, nil
}
