package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/metrics"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

// AnalyticsAccumulator records completed orders against the campaign that discounted them
type AnalyticsAccumulator struct {
	store  repository.CampaignStore
	logger *zap.Logger
}

// NewAnalyticsAccumulator creates an accumulator
func NewAnalyticsAccumulator(store repository.CampaignStore, logger *zap.Logger) *AnalyticsAccumulator {
	return &AnalyticsAccumulator{store: store, logger: logger}
}

// RecordOrder adds one order to the campaign totals in a single atomic update.
// The buyer's payment has already gone through when this runs, so a campaign that
// has since been deleted is logged as a consistency problem and not returned as an error.
func (a *AnalyticsAccumulator) RecordOrder(ctx context.Context, rawID string, orderAmount, discountAmount model.Money) error {
	id, err := model.ParseID(rawID)
	if err != nil {
		return err
	}
	if orderAmount.IsNegative() || discountAmount.IsNegative() {
		return fmt.Errorf("%w: order and discount amounts must not be negative", model.ErrInvalidArgument)
	}

	err = a.store.IncrementTotals(ctx, id, orderAmount, discountAmount)
	if errors.Is(err, model.ErrNotFound) {
		metrics.RecordConsistencyError()
		a.logger.Warn("order recorded against missing campaign",
			zap.String("campaign_id", id.String()),
			zap.String("order_amount", orderAmount.String()),
			zap.String("discount_amount", discountAmount.String()),
			zap.NamedError("kind", model.ErrDataConsistency),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record campaign order: %w", err)
	}
	return nil
}
