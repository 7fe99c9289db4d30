package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/models"
)

// applyPromotion resolves, checks, and redeems a promotion code inside
// the checkout transaction. A promotion never blocks checkout: any
// failure (unknown code, outside its window, no eligible line, quota
// raced away) drops the discount and the order proceeds at full price.
func applyPromotion(ctx context.Context, tx db.Tx, logger *slog.Logger, code string, orderCategories map[uuid.UUID]bool, subtotal int64, now time.Time) (*uuid.UUID, int64) {
	promo, err := tx.PromotionByCode(ctx, code)
	if err != nil {
		logger.Debug("promotion code not applied", "code", code, "error", err)
		return nil, 0
	}
	if !promo.AvailableAt(now) {
		logger.Debug("promotion not available", "code", promo.Code)
		return nil, 0
	}
	if !eligible(promo, orderCategories) {
		logger.Debug("promotion has no eligible line", "code", promo.Code)
		return nil, 0
	}
	if err := tx.RedeemPromotion(ctx, promo.ID); err != nil {
		logger.Debug("promotion redemption lost", "code", promo.Code, "error", err)
		return nil, 0
	}
	return &promo.ID, promo.DiscountFor(subtotal)
}

// eligible reports whether at least one ordered variant falls in a
// target category. A promotion with no target categories applies
// storewide.
func eligible(promo *models.Promotion, orderCategories map[uuid.UUID]bool) bool {
	if len(promo.CategoryIDs) == 0 {
		return true
	}
	for id := range orderCategories {
		if promo.AppliesTo(id) {
			return true
		}
	}
	return false
}
