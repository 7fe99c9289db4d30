package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solemart/solemart/internal/models"
)

// PromotionByCode looks up a promotion by its code, case-insensitively.
func (q *queries) PromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := q.db.QueryRow(ctx, `
		SELECT id, name, code, discount_rate, max_discount, starts_at, ends_at, is_active, total_quota, used_count
		FROM promotions
		WHERE code = $1`,
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(
		&promo.ID, &promo.Name, &promo.Code, &promo.DiscountRate,
		&promo.MaxDiscount, &promo.StartsAt, &promo.EndsAt,
		&promo.IsActive, &promo.TotalQuota, &promo.UsedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("select promotion: %w", err)
	}

	rows, err := q.db.Query(ctx, `
		SELECT category_id
		FROM promotion_categories
		WHERE promotion_id = $1`, promo.ID)
	if err != nil {
		return nil, fmt.Errorf("select promotion categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var categoryID uuid.UUID
		if err := rows.Scan(&categoryID); err != nil {
			return nil, fmt.Errorf("scan promotion category: %w", err)
		}
		promo.CategoryIDs = append(promo.CategoryIDs, categoryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion categories: %w", err)
	}

	return &promo, nil
}

// RedeemPromotion increments the usage counter, guarded against the
// quota. Two concurrent redemptions of the last slot race on this
// update; the loser matches no row and gets ErrPromotionExhausted.
func (q *queries) RedeemPromotion(ctx context.Context, promotionID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE promotions
		SET used_count = used_count + 1
		WHERE id = $1 AND (total_quota = 0 OR used_count < total_quota)`,
		promotionID,
	)
	if err != nil {
		return fmt.Errorf("redeem promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPromotionExhausted
	}
	return nil
}
