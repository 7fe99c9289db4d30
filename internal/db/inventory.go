package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/solemart/solemart/internal/models"
)

func (q *queries) VariantByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var v models.Variant
	err := q.db.QueryRow(ctx, `
		SELECT v.id, p.name, v.sku, p.category_id, v.price, v.qty_in_stock
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, variantID,
	).Scan(&v.ID, &v.ProductName, &v.SKU, &v.CategoryID, &v.Price, &v.StockOnHand)
	if err != nil {
		return nil, fmt.Errorf("select variant: %w", err)
	}
	return &v, nil
}

// DecrementStock subtracts qty from the variant's stock. The WHERE
// clause keeps stock at or above zero; a decrement that would go
// negative matches no row and returns ErrInsufficientStock.
func (q *queries) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE product_variants
		SET qty_in_stock = qty_in_stock - $2
		WHERE id = $1 AND qty_in_stock >= $2`,
		variantID, qty,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// ReduceCartItem consumes qty from the user's cart entry, deleting it
// once empty. Reducing a missing entry is a no-op.
func (q *queries) ReduceCartItem(ctx context.Context, userID, variantID uuid.UUID, qty int) error {
	_, err := q.db.Exec(ctx, `
		UPDATE cart_items
		SET qty = qty - $3
		WHERE user_id = $1 AND variant_id = $2 AND qty > $3`,
		userID, variantID, qty,
	)
	if err != nil {
		return fmt.Errorf("reduce cart item: %w", err)
	}

	_, err = q.db.Exec(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND variant_id = $2 AND qty <= $3`,
		userID, variantID, qty,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (q *queries) defaultAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var a models.Address
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, line1, city, country, is_default, created_at
		FROM addresses
		WHERE user_id = $1 AND is_default
		LIMIT 1`, userID,
	).Scan(&a.ID, &a.UserID, &a.Line1, &a.City, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("select default address: %w", err)
	}
	return &a, nil
}
