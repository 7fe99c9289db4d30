package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solemart/solemart/internal/models"
)

func (q *queries) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	_, err := q.db.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, shipping_address_id, shipping_method, promotion_id, note, total, shipping_fee, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.OrderNumber, order.UserID, order.ShippingAddress,
		order.ShippingMethod, order.PromotionID, order.Note,
		order.Total, order.ShippingFee, order.Discount, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		_, err := q.db.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, variant_id, product_name, sku, qty, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, order.ID, line.VariantID, line.ProductName, line.SKU, line.Qty, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return nil
}

func (q *queries) AppendOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_status_history (order_id, status, created_at)
		VALUES ($1, $2, $3)`,
		orderID, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append order status: %w", err)
	}
	return nil
}

// OrderForUpdate loads the order with its lines, payments, and status
// history, holding a row lock on the order until the transaction ends.
// Concurrent settlements of the same order serialize on this lock.
func (q *queries) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return loadOrder(ctx, q.db, orderID, true)
}

func loadOrder(ctx context.Context, db DBTX, orderID uuid.UUID, forUpdate bool) (*models.Order, error) {
	query := `
		SELECT id, order_number, user_id, shipping_address_id, shipping_method, promotion_id, note, total, shipping_fee, discount, created_at
		FROM orders
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var order models.Order
	err := db.QueryRow(ctx, query, orderID).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.ShippingAddress,
		&order.ShippingMethod, &order.PromotionID, &order.Note,
		&order.Total, &order.ShippingFee, &order.Discount, &order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	lineRows, err := db.Query(ctx, `
		SELECT id, variant_id, product_name, sku, qty, unit_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line models.OrderLine
		if err := lineRows.Scan(&line.ID, &line.VariantID, &line.ProductName, &line.SKU, &line.Qty, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	statusRows, err := db.Query(ctx, `
		SELECT status, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select status history: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var change models.StatusChange
		if err := statusRows.Scan(&change.Status, &change.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		order.StatusHistory = append(order.StatusHistory, change)
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}

	paymentRows, err := db.Query(ctx, `
		SELECT id, order_id, method, amount, transaction_id, status, response_code, response_message, secure_hash, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		payment, err := scanPayment(paymentRows)
		if err != nil {
			return nil, err
		}
		order.Payments = append(order.Payments, *payment)
	}
	if err := paymentRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return &order, nil
}
