package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/solemart/solemart/internal/models"
)

const paymentColumns = `id, order_id, method, amount, transaction_id, status, response_code, response_message, secure_hash, created_at, updated_at`

func (q *queries) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	_, err := q.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		payment.ID, payment.OrderID, payment.Method, payment.Amount,
		payment.TransactionID, payment.Status, payment.ResponseCode,
		payment.ResponseMessage, payment.SecureHash,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (q *queries) UpdatePaymentTransactionID(ctx context.Context, paymentID uuid.UUID, transactionID string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET transaction_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'Pending'`,
		paymentID, transactionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update payment transaction id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatusTransition
	}
	return nil
}

// SettlePayment moves a pending payment to its terminal status. The
// WHERE clause guards the transition; a payment that already left
// Pending matches no row and the caller gets ErrInvalidStatusTransition.
func (q *queries) SettlePayment(ctx context.Context, paymentID uuid.UUID, settle SettleParams) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, transaction_id = $3, response_code = $4, response_message = $5, secure_hash = $6, updated_at = $7
		WHERE id = $1 AND status = 'Pending'`,
		paymentID, settle.Status, settle.TransactionID,
		settle.ResponseCode, settle.ResponseMessage, settle.SecureHash,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatusTransition
	}
	return nil
}

func (q *queries) PaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, transactionID)
	return scanPayment(row)
}

// LatestPendingPayment returns the most recent pending payment on the
// order, used when a callback carries the order reference rather than
// a payment transaction id.
func (q *queries) LatestPendingPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND status = 'Pending'
		ORDER BY created_at DESC
		LIMIT 1`, orderID)
	return scanPayment(row)
}

func (q *queries) AppendPaymentLog(ctx context.Context, log *models.PaymentLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO payment_logs (payment_id, event_type, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		log.PaymentID, log.EventType, log.Message, log.Data, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("append payment log: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.TransactionID,
		&p.Status, &p.ResponseCode, &p.ResponseMessage, &p.SecureHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}
