package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solemart/solemart/internal/models"
)

var (
	// ErrInsufficientStock is returned when a guarded stock decrement
	// would take a variant below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPromotionExhausted is returned when a guarded redemption finds
	// the quota already consumed.
	ErrPromotionExhausted = errors.New("promotion quota exhausted")
	// ErrInvalidStatusTransition is returned when a guarded payment
	// update matches no row in the expected status.
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
)

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transactional query surface handed to service callbacks.
// Every mutation for one logical operation happens through a single Tx
// so failure rolls the whole operation back.
type Tx interface {
	VariantByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
	ReduceCartItem(ctx context.Context, userID, variantID uuid.UUID, qty int) error

	PromotionByCode(ctx context.Context, code string) (*models.Promotion, error)
	RedeemPromotion(ctx context.Context, promotionID uuid.UUID) error

	CreateOrder(ctx context.Context, order *models.Order) error
	AppendOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error
	OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePaymentTransactionID(ctx context.Context, paymentID uuid.UUID, transactionID string) error
	SettlePayment(ctx context.Context, paymentID uuid.UUID, settle SettleParams) error
	PaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	LatestPendingPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	AppendPaymentLog(ctx context.Context, log *models.PaymentLog) error
}

// SettleParams carries the gateway's verdict into a payment row.
type SettleParams struct {
	Status          models.PaymentStatus
	TransactionID   string
	ResponseCode    string
	ResponseMessage string
	SecureHash      string
}

// Store is the pgx-backed persistence layer.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx runs fn inside one database transaction; any error rolls the
// whole transaction back.
func (s *Store) InTx(ctx context.Context, fn func(Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
}

// DefaultAddress returns the user's default shipping address, or
// pgx.ErrNoRows when none is on file.
func (s *Store) DefaultAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	return (&queries{db: s.pool}).defaultAddress(ctx, userID)
}

// GetOrder loads an order with its lines, payments, and status history
// without locking it.
func (s *Store) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return loadOrder(ctx, s.pool, orderID, false)
}

// UserEmail returns the email on file for a user.
func (s *Store) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}

// queries implements Tx over any DBTX.
type queries struct {
	db DBTX
}
