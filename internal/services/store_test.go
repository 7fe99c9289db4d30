package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/models"
)

// fakeStore backs the service tests with an in-memory db.Tx. InTx runs
// the callback directly; a returned error counts as a rollback.
type fakeStore struct {
	tx         *fakeTx
	address    *models.Address
	userEmails map[uuid.UUID]string

	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tx: &fakeTx{
			variants:   make(map[uuid.UUID]*models.Variant),
			promotions: make(map[string]*models.Promotion),
			orders:     make(map[uuid.UUID]*models.Order),
		},
		userEmails: make(map[uuid.UUID]string),
	}
}

func (s *fakeStore) InTx(_ context.Context, fn func(db.Tx) error) error {
	if err := fn(s.tx); err != nil {
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *fakeStore) DefaultAddress(_ context.Context, userID uuid.UUID) (*models.Address, error) {
	if s.address == nil || s.address.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return s.address, nil
}

func (s *fakeStore) UserEmail(_ context.Context, userID uuid.UUID) (string, error) {
	email, ok := s.userEmails[userID]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return email, nil
}

type statusAppend struct {
	orderID uuid.UUID
	status  models.OrderStatus
}

type settleCall struct {
	paymentID uuid.UUID
	params    db.SettleParams
}

type cartReduction struct {
	userID    uuid.UUID
	variantID uuid.UUID
	qty       int
}

type fakeTx struct {
	variants   map[uuid.UUID]*models.Variant
	promotions map[string]*models.Promotion
	orders     map[uuid.UUID]*models.Order

	redeemExhausted bool
	settleErr       error

	cartReductions []cartReduction
	createdOrders  []*models.Order
	statusAppends  []statusAppend
	payments       []*models.Payment
	settleCalls    []settleCall
	logs           []*models.PaymentLog
	txnUpdates     map[uuid.UUID]string
}

func (t *fakeTx) VariantByID(_ context.Context, variantID uuid.UUID) (*models.Variant, error) {
	v, ok := t.variants[variantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (t *fakeTx) DecrementStock(_ context.Context, variantID uuid.UUID, qty int) error {
	v, ok := t.variants[variantID]
	if !ok || v.StockOnHand < qty {
		return db.ErrInsufficientStock
	}
	v.StockOnHand -= qty
	return nil
}

func (t *fakeTx) ReduceCartItem(_ context.Context, userID, variantID uuid.UUID, qty int) error {
	t.cartReductions = append(t.cartReductions, cartReduction{userID, variantID, qty})
	return nil
}

func (t *fakeTx) PromotionByCode(_ context.Context, code string) (*models.Promotion, error) {
	p, ok := t.promotions[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (t *fakeTx) RedeemPromotion(_ context.Context, promotionID uuid.UUID) error {
	if t.redeemExhausted {
		return db.ErrPromotionExhausted
	}
	for _, p := range t.promotions {
		if p.ID == promotionID {
			p.UsedCount++
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (t *fakeTx) CreateOrder(_ context.Context, order *models.Order) error {
	t.createdOrders = append(t.createdOrders, order)
	t.orders[order.ID] = order
	return nil
}

func (t *fakeTx) AppendOrderStatus(_ context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	t.statusAppends = append(t.statusAppends, statusAppend{orderID, status})
	return nil
}

func (t *fakeTx) OrderForUpdate(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := t.orders[orderID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return order, nil
}

func (t *fakeTx) CreatePayment(_ context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	t.payments = append(t.payments, payment)
	return nil
}

func (t *fakeTx) UpdatePaymentTransactionID(_ context.Context, paymentID uuid.UUID, transactionID string) error {
	if t.txnUpdates == nil {
		t.txnUpdates = make(map[uuid.UUID]string)
	}
	t.txnUpdates[paymentID] = transactionID
	return nil
}

func (t *fakeTx) SettlePayment(_ context.Context, paymentID uuid.UUID, settle db.SettleParams) error {
	if t.settleErr != nil {
		return t.settleErr
	}
	t.settleCalls = append(t.settleCalls, settleCall{paymentID, settle})
	return nil
}

func (t *fakeTx) PaymentByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	for _, order := range t.orders {
		for i := range order.Payments {
			if order.Payments[i].TransactionID == transactionID {
				return &order.Payments[i], nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (t *fakeTx) LatestPendingPayment(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	order, ok := t.orders[orderID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for i := len(order.Payments) - 1; i >= 0; i-- {
		if order.Payments[i].Status == models.PaymentPending {
			return &order.Payments[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t *fakeTx) AppendPaymentLog(_ context.Context, log *models.PaymentLog) error {
	t.logs = append(t.logs, log)
	return nil
}

func (t *fakeTx) logEvents() []string {
	events := make([]string, 0, len(t.logs))
	for _, l := range t.logs {
		events = append(events, l.EventType)
	}
	return events
}
