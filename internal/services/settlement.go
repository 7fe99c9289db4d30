package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/logging"
	"github.com/solemart/solemart/internal/models"
	"github.com/solemart/solemart/internal/observability"
)

// Callback is a provider settlement notification after signature
// verification. Verified reports whether the signature checked out;
// Succeeded reports whether the provider says the customer paid.
type Callback struct {
	Source        string
	Verified      bool
	Succeeded     bool
	OrderRef      string
	TransactionID string
	ResponseCode  string
	Message       string
	SecureHash    string
	RawPayload    string
}

// Outcome classifies what a callback did to the payment.
type Outcome string

const (
	OutcomeRejected  Outcome = "rejected"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// SettlementStore is the persistence surface settlement needs.
type SettlementStore interface {
	InTx(ctx context.Context, fn func(db.Tx) error) error
	UserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

type SettlementService struct {
	store       SettlementStore
	emailSender PaymentEmailSender
	logger      *slog.Logger
}

func NewSettlementService(store SettlementStore, emailSender PaymentEmailSender, logger *slog.Logger) *SettlementService {
	if emailSender == nil {
		emailSender = noopPaymentEmailSender{}
	}
	return &SettlementService{
		store:       store,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *SettlementService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Process applies one provider callback to its payment. Everything
// runs in one transaction holding a row lock on the order, so two
// callbacks for the same order serialize and the second one sees the
// completed payment and becomes a logged no-op. Processing the same
// notification twice is always safe.
func (s *SettlementService) Process(ctx context.Context, cb Callback) (Outcome, error) {
	span := sentry.StartSpan(
		ctx,
		"service.settlement",
		sentry.WithOpName("service.settlement"),
		sentry.WithDescription("Process"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("source", cb.Source))
	meter.Count("settlement.received", 1)

	outcome := OutcomeIgnored
	if !cb.Verified {
		logger.Warn("rejected unverified payment callback", "source", cb.Source, "order_ref", cb.OrderRef)
		meter.Count("settlement.rejected", 1)
		return OutcomeRejected, nil
	}

	var settled *models.Order
	var methodUsed string
	err := s.store.InTx(ctx, func(tx db.Tx) error {
		payment, err := s.resolvePayment(ctx, tx, cb)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				logger.Warn("callback matches no payment", "source", cb.Source, "order_ref", cb.OrderRef, "transaction_id", cb.TransactionID)
				outcome = OutcomeIgnored
				return nil
			}
			return err
		}

		// Locks the order row; a concurrent settlement of the same
		// order blocks here until the other transaction commits.
		order, err := tx.OrderForUpdate(ctx, payment.OrderID)
		if err != nil {
			return err
		}

		if order.HasCompletedPayment() {
			outcome = OutcomeIgnored
			return tx.AppendPaymentLog(ctx, &models.PaymentLog{
				PaymentID: payment.ID,
				EventType: models.LogCallbackIgnored,
				Message:   "order already has a completed payment",
				Data:      cb.RawPayload,
			})
		}

		status := models.PaymentFailed
		if cb.Succeeded {
			status = models.PaymentCompleted
		}
		// A callback without a provider txn id must not erase the
		// reference the payment was initiated with.
		txnID := cb.TransactionID
		if txnID == "" {
			txnID = payment.TransactionID
		}
		err = tx.SettlePayment(ctx, payment.ID, db.SettleParams{
			Status:          status,
			TransactionID:   txnID,
			ResponseCode:    cb.ResponseCode,
			ResponseMessage: cb.Message,
			SecureHash:      cb.SecureHash,
		})
		if err != nil {
			if errors.Is(err, db.ErrInvalidStatusTransition) {
				outcome = OutcomeIgnored
				return tx.AppendPaymentLog(ctx, &models.PaymentLog{
					PaymentID: payment.ID,
					EventType: models.LogCallbackIgnored,
					Message:   fmt.Sprintf("payment already %s", payment.Status),
					Data:      cb.RawPayload,
				})
			}
			return err
		}

		if cb.Succeeded {
			if err := tx.AppendOrderStatus(ctx, order.ID, models.StatusConfirmed); err != nil {
				return err
			}
			outcome = OutcomeCompleted
			settled = order
			methodUsed = payment.Method
		} else {
			outcome = OutcomeFailed
		}
		return tx.AppendPaymentLog(ctx, &models.PaymentLog{
			PaymentID: payment.ID,
			EventType: models.LogCallbackProcessed,
			Message:   fmt.Sprintf("payment %s, response code %q", status, cb.ResponseCode),
			Data:      cb.RawPayload,
		})
	})
	if err != nil {
		meter.Count("settlement.errored", 1)
		return OutcomeIgnored, fmt.Errorf("failed to process callback: %w", err)
	}

	meter.Count("settlement.processed", 1, sentry.WithAttributes(
		attribute.String("outcome", string(outcome)),
	))
	logger.Info("processed payment callback",
		"source", cb.Source,
		"outcome", string(outcome),
		"order_ref", cb.OrderRef,
		"response_code", cb.ResponseCode,
	)

	if settled != nil {
		s.sendConfirmationEmail(ctx, settled, methodUsed)
	}
	return outcome, nil
}

// resolvePayment finds the payment a callback refers to: first by the
// provider transaction id, then by the most recent pending payment of
// the referenced order.
func (s *SettlementService) resolvePayment(ctx context.Context, tx db.Tx, cb Callback) (*models.Payment, error) {
	if cb.TransactionID != "" {
		payment, err := tx.PaymentByTransactionID(ctx, cb.TransactionID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	orderID, ok := orderIDFromRef(cb.OrderRef)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return tx.LatestPendingPayment(ctx, orderID)
}

// orderIDFromRef extracts the order id from a payment reference.
// Initial attempts use the bare order id; retries append a nanosecond
// suffix after the uuid.
func orderIDFromRef(ref string) (uuid.UUID, bool) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, true
	}
	const uuidLen = 36
	if len(ref) > uuidLen {
		if id, err := uuid.Parse(ref[:uuidLen]); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (s *SettlementService) sendConfirmationEmail(ctx context.Context, order *models.Order, method string) {
	logger := s.loggerFromContext(ctx)
	to, err := s.store.UserEmail(ctx, order.UserID)
	if err != nil {
		logger.Warn("failed to look up customer email", "error", err, "order_id", order.ID)
		return
	}
	if err := s.emailSender.SendPaymentConfirmation(ctx, to, order, method); err != nil {
		logger.Warn("failed to send payment confirmation email", "error", err, "order_id", order.ID)
	}
}
