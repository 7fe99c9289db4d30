package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/solemart/solemart/internal/catalog"
	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/logging"
	"github.com/solemart/solemart/internal/models"
	"github.com/solemart/solemart/internal/observability"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrOrderAlreadyPaid  = errors.New("order already has a completed payment")
	ErrMethodNotRetrying = errors.New("payment method cannot be retried")
)

// RetryStore is the persistence surface payment retry needs.
type RetryStore interface {
	InTx(ctx context.Context, fn func(db.Tx) error) error
}

type RetryService struct {
	store      RetryStore
	storefront *catalog.Storefront
	initiators map[catalog.PaymentKind]PaymentInitiator
	logger     *slog.Logger
}

func NewRetryService(store RetryStore, storefront *catalog.Storefront, initiators map[catalog.PaymentKind]PaymentInitiator, logger *slog.Logger) *RetryService {
	return &RetryService{
		store:      store,
		storefront: storefront,
		initiators: initiators,
		logger:     logger,
	}
}

func (s *RetryService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type RetryInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	// PaymentMethod optionally switches the method; empty reuses the
	// most recent attempt's method.
	PaymentMethod string
}

type RetryResult struct {
	Payment     *models.Payment
	RedirectURL string
}

// Retry issues a fresh payment attempt for a pending order whose
// earlier attempt failed or was abandoned. Earlier payment rows are
// left untouched.
func (s *RetryService) Retry(ctx context.Context, input RetryInput) (*RetryResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.retry",
		sentry.WithOpName("service.retry"),
		sentry.WithDescription("Retry"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("retry.received", 1)

	var payment *models.Payment
	var order *models.Order
	var method *catalog.PaymentMethod
	err := s.store.InTx(ctx, func(tx db.Tx) error {
		// The row lock serializes a retry against a concurrent
		// settlement of the same order.
		var err error
		order, err = tx.OrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.UserID != input.UserID {
			return ErrOrderNotFound
		}
		if order.CurrentStatus() != models.StatusPending {
			return ErrOrderNotPending
		}
		if order.HasCompletedPayment() {
			return ErrOrderAlreadyPaid
		}

		methodName := input.PaymentMethod
		if methodName == "" && len(order.Payments) > 0 {
			methodName = order.Payments[len(order.Payments)-1].Method
		}
		method = s.storefront.PaymentMethod(methodName)
		if method == nil {
			return ErrUnknownPaymentMethod
		}
		if !method.Active {
			return ErrPaymentMethodInactive
		}
		if method.Kind == catalog.KindCOD {
			return ErrMethodNotRetrying
		}

		for _, line := range order.Lines {
			variant, err := tx.VariantByID(ctx, line.VariantID)
			if err != nil {
				return fmt.Errorf("failed to load variant %s: %w", line.VariantID, err)
			}
			if variant.StockOnHand < line.Qty {
				return fmt.Errorf("variant %s: %w", variant.SKU, db.ErrInsufficientStock)
			}
		}

		payment = &models.Payment{
			OrderID:       order.ID,
			Method:        method.Name,
			Amount:        order.Total,
			TransactionID: fmt.Sprintf("%s-%d", order.ID, time.Now().UnixNano()),
			Status:        models.PaymentPending,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return tx.AppendPaymentLog(ctx, &models.PaymentLog{
			PaymentID: payment.ID,
			EventType: models.LogRetryPaymentRequested,
			Message:   fmt.Sprintf("retry requested via %s", method.Name),
		})
	})
	if err != nil {
		meter.Count("retry.failed", 1)
		return nil, err
	}

	initiator, ok := s.initiators[method.Kind]
	if !ok {
		return nil, fmt.Errorf("no payment initiator for kind %q", method.Kind)
	}
	redirectURL, err := initiator.Initiate(ctx, order, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate retry payment: %w", err)
	}

	meter.Count("retry.completed", 1, sentry.WithAttributes(
		attribute.String("payment_kind", string(method.Kind)),
	))
	logger.Info("payment retry issued",
		"order_id", input.OrderID,
		"payment_id", payment.ID,
		"method", method.Name,
	)
	return &RetryResult{Payment: payment, RedirectURL: redirectURL}, nil
}
