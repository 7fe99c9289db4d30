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
	ErrNoDefaultAddress      = errors.New("no default shipping address on file")
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrPaymentMethodInactive = errors.New("payment method is not active")
	ErrEmptyOrder            = errors.New("order has no items")
)

// shippingFeeScale converts the configured shipping fee into the unit
// stored on orders. The original system stored fees a factor of one
// thousand larger than configured; totals are computed against the
// stored value, so the factor is kept.
const shippingFeeScale = 1000

// CheckoutStore is the persistence surface checkout needs.
type CheckoutStore interface {
	InTx(ctx context.Context, fn func(db.Tx) error) error
	DefaultAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

// PaymentInitiator produces the provider redirect URL for a freshly
// created pending payment. COD has no initiator.
type PaymentInitiator interface {
	Initiate(ctx context.Context, order *models.Order, payment *models.Payment) (string, error)
}

type CheckoutService struct {
	store      CheckoutStore
	storefront *catalog.Storefront
	initiators map[catalog.PaymentKind]PaymentInitiator
	logger     *slog.Logger
}

func NewCheckoutService(store CheckoutStore, storefront *catalog.Storefront, initiators map[catalog.PaymentKind]PaymentInitiator, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:      store,
		storefront: storefront,
		initiators: initiators,
		logger:     logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CheckoutItem struct {
	VariantID uuid.UUID
	Qty       int
}

type CheckoutInput struct {
	UserID           uuid.UUID
	Items            []CheckoutItem
	ShippingMethodID string
	PaymentMethod    string
	PromotionCode    string
	Note             string
}

type CheckoutResult struct {
	Order       *models.Order
	Payment     *models.Payment
	RedirectURL string
}

// Checkout turns the selected cart items into a persisted order with
// its initial status, payment attempt, and audit log, all inside one
// transaction. Redirect payment methods additionally get a provider
// URL after the transaction commits.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("Checkout"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.received", 1)
	recordFailure := func(reason string) {
		meter.Count("checkout.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if len(input.Items) == 0 {
		recordFailure("empty_order")
		return nil, ErrEmptyOrder
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			recordFailure("empty_order")
			return nil, fmt.Errorf("%w: non-positive quantity", ErrEmptyOrder)
		}
	}

	address, err := s.store.DefaultAddress(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordFailure("no_default_address")
			return nil, ErrNoDefaultAddress
		}
		return nil, fmt.Errorf("failed to load default address: %w", err)
	}

	shipping := s.storefront.ShippingMethod(input.ShippingMethodID)
	if shipping == nil {
		recordFailure("unknown_shipping_method")
		return nil, ErrUnknownShippingMethod
	}

	method := s.storefront.PaymentMethod(input.PaymentMethod)
	if method == nil {
		recordFailure("unknown_payment_method")
		return nil, ErrUnknownPaymentMethod
	}
	if !method.Active {
		recordFailure("payment_method_inactive")
		return nil, ErrPaymentMethodInactive
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("ORD-%d", now.UnixNano()),
		UserID:          input.UserID,
		ShippingAddress: address.ID,
		ShippingMethod:  shipping.ID,
		Note:            input.Note,
		ShippingFee:     shipping.Fee * shippingFeeScale,
		CreatedAt:       now,
	}
	payment := &models.Payment{
		OrderID:       order.ID,
		Method:        method.Name,
		TransactionID: order.ID.String(),
		Status:        models.PaymentPending,
	}

	err = s.store.InTx(ctx, func(tx db.Tx) error {
		categories := make(map[uuid.UUID]bool)
		for _, item := range input.Items {
			variant, err := tx.VariantByID(ctx, item.VariantID)
			if err != nil {
				return fmt.Errorf("failed to load variant %s: %w", item.VariantID, err)
			}
			if err := tx.DecrementStock(ctx, variant.ID, item.Qty); err != nil {
				return fmt.Errorf("variant %s: %w", variant.SKU, err)
			}
			if err := tx.ReduceCartItem(ctx, input.UserID, variant.ID, item.Qty); err != nil {
				return err
			}
			order.Lines = append(order.Lines, models.OrderLine{
				VariantID:   variant.ID,
				ProductName: variant.ProductName,
				SKU:         variant.SKU,
				Qty:         item.Qty,
				UnitPrice:   variant.Price,
			})
			categories[variant.CategoryID] = true
		}

		subtotal := order.Subtotal()
		if input.PromotionCode != "" {
			promotionID, discount := applyPromotion(ctx, tx, logger, input.PromotionCode, categories, subtotal, now)
			order.PromotionID = promotionID
			order.Discount = discount
		}
		order.Total = subtotal - order.Discount + order.ShippingFee
		payment.Amount = order.Total

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.AppendOrderStatus(ctx, order.ID, models.StatusPending); err != nil {
			return err
		}
		order.StatusHistory = append(order.StatusHistory, models.StatusChange{Status: models.StatusPending, CreatedAt: now})

		if method.Kind == catalog.KindCOD {
			payment.Status = models.PaymentCOD
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		if method.Kind == catalog.KindCOD {
			if err := tx.AppendOrderStatus(ctx, order.ID, models.StatusConfirmed); err != nil {
				return err
			}
			order.StatusHistory = append(order.StatusHistory, models.StatusChange{Status: models.StatusConfirmed, CreatedAt: now})
			return tx.AppendPaymentLog(ctx, &models.PaymentLog{
				PaymentID: payment.ID,
				EventType: models.LogPaymentConfirmed,
				Message:   "cash on delivery order confirmed",
			})
		}
		return tx.AppendPaymentLog(ctx, &models.PaymentLog{
			PaymentID: payment.ID,
			EventType: models.LogPaymentInitiated,
			Message:   fmt.Sprintf("payment initiated via %s", method.Name),
		})
	})
	if err != nil {
		if errors.Is(err, db.ErrInsufficientStock) {
			recordFailure("insufficient_stock")
		} else {
			recordFailure("tx_failed")
		}
		return nil, err
	}

	result := &CheckoutResult{Order: order, Payment: payment}
	if method.Kind != catalog.KindCOD {
		initiator, ok := s.initiators[method.Kind]
		if !ok {
			return result, fmt.Errorf("no payment initiator for kind %q", method.Kind)
		}
		redirectURL, err := initiator.Initiate(ctx, order, payment)
		if err != nil {
			// The order is committed; return it with the error so the
			// caller can point the customer at a payment retry.
			logger.Error("failed to initiate payment", "error", err, "order_id", order.ID, "method", method.Name)
			return result, fmt.Errorf("failed to initiate payment for order %s: %w", order.ID, err)
		}
		result.RedirectURL = redirectURL
	}

	meter.Count("checkout.completed", 1, sentry.WithAttributes(
		attribute.String("payment_kind", string(method.Kind)),
	))
	logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.Total,
		"payment_method", method.Name,
	)
	return result, nil
}
