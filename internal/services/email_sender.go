package services

import (
	"context"
	"fmt"

	"github.com/solemart/solemart/internal/email"
	"github.com/solemart/solemart/internal/models"
)

type PaymentEmailSender interface {
	SendPaymentConfirmation(ctx context.Context, to string, order *models.Order, paymentMethod string) error
}

// StoreEmailSender renders confirmation mail from the order snapshot
// and sends it through the configured provider.
type StoreEmailSender struct {
	provider  email.Provider
	storeName string
	currency  string
}

func NewStoreEmailSender(provider email.Provider, storeName, currency string) *StoreEmailSender {
	return &StoreEmailSender{
		provider:  provider,
		storeName: storeName,
		currency:  currency,
	}
}

func (s *StoreEmailSender) SendPaymentConfirmation(ctx context.Context, to string, order *models.Order, paymentMethod string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	info := &email.OrderInfo{
		OrderNumber:   order.OrderNumber,
		CustomerEmail: to,
		StoreName:     s.storeName,
		PaymentMethod: paymentMethod,
		Subtotal:      s.formatAmount(order.Subtotal()),
		ShippingFee:   s.formatAmount(order.ShippingFee),
		Total:         s.formatAmount(order.Total),
		OrderDate:     order.CreatedAt.Format("January 2, 2006"),
	}
	if order.Discount > 0 {
		info.Discount = s.formatAmount(order.Discount)
	}
	for _, line := range order.Lines {
		info.Items = append(info.Items, email.OrderItem{
			Name:       line.ProductName,
			SKU:        line.SKU,
			Quantity:   line.Qty,
			UnitPrice:  s.formatAmount(line.UnitPrice),
			TotalPrice: s.formatAmount(int64(line.Qty) * line.UnitPrice),
		})
	}

	return email.SendPaymentConfirmation(ctx, s.provider, info)
}

// formatAmount renders minor currency units as a decimal string.
func (s *StoreEmailSender) formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, s.currency)
}

type noopPaymentEmailSender struct{}

func (noopPaymentEmailSender) SendPaymentConfirmation(context.Context, string, *models.Order, string) error {
	return nil
}
