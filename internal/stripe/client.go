// Package stripe provides Stripe Checkout as an alternative redirect
// payment strategy.
package stripe

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/solemart/solemart/internal/observability"
)

type Client struct {
	client   *stripe.Client
	currency string
}

func NewClient(secretKey, currency string) *Client {
	return &Client{
		client:   stripe.NewClient(secretKey, stripe.WithBackends(stripe.NewBackends(observability.NewHTTPClient(10*time.Second)))),
		currency: currency,
	}
}

// CheckoutParams holds what Stripe needs to host payment for an order.
type CheckoutParams struct {
	OrderID     string
	OrderNumber string
	Amount      int64 // minor currency units
	Description string
	SuccessURL  string
	CancelURL   string
}

// CreateCheckoutSession creates a hosted checkout session covering the
// full order total as a single line item. The order id is carried in
// session metadata so the webhook can route the settlement.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(c.currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order %s", params.OrderNumber)),
					},
					UnitAmount: stripe.Int64(params.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"order_id":     params.OrderID,
			"order_number": params.OrderNumber,
		},
	}
	if params.Description != "" {
		sessionParams.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Description: stripe.String(params.Description),
		}
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}
