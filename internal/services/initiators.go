package services

import (
	"context"
	"fmt"

	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/gateway"
	"github.com/solemart/solemart/internal/models"
	stripeclient "github.com/solemart/solemart/internal/stripe"
)

// RedirectInitiator builds the HMAC-signed provider URL. The URL is
// computed locally, no provider call happens until the customer's
// browser follows it.
type RedirectInitiator struct {
	client *gateway.Client
}

func NewRedirectInitiator(client *gateway.Client) *RedirectInitiator {
	return &RedirectInitiator{client: client}
}

func (i *RedirectInitiator) Initiate(_ context.Context, order *models.Order, payment *models.Payment) (string, error) {
	return i.client.BuildRedirectURL(gateway.PayParams{
		OrderRef:    payment.TransactionID,
		Amount:      payment.Amount,
		Description: fmt.Sprintf("Payment for order %s", order.OrderNumber),
		CreatedAt:   payment.CreatedAt,
	})
}

// StripeInitiator creates a hosted checkout session and records its id
// as the payment's transaction reference so the webhook can find the
// attempt again.
type StripeInitiator struct {
	client     *stripeclient.Client
	store      InitiatorStore
	successURL string
	cancelURL  string
}

type InitiatorStore interface {
	InTx(ctx context.Context, fn func(db.Tx) error) error
}

func NewStripeInitiator(client *stripeclient.Client, store InitiatorStore, successURL, cancelURL string) *StripeInitiator {
	return &StripeInitiator{
		client:     client,
		store:      store,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (i *StripeInitiator) Initiate(ctx context.Context, order *models.Order, payment *models.Payment) (string, error) {
	session, err := i.client.CreateCheckoutSession(ctx, stripeclient.CheckoutParams{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Amount:      payment.Amount,
		Description: fmt.Sprintf("Payment for order %s", order.OrderNumber),
		SuccessURL:  i.successURL,
		CancelURL:   i.cancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	err = i.store.InTx(ctx, func(tx db.Tx) error {
		return tx.UpdatePaymentTransactionID(ctx, payment.ID, session.ID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to record checkout session id: %w", err)
	}
	payment.TransactionID = session.ID

	return session.URL, nil
}
