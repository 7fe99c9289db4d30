package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/solemart/solemart/internal/cache"
	"github.com/solemart/solemart/internal/services"
	stripewebhook "github.com/solemart/solemart/internal/stripe"
)

// stripeWebhookIdempotencyTTL is how long webhook event IDs are kept
// for fast-path deduplication. The settlement guard in the database
// stays authoritative.
const stripeWebhookIdempotencyTTL = 24 * time.Hour

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	event, err := stripewebhook.ReadWebhookEvent(r, h.config.StripeWebhookSecret)
	if err != nil {
		logger.Error("failed to read stripe webhook payload", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}
	if event.ID == "" {
		logger.Error("missing stripe event id")
		http.Error(w, "Missing event ID", http.StatusBadRequest)
		return
	}

	cacheKey := cache.NotificationKey("stripe", event.ID)
	if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
		logger.Info("webhook already processed", "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	var succeeded bool
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		succeeded = true
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		succeeded = false
	default:
		logger.Debug("ignoring stripe event", "type", event.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	var session struct {
		ID       string `json:"id"`
		Metadata struct {
			OrderID string `json:"order_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		logger.Error("failed to decode checkout session", "error", err, "event_id", event.ID)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	outcome, err := h.settlement.Process(ctx, services.Callback{
		Source:        "stripe",
		Verified:      true,
		Succeeded:     succeeded,
		OrderRef:      session.Metadata.OrderID,
		TransactionID: session.ID,
		ResponseCode:  string(event.Type),
		RawPayload:    string(event.Data.Raw),
	})
	if err != nil {
		logger.Error("failed to process stripe webhook", "error", err, "type", event.Type)
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	if err := h.cacheProvider.Set(ctx, cacheKey, string(outcome), stripeWebhookIdempotencyTTL); err != nil {
		logger.Error("failed to mark webhook as processed in cache", "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
