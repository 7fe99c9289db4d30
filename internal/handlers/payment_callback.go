package handlers

import (
	"net/http"
	"net/url"

	"github.com/solemart/solemart/internal/gateway"
	"github.com/solemart/solemart/internal/services"
)

// PaymentCallback handles the browser redirect back from the payment
// provider. Verification and settlement both happen here; the customer
// then lands on the storefront result page with the outcome in the
// query string.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	result, err := h.gatewayClient.VerifyCallback(r.URL.RawQuery)
	if err != nil {
		logger.Error("failed to parse payment callback", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	cb := services.Callback{
		Source:     "gateway",
		Verified:   result.Success,
		SecureHash: result.Token,
		RawPayload: r.URL.RawQuery,
	}
	if result.Success {
		cb.Succeeded = result.ResponseCode == gateway.ResponseCodeSuccess
		cb.OrderRef = result.OrderRef
		cb.TransactionID = result.TransactionID
		cb.ResponseCode = result.ResponseCode
		cb.Message = result.Description
	}

	outcome, err := h.settlement.Process(ctx, cb)
	if err != nil {
		logger.Error("failed to settle payment callback", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	values := url.Values{}
	values.Set("outcome", string(outcome))
	if cb.OrderRef != "" {
		values.Set("order_ref", cb.OrderRef)
	}
	http.Redirect(w, r, h.config.PaymentResultURL+"?"+values.Encode(), http.StatusSeeOther)
}
