package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/services"
)

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrNoDefaultAddress),
		errors.Is(err, services.ErrUnknownShippingMethod),
		errors.Is(err, services.ErrUnknownPaymentMethod),
		errors.Is(err, services.ErrPaymentMethodInactive),
		errors.Is(err, services.ErrMethodNotRetrying):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, db.ErrInsufficientStock),
		errors.Is(err, services.ErrOrderNotPending),
		errors.Is(err, services.ErrOrderAlreadyPaid):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrOrderNotFound):
		status = http.StatusNotFound
		message = err.Error()
	default:
		h.loggerFromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
	}

	h.writeJSON(w, r, status, map[string]string{"error": message})
}
