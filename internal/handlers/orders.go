package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/solemart/solemart/internal/models"
	"github.com/solemart/solemart/internal/services"
)

var requestValidator = validator.New()

type checkoutItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

type checkoutRequest struct {
	Items            []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID string                `json:"shipping_method_id" validate:"required"`
	PaymentMethod    string                `json:"payment_method" validate:"required"`
	PromotionCode    string                `json:"promotion_code"`
	Note             string                `json:"note" validate:"max=500"`
}

type orderResponse struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"order_number"`
	Status        models.OrderStatus   `json:"status"`
	Subtotal      int64                `json:"subtotal"`
	Discount      int64                `json:"discount"`
	ShippingFee   int64                `json:"shipping_fee"`
	Total         int64                `json:"total"`
	Lines         []models.OrderLine   `json:"lines"`
	StatusHistory []models.StatusChange `json:"status_history"`
	Payments      []paymentResponse    `json:"payments"`
}

type paymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	Method        string               `json:"method"`
	Amount        int64                `json:"amount"`
	Status        models.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
}

func toOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.CurrentStatus(),
		Subtotal:      order.Subtotal(),
		Discount:      order.Discount,
		ShippingFee:   order.ShippingFee,
		Total:         order.Total,
		Lines:         order.Lines,
		StatusHistory: order.StatusHistory,
	}
	for _, p := range order.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:            p.ID,
			Method:        p.Method,
			Amount:        p.Amount,
			Status:        p.Status,
			TransactionID: p.TransactionID,
		})
	}
	return resp
}

// CreateOrder handles POST /api/orders.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	input := services.CheckoutInput{
		UserID:           userID,
		ShippingMethodID: req.ShippingMethodID,
		PaymentMethod:    req.PaymentMethod,
		PromotionCode:    req.PromotionCode,
		Note:             req.Note,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.CheckoutItem{VariantID: item.VariantID, Qty: item.Qty})
	}

	result, err := h.checkout.Checkout(ctx, input)
	if err != nil {
		if result != nil && result.Order != nil {
			// Order committed but payment initiation failed; the
			// client can retry payment against the order.
			h.writeJSON(w, r, http.StatusBadGateway, map[string]any{
				"error":    "payment initiation failed",
				"order_id": result.Order.ID,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"order":        toOrderResponse(result.Order),
		"redirect_url": result.RedirectURL,
	})
}

// GetOrder handles GET /api/orders/{id}. The payment result page polls
// it to show the settled state after the provider redirect.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, services.ErrOrderNotFound)
		return
	}

	order, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.writeError(w, r, services.ErrOrderNotFound)
			return
		}
		h.writeError(w, r, err)
		return
	}
	if order.UserID != userID {
		h.writeError(w, r, services.ErrOrderNotFound)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toOrderResponse(order))
}

type retryRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// RetryPayment handles POST /api/orders/{id}/payments.
func (h *Handlers) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, services.ErrOrderNotFound)
		return
	}

	var req retryRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	result, err := h.retry.Retry(ctx, services.RetryInput{
		OrderID:       orderID,
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"payment_id":   result.Payment.ID,
		"redirect_url": result.RedirectURL,
	})
}
