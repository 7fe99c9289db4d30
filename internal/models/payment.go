package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCOD       PaymentStatus = "COD"
)

// Payment is one attempt at settling an order. Retries create new rows
// rather than mutating earlier attempts; at most one payment per order
// ever reaches Completed.
type Payment struct {
	ID              uuid.UUID     `json:"id"`
	OrderID         uuid.UUID     `json:"order_id"`
	Method          string        `json:"method"`
	Amount          int64         `json:"amount"`
	TransactionID   string        `json:"transaction_id"`
	Status          PaymentStatus `json:"status"`
	ResponseCode    string        `json:"response_code"`
	ResponseMessage string        `json:"response_message"`
	SecureHash      string        `json:"secure_hash"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PaymentLog is an append-only audit record tied to a payment. Rows are
// never mutated or deleted; they are the source of truth for what
// happened and when.
type PaymentLog struct {
	ID        int64     `json:"id"`
	PaymentID uuid.UUID `json:"payment_id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	LogPaymentInitiated      = "PaymentInitiated"
	LogPaymentConfirmed      = "PaymentConfirmed"
	LogCallbackProcessed     = "CallbackProcessed"
	LogCallbackIgnored       = "CallbackIgnored"
	LogRetryPaymentRequested = "RetryPaymentRequested"
)
