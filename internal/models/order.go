package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// Order is an immutable snapshot of a checkout. Monetary fields are
// minor currency units. Status lives in StatusHistory; the current
// status is always the most recent entry, never a cached column.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.UUID       `json:"user_id"`
	ShippingAddress uuid.UUID       `json:"shipping_address_id"`
	ShippingMethod  string          `json:"shipping_method"`
	PromotionID     *uuid.UUID      `json:"promotion_id,omitempty"`
	Note            string          `json:"note"`
	Total           int64           `json:"total"`
	ShippingFee     int64           `json:"shipping_fee"`
	Discount        int64           `json:"discount"`
	Lines           []OrderLine     `json:"lines"`
	StatusHistory   []StatusChange  `json:"status_history"`
	Payments        []Payment       `json:"payments"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderLine freezes the unit price, product name, and SKU at order
// time; they are never re-read from the catalog.
type OrderLine struct {
	ID          uuid.UUID `json:"id"`
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Qty         int       `json:"qty"`
	UnitPrice   int64     `json:"unit_price"`
}

// StatusChange is one append-only entry in an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// CurrentStatus returns the status of the most recent history entry.
// Entries are kept in insertion order, so a later entry wins when two
// share a timestamp.
func (o *Order) CurrentStatus() OrderStatus {
	if len(o.StatusHistory) == 0 {
		return ""
	}
	latest := o.StatusHistory[0]
	for _, entry := range o.StatusHistory[1:] {
		if !entry.CreatedAt.Before(latest.CreatedAt) {
			latest = entry
		}
	}
	return latest.Status
}

// HasCompletedPayment reports whether any payment on the order reached
// the Completed status.
func (o *Order) HasCompletedPayment() bool {
	for _, p := range o.Payments {
		if p.Status == PaymentCompleted {
			return true
		}
	}
	return false
}

// Subtotal is the sum of qty times the frozen unit price across lines.
func (o *Order) Subtotal() int64 {
	var subtotal int64
	for _, line := range o.Lines {
		subtotal += int64(line.Qty) * line.UnitPrice
	}
	return subtotal
}
