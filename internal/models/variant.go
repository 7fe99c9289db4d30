package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a specific purchasable configuration of a product, the
// unit that carries price and stock. Price is the current catalog
// price; orders freeze it into their lines at checkout.
type Variant struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	CategoryID  uuid.UUID `json:"category_id"`
	Price       int64     `json:"price"`
	StockOnHand int       `json:"stock_on_hand"`
}

// CartItem is a persisted cart entry, reduced or deleted as its
// quantity is consumed by an order.
type CartItem struct {
	UserID    uuid.UUID `json:"user_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Qty       int       `json:"qty"`
}

// Address is a user shipping address; checkout requires a default one.
type Address struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Line1     string    `json:"line1"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
