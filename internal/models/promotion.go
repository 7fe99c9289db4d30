package models

import (
	"time"

	"github.com/google/uuid"
)

// Promotion is a percentage discount code scoped to a set of product
// categories. TotalQuota of zero means unlimited redemptions.
type Promotion struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Code         string      `json:"code"`
	DiscountRate int         `json:"discount_rate"` // percent
	MaxDiscount  int64       `json:"max_discount"`  // 0 = uncapped
	StartsAt     time.Time   `json:"starts_at"`
	EndsAt       time.Time   `json:"ends_at"`
	IsActive     bool        `json:"is_active"`
	TotalQuota   int         `json:"total_quota"`
	UsedCount    int         `json:"used_count"`
	CategoryIDs  []uuid.UUID `json:"category_ids"`
}

// AvailableAt reports whether the promotion can still be redeemed at
// the given instant.
func (p *Promotion) AvailableAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return false
	}
	if p.TotalQuota > 0 && p.UsedCount >= p.TotalQuota {
		return false
	}
	return true
}

// AppliesTo reports whether the given category is one of the
// promotion's target categories.
func (p *Promotion) AppliesTo(categoryID uuid.UUID) bool {
	for _, id := range p.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// DiscountFor computes the discount for a subtotal: subtotal times the
// rate, capped at MaxDiscount when a cap is set.
func (p *Promotion) DiscountFor(subtotal int64) int64 {
	discount := subtotal * int64(p.DiscountRate) / 100
	if p.MaxDiscount > 0 && discount > p.MaxDiscount {
		return p.MaxDiscount
	}
	return discount
}
