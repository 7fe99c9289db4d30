package models

import "testing"

func TestDiscountFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rate        int
		maxDiscount int64
		subtotal    int64
		want        int64
	}{
		{name: "uncapped", rate: 10, maxDiscount: 0, subtotal: 200, want: 20},
		{name: "cap below computed discount", rate: 50, maxDiscount: 25, subtotal: 200, want: 25},
		{name: "cap above computed discount", rate: 10, maxDiscount: 500, subtotal: 200, want: 20},
		{name: "cap equal to computed discount", rate: 10, maxDiscount: 20, subtotal: 200, want: 20},
		{name: "rate rounds down", rate: 3, maxDiscount: 0, subtotal: 50, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			promo := &Promotion{DiscountRate: tt.rate, MaxDiscount: tt.maxDiscount}
			if got := promo.DiscountFor(tt.subtotal); got != tt.want {
				t.Errorf("DiscountFor(%d) = %d, want %d", tt.subtotal, got, tt.want)
			}
		})
	}
}
