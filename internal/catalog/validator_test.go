package catalog

import (
	"strings"
	"testing"
)

func validStorefront() *Storefront {
	return &Storefront{
		Name:     "Solemart",
		Currency: "VND",
		ShippingMethods: []ShippingMethod{
			{ID: "standard", Name: "Standard delivery", Fee: 30},
		},
		PaymentMethods: []PaymentMethod{
			{Name: "COD", Kind: KindCOD, Active: true},
			{Name: "Wallet", Kind: KindRedirect, Active: true},
		},
	}
}

func TestValidateStorefront(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Storefront)
		wantErr string
	}{
		{
			name:   "valid storefront",
			mutate: func(*Storefront) {},
		},
		{
			name:    "missing name",
			mutate:  func(s *Storefront) { s.Name = " " },
			wantErr: "name is required",
		},
		{
			name:    "no shipping methods",
			mutate:  func(s *Storefront) { s.ShippingMethods = nil },
			wantErr: "at least one shipping method",
		},
		{
			name: "negative shipping fee",
			mutate: func(s *Storefront) {
				s.ShippingMethods[0].Fee = -1
			},
			wantErr: "zero or positive",
		},
		{
			name: "duplicate shipping method id",
			mutate: func(s *Storefront) {
				s.ShippingMethods = append(s.ShippingMethods, s.ShippingMethods[0])
			},
			wantErr: "duplicate shipping method id",
		},
		{
			name:    "no payment methods",
			mutate:  func(s *Storefront) { s.PaymentMethods = nil },
			wantErr: "at least one payment method",
		},
		{
			name: "unknown payment kind",
			mutate: func(s *Storefront) {
				s.PaymentMethods[0].Kind = "wire"
			},
			wantErr: "unknown payment method kind",
		},
		{
			name: "duplicate payment method ignoring case",
			mutate: func(s *Storefront) {
				s.PaymentMethods = append(s.PaymentMethods, PaymentMethod{Name: "cod", Kind: KindCOD})
			},
			wantErr: "duplicate payment method",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			storefront := validStorefront()
			tt.mutate(storefront)

			err := NewValidator().Validate(storefront)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
