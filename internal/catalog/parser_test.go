package catalog

import "testing"

const sampleStorefront = `
name: Solemart
currency: VND
shipping_methods:
  - id: standard
    name: Standard delivery
    fee: 30
  - id: express
    name: Express delivery
    fee: 55
payment_methods:
  - name: COD
    kind: cod
    active: true
  - name: Wallet
    kind: redirect
    active: true
  - name: Stripe
    kind: stripe
    active: false
`

func TestParseStorefront(t *testing.T) {
	t.Parallel()

	storefront, err := NewParser().Parse([]byte(sampleStorefront))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storefront.Name != "Solemart" {
		t.Errorf("name = %q, want Solemart", storefront.Name)
	}
	if len(storefront.ShippingMethods) != 2 {
		t.Fatalf("shipping methods = %d, want 2", len(storefront.ShippingMethods))
	}
	if storefront.ShippingMethods[0].Fee != 30 {
		t.Errorf("standard fee = %d, want 30", storefront.ShippingMethods[0].Fee)
	}
	if len(storefront.PaymentMethods) != 3 {
		t.Fatalf("payment methods = %d, want 3", len(storefront.PaymentMethods))
	}
}

func TestParseInvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := NewParser().Parse([]byte("payment_methods: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestShippingMethodLookup(t *testing.T) {
	t.Parallel()

	storefront, err := NewParser().Parse([]byte(sampleStorefront))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method := storefront.ShippingMethod("express"); method == nil || method.Fee != 55 {
		t.Errorf("express lookup = %+v, want fee 55", method)
	}
	if method := storefront.ShippingMethod("missing"); method != nil {
		t.Errorf("missing lookup = %+v, want nil", method)
	}
}

func TestPaymentMethodLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	storefront, err := NewParser().Parse([]byte(sampleStorefront))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method := storefront.PaymentMethod("wallet"); method == nil || method.Kind != KindRedirect {
		t.Errorf("wallet lookup = %+v, want redirect kind", method)
	}
	if method := storefront.PaymentMethod("COD"); method == nil || method.Kind != KindCOD {
		t.Errorf("COD lookup = %+v, want cod kind", method)
	}
}
