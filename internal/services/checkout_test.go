package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/solemart/solemart/internal/catalog"
	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStorefront() *catalog.Storefront {
	return &catalog.Storefront{
		Name:     "Solemart",
		Currency: "USD",
		ShippingMethods: []catalog.ShippingMethod{
			{ID: "standard", Name: "Standard", Fee: 30},
			{ID: "express", Name: "Express", Fee: 90},
		},
		PaymentMethods: []catalog.PaymentMethod{
			{Name: "Bank Redirect", Kind: catalog.KindRedirect, Active: true},
			{Name: "Cash", Kind: catalog.KindCOD, Active: true},
			{Name: "Legacy Wallet", Kind: catalog.KindRedirect, Active: false},
		},
	}
}

type fakeInitiator struct {
	url string
	err error
}

func (f *fakeInitiator) Initiate(context.Context, *models.Order, *models.Payment) (string, error) {
	return f.url, f.err
}

func checkoutFixture() (*CheckoutService, *fakeStore, CheckoutInput) {
	store := newFakeStore()
	userID := uuid.New()
	store.address = &models.Address{ID: uuid.New(), UserID: userID, IsDefault: true}

	shoes := uuid.New()
	variantA := &models.Variant{ID: uuid.New(), ProductName: "Runner", SKU: "RUN-42", CategoryID: shoes, Price: 150, StockOnHand: 10}
	variantB := &models.Variant{ID: uuid.New(), ProductName: "Walker", SKU: "WLK-40", CategoryID: shoes, Price: 50, StockOnHand: 10}
	store.tx.variants[variantA.ID] = variantA
	store.tx.variants[variantB.ID] = variantB

	store.tx.promotions["SAVE10"] = &models.Promotion{
		ID:           uuid.New(),
		Code:         "SAVE10",
		DiscountRate: 10,
		StartsAt:     time.Now().Add(-time.Hour),
		EndsAt:       time.Now().Add(time.Hour),
		IsActive:     true,
		CategoryIDs:  []uuid.UUID{shoes},
	}

	initiators := map[catalog.PaymentKind]PaymentInitiator{
		catalog.KindRedirect: &fakeInitiator{url: "https://pay.example.com/checkout?sig=abc"},
	}
	svc := NewCheckoutService(store, testStorefront(), initiators, testLogger())

	input := CheckoutInput{
		UserID:           userID,
		Items:            []CheckoutItem{{VariantID: variantA.ID, Qty: 1}, {VariantID: variantB.ID, Qty: 1}},
		ShippingMethodID: "standard",
		PaymentMethod:    "Bank Redirect",
	}
	return svc, store, input
}

func TestCheckoutWithPromotion(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	input.PromotionCode = "save10"

	result, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	order := result.Order
	if got := order.Subtotal(); got != 200 {
		t.Fatalf("subtotal = %d, want 200", got)
	}
	if order.Discount != 20 {
		t.Errorf("discount = %d, want 20", order.Discount)
	}
	if order.ShippingFee != 30000 {
		t.Errorf("shipping fee = %d, want 30000", order.ShippingFee)
	}
	if want := int64(200 - 20 + 30000); order.Total != want {
		t.Errorf("total = %d, want %d", order.Total, want)
	}
	if order.PromotionID == nil {
		t.Error("promotion id not recorded on order")
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Errorf("order number = %q, want ORD- prefix", order.OrderNumber)
	}
	if got := store.tx.promotions["SAVE10"].UsedCount; got != 1 {
		t.Errorf("promotion used count = %d, want 1", got)
	}
	if result.RedirectURL == "" {
		t.Error("expected redirect URL for redirect payment method")
	}
	if result.Payment.Status != models.PaymentPending {
		t.Errorf("payment status = %q, want %q", result.Payment.Status, models.PaymentPending)
	}
	if result.Payment.Amount != order.Total {
		t.Errorf("payment amount = %d, want %d", result.Payment.Amount, order.Total)
	}

	wantEvents := []string{models.LogPaymentInitiated}
	if got := store.tx.logEvents(); len(got) != 1 || got[0] != wantEvents[0] {
		t.Errorf("log events = %v, want %v", got, wantEvents)
	}
	if len(store.tx.statusAppends) != 1 || store.tx.statusAppends[0].status != models.StatusPending {
		t.Errorf("status appends = %v, want single Pending", store.tx.statusAppends)
	}
}

func TestCheckoutReturnsOrderWhenInitiationFails(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	svc.initiators = map[catalog.PaymentKind]PaymentInitiator{
		catalog.KindRedirect: &fakeInitiator{err: errors.New("provider down")},
	}

	result, err := svc.Checkout(context.Background(), input)
	if err == nil {
		t.Fatal("Checkout() error = nil, want initiation failure")
	}
	if result == nil || result.Order == nil {
		t.Fatal("expected the committed order alongside the error")
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
	if result.RedirectURL != "" {
		t.Errorf("redirect URL = %q, want empty", result.RedirectURL)
	}
}

func TestCheckoutCapsPromotionDiscount(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	store.tx.promotions["SAVE10"].MaxDiscount = 5
	input.PromotionCode = "SAVE10"

	result, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	order := result.Order
	if order.Discount != 5 {
		t.Errorf("discount = %d, want capped at 5", order.Discount)
	}
	if want := int64(200 - 5 + 30000); order.Total != want {
		t.Errorf("total = %d, want %d", order.Total, want)
	}
	if got := store.tx.promotions["SAVE10"].UsedCount; got != 1 {
		t.Errorf("promotion used count = %d, want 1", got)
	}
}

func TestCheckoutFreezesUnitPrices(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()

	result, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	for _, variant := range store.tx.variants {
		variant.Price *= 2
	}
	if got := result.Order.Subtotal(); got != 200 {
		t.Fatalf("subtotal after catalog price change = %d, want 200", got)
	}
}

func TestCheckoutDecrementsStockAndCart(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	input.Items = input.Items[:1]
	input.Items[0].Qty = 3

	if _, err := svc.Checkout(context.Background(), input); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	variant := store.tx.variants[input.Items[0].VariantID]
	if variant.StockOnHand != 7 {
		t.Errorf("stock on hand = %d, want 7", variant.StockOnHand)
	}
	if len(store.tx.cartReductions) != 1 || store.tx.cartReductions[0].qty != 3 {
		t.Errorf("cart reductions = %v, want one reduction of 3", store.tx.cartReductions)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	input.Items[1].Qty = 11

	_, err := svc.Checkout(context.Background(), input)
	if !errors.Is(err, db.ErrInsufficientStock) {
		t.Fatalf("Checkout() error = %v, want ErrInsufficientStock", err)
	}
	if store.commits != 0 {
		t.Errorf("commits = %d, want 0", store.commits)
	}
	if len(store.tx.createdOrders) != 0 {
		t.Errorf("orders created despite rollback: %d", len(store.tx.createdOrders))
	}
}

func TestCheckoutCashOnDelivery(t *testing.T) {
	t.Parallel()

	svc, store, input := checkoutFixture()
	input.PaymentMethod = "Cash"

	result, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if result.RedirectURL != "" {
		t.Errorf("redirect URL = %q, want empty for cash on delivery", result.RedirectURL)
	}
	if result.Payment.Status != models.PaymentCOD {
		t.Errorf("payment status = %q, want %q", result.Payment.Status, models.PaymentCOD)
	}

	statuses := make([]models.OrderStatus, 0, len(store.tx.statusAppends))
	for _, a := range store.tx.statusAppends {
		statuses = append(statuses, a.status)
	}
	if len(statuses) != 2 || statuses[0] != models.StatusPending || statuses[1] != models.StatusConfirmed {
		t.Errorf("status history = %v, want [Pending Confirmed]", statuses)
	}
	if got := store.tx.logEvents(); len(got) != 1 || got[0] != models.LogPaymentConfirmed {
		t.Errorf("log events = %v, want [PaymentConfirmed]", got)
	}
}

func TestCheckoutPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*CheckoutInput, *fakeStore)
		wantErr error
	}{
		{
			name:    "no items",
			mutate:  func(in *CheckoutInput, _ *fakeStore) { in.Items = nil },
			wantErr: ErrEmptyOrder,
		},
		{
			name:    "no default address",
			mutate:  func(_ *CheckoutInput, s *fakeStore) { s.address = nil },
			wantErr: ErrNoDefaultAddress,
		},
		{
			name:    "unknown shipping method",
			mutate:  func(in *CheckoutInput, _ *fakeStore) { in.ShippingMethodID = "drone" },
			wantErr: ErrUnknownShippingMethod,
		},
		{
			name:    "unknown payment method",
			mutate:  func(in *CheckoutInput, _ *fakeStore) { in.PaymentMethod = "Barter" },
			wantErr: ErrUnknownPaymentMethod,
		},
		{
			name:    "inactive payment method",
			mutate:  func(in *CheckoutInput, _ *fakeStore) { in.PaymentMethod = "Legacy Wallet" },
			wantErr: ErrPaymentMethodInactive,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, store, input := checkoutFixture()
			tc.mutate(&input, store)

			_, err := svc.Checkout(context.Background(), input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Checkout() error = %v, want %v", err, tc.wantErr)
			}
			if len(store.tx.createdOrders) != 0 {
				t.Errorf("order created despite failed precondition")
			}
		})
	}
}

func TestCheckoutDropsUnusablePromotions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		code   string
		mutate func(*fakeStore, CheckoutInput)
	}{
		{
			name: "unknown code",
			code: "NOSUCH",
		},
		{
			name: "expired",
			code: "SAVE10",
			mutate: func(s *fakeStore, _ CheckoutInput) {
				s.tx.promotions["SAVE10"].EndsAt = time.Now().Add(-time.Minute)
			},
		},
		{
			name: "inactive",
			code: "SAVE10",
			mutate: func(s *fakeStore, _ CheckoutInput) {
				s.tx.promotions["SAVE10"].IsActive = false
			},
		},
		{
			name: "quota exhausted before redemption",
			code: "SAVE10",
			mutate: func(s *fakeStore, _ CheckoutInput) {
				s.tx.promotions["SAVE10"].TotalQuota = 5
				s.tx.promotions["SAVE10"].UsedCount = 5
			},
		},
		{
			name: "redemption raced away",
			code: "SAVE10",
			mutate: func(s *fakeStore, _ CheckoutInput) {
				s.tx.redeemExhausted = true
			},
		},
		{
			name: "no eligible category",
			code: "SAVE10",
			mutate: func(s *fakeStore, _ CheckoutInput) {
				s.tx.promotions["SAVE10"].CategoryIDs = []uuid.UUID{uuid.New()}
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, store, input := checkoutFixture()
			if tc.mutate != nil {
				tc.mutate(store, input)
			}
			input.PromotionCode = tc.code

			result, err := svc.Checkout(context.Background(), input)
			if err != nil {
				t.Fatalf("Checkout() error = %v, want promotion silently dropped", err)
			}
			if result.Order.Discount != 0 {
				t.Errorf("discount = %d, want 0", result.Order.Discount)
			}
			if result.Order.PromotionID != nil {
				t.Errorf("promotion id recorded for dropped promotion")
			}
			if want := int64(200 + 30000); result.Order.Total != want {
				t.Errorf("total = %d, want %d", result.Order.Total, want)
			}
		})
	}
}
