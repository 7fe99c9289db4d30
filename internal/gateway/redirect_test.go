package gateway

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func testClient() *Client {
	return NewClient("https://pay.example.com/checkout", "test-secret", "https://shop.example.com/payments/callback")
}

func signedCallbackQuery(c *Client, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set(paramSignature, c.sign(params))
	return values.Encode()
}

func TestBuildRedirectURL(t *testing.T) {
	t.Parallel()

	c := testClient()
	redirect, err := c.BuildRedirectURL(PayParams{
		OrderRef:    "7f8a0a5e-2f7c-4f94-9d4e-30b2a47be000",
		Amount:      230000,
		Description: "Payment for order ORD-1",
		CreatedAt:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("redirect URL does not parse: %v", err)
	}
	if !strings.HasPrefix(redirect, "https://pay.example.com/checkout?") {
		t.Fatalf("redirect = %q, want provider endpoint prefix", redirect)
	}

	query := parsed.Query()
	if got := query.Get(paramAmount); got != "23000000" {
		t.Errorf("wire amount = %q, want scaled 23000000", got)
	}
	if got := query.Get(paramTimestamp); got != "20260314092653" {
		t.Errorf("timestamp = %q, want 20260314092653", got)
	}
	if query.Get(paramSignature) == "" {
		t.Error("redirect URL is missing the signature parameter")
	}
}

func TestBuildRedirectURLRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	c := testClient()
	if _, err := c.BuildRedirectURL(PayParams{Amount: 100}); err == nil {
		t.Error("expected error for missing order ref")
	}
	if _, err := c.BuildRedirectURL(PayParams{OrderRef: "ref", Amount: 0}); err == nil {
		t.Error("expected error for non-positive amount")
	}
}

func TestVerifyCallbackAcceptsSignedQuery(t *testing.T) {
	t.Parallel()

	c := testClient()
	rawQuery := signedCallbackQuery(c, map[string]string{
		paramRef:         "order-1",
		paramTxnID:       "14422574",
		paramCode:        ResponseCodeSuccess,
		paramDescription: "Payment for order ORD-1",
	})

	result, err := c.VerifyCallback(rawQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected verification to succeed")
	}
	if result.OrderRef != "order-1" || result.TransactionID != "14422574" {
		t.Errorf("result = %+v, want order-1/14422574", result)
	}
	if result.ResponseCode != ResponseCodeSuccess {
		t.Errorf("response code = %q, want %q", result.ResponseCode, ResponseCodeSuccess)
	}
	if result.Token == "" {
		t.Error("expected signature echo in token")
	}
}

func TestVerifyCallbackRejectsTamperedQuery(t *testing.T) {
	t.Parallel()

	c := testClient()
	rawQuery := signedCallbackQuery(c, map[string]string{
		paramRef:   "order-1",
		paramTxnID: "14422574",
		paramCode:  ResponseCodeSuccess,
	})
	tampered := strings.Replace(rawQuery, "order-1", "order-2", 1)

	result, err := c.VerifyCallback(tampered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected verification to fail for tampered payload")
	}
	if result.OrderRef != "" {
		t.Errorf("order ref leaked from unverified payload: %q", result.OrderRef)
	}
}

func TestVerifyCallbackRejectsMissingSignature(t *testing.T) {
	t.Parallel()

	result, err := testClient().VerifyCallback("ref=order-1&code=00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected verification to fail without a signature")
	}
}

func TestVerifyCallbackRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	other := NewClient("https://pay.example.com/checkout", "other-secret", "https://shop.example.com/payments/callback")
	rawQuery := signedCallbackQuery(other, map[string]string{
		paramRef:  "order-1",
		paramCode: ResponseCodeSuccess,
	})

	result, err := testClient().VerifyCallback(rawQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected verification to fail for a foreign secret")
	}
}
