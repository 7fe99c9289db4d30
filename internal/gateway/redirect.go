// Package gateway translates between the order model and the
// redirect payment provider's signed query-string wire format. It has
// no database access.
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ResponseCodeSuccess is the provider response code denoting a
// successful payment.
const ResponseCodeSuccess = "00"

// The provider expects amounts scaled to hundredths of the minor
// currency unit.
const wireAmountScale = 100

const (
	paramRef         = "ref"
	paramAmount      = "amount"
	paramDescription = "desc"
	paramTimestamp   = "ts"
	paramReturnURL   = "return"
	paramTxnID       = "txn"
	paramCode        = "code"
	paramSignature   = "sig"
)

const timestampLayout = "20060102150405"

// Client builds redirect URLs for pending payments and verifies
// inbound callback signatures.
type Client struct {
	endpoint  string
	secret    []byte
	returnURL string
}

func NewClient(endpoint, secret, returnURL string) *Client {
	return &Client{
		endpoint:  endpoint,
		secret:    []byte(secret),
		returnURL: returnURL,
	}
}

// PayParams describes the pending payment a customer is redirected to
// the provider for.
type PayParams struct {
	OrderRef    string
	Amount      int64 // minor currency units
	Description string
	CreatedAt   time.Time
}

// BuildRedirectURL returns the provider URL the customer's browser is
// sent to. The query string is signed over every field except the
// signature itself.
func (c *Client) BuildRedirectURL(p PayParams) (string, error) {
	if p.OrderRef == "" {
		return "", fmt.Errorf("order ref is required")
	}
	if p.Amount <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}

	params := map[string]string{
		paramRef:         p.OrderRef,
		paramAmount:      fmt.Sprintf("%d", p.Amount*wireAmountScale),
		paramDescription: p.Description,
		paramTimestamp:   p.CreatedAt.UTC().Format(timestampLayout),
		paramReturnURL:   c.returnURL,
	}
	signature := c.sign(params)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set(paramSignature, signature)

	return c.endpoint + "?" + values.Encode(), nil
}

// CallbackResult is the outcome of verifying an inbound callback.
// When Success is false no field beyond Token may be trusted.
type CallbackResult struct {
	Success       bool
	OrderRef      string
	TransactionID string
	ResponseCode  string
	Description   string
	Token         string
}

// VerifyCallback recomputes the expected signature over every callback
// field except the signature and compares it to the presented one.
func (c *Client) VerifyCallback(rawQuery string) (CallbackResult, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return CallbackResult{}, fmt.Errorf("failed to parse callback query: %w", err)
	}

	presented := values.Get(paramSignature)
	result := CallbackResult{Token: presented}
	if presented == "" {
		return result, nil
	}

	params := make(map[string]string, len(values))
	for key := range values {
		if key == paramSignature {
			continue
		}
		params[key] = values.Get(key)
	}

	expected := c.sign(params)
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return result, nil
	}

	result.Success = true
	result.OrderRef = values.Get(paramRef)
	result.TransactionID = values.Get(paramTxnID)
	result.ResponseCode = values.Get(paramCode)
	result.Description = values.Get(paramDescription)
	return result, nil
}

// sign computes the hex HMAC-SHA512 over the canonicalized field set:
// keys sorted, values url-encoded, joined k=v with ampersands.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha512.New, c.secret)
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}
