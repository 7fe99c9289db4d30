// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// OrderInfo carries the fields the payment confirmation templates need.
// Monetary values arrive pre-formatted.
type OrderInfo struct {
	OrderNumber   string
	CustomerEmail string
	StoreName     string
	PaymentMethod string
	Items         []OrderItem
	Subtotal      string
	Discount      string
	ShippingFee   string
	Total         string
	OrderDate     string
}

// OrderItem represents a single line in an order
type OrderItem struct {
	Name       string
	SKU        string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

const paymentConfirmedText = `Hi,

Your payment for order {{.OrderNumber}} has been confirmed.

Items:
{{range .Items}}  {{.Name}} ({{.SKU}}) x{{.Quantity}} @ {{.UnitPrice}} = {{.TotalPrice}}
{{end}}
Subtotal: {{.Subtotal}}
{{if .Discount}}Discount: -{{.Discount}}
{{end}}Shipping: {{.ShippingFee}}
Total paid: {{.Total}} via {{.PaymentMethod}}

Thanks for shopping at {{.StoreName}}.
`

const paymentConfirmedHTML = `<html>
<body style="font-family: sans-serif;">
<h2>Payment confirmed</h2>
<p>Your payment for order <strong>{{.OrderNumber}}</strong> has been confirmed.</p>
<table cellpadding="6" cellspacing="0" border="0">
<tr><th align="left">Item</th><th align="left">SKU</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.SKU}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.TotalPrice}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>
{{if .Discount}}Discount: -{{.Discount}}<br>{{end}}
Shipping: {{.ShippingFee}}<br>
<strong>Total paid: {{.Total}}</strong> via {{.PaymentMethod}}</p>
<p>Thanks for shopping at {{.StoreName}}.</p>
</body>
</html>
`

// Renderer renders the payment confirmation email in both formats.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl := template.New("email")
	if _, err := tmpl.New("payment_confirmed_text").Parse(paymentConfirmedText); err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	if _, err := tmpl.New("payment_confirmed_html").Parse(paymentConfirmedHTML); err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders the payment confirmation email for an order.
func (r *Renderer) Render(data *OrderInfo) (*Email, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&textBuf, "payment_confirmed_text", data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}
	if err := r.templates.ExecuteTemplate(&htmlBuf, "payment_confirmed_html", data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: fmt.Sprintf("Payment Confirmed - %s - %s", data.OrderNumber, data.StoreName),
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

// SendPaymentConfirmation renders and sends the payment confirmation
// email for a settled order.
func SendPaymentConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	email, err := renderer.Render(orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}
