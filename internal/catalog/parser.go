package catalog

// Package catalog provides storefront.yaml parsing functionality.

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PaymentKind decides how a payment method settles: collected on
// delivery, through the signed-redirect gateway, or through Stripe
// Checkout.
type PaymentKind string

const (
	KindCOD      PaymentKind = "cod"
	KindRedirect PaymentKind = "redirect"
	KindStripe   PaymentKind = "stripe"
)

type Storefront struct {
	Name            string           `yaml:"name"`
	Currency        string           `yaml:"currency"`
	ShippingMethods []ShippingMethod `yaml:"shipping_methods"`
	PaymentMethods  []PaymentMethod  `yaml:"payment_methods"`
}

type ShippingMethod struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Fee is configured in thousands of the minor currency unit; the
	// order assembler scales it when folding it into the order total.
	Fee int64 `yaml:"fee"`
}

type PaymentMethod struct {
	Name   string      `yaml:"name"`
	Kind   PaymentKind `yaml:"kind"`
	Active bool        `yaml:"active"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*Storefront, error) {
	var storefront Storefront
	if err := yaml.Unmarshal(content, &storefront); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &storefront, nil
}

// ParseFile loads and parses a storefront config from disk.
func (p *Parser) ParseFile(path string) (*Storefront, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storefront config: %w", err)
	}
	return p.Parse(content)
}

// ShippingMethod looks up a shipping method by its identifier.
func (s *Storefront) ShippingMethod(id string) *ShippingMethod {
	for i := range s.ShippingMethods {
		if s.ShippingMethods[i].ID == id {
			return &s.ShippingMethods[i]
		}
	}
	return nil
}

// PaymentMethod looks up a payment method by name, case-insensitively.
func (s *Storefront) PaymentMethod(name string) *PaymentMethod {
	for i := range s.PaymentMethods {
		if strings.EqualFold(s.PaymentMethods[i].Name, name) {
			return &s.PaymentMethods[i]
		}
	}
	return nil
}
