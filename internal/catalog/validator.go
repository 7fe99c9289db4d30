package catalog

// Package catalog provides storefront configuration validation.

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(storefront *Storefront) error {
	if strings.TrimSpace(storefront.Name) == "" {
		return fmt.Errorf("storefront name is required")
	}
	if strings.TrimSpace(storefront.Currency) == "" {
		return fmt.Errorf("storefront currency is required")
	}

	if len(storefront.ShippingMethods) == 0 {
		return fmt.Errorf("at least one shipping method is required")
	}
	shippingIDs := make(map[string]bool)
	for i, method := range storefront.ShippingMethods {
		if err := v.validateShippingMethod(&method); err != nil {
			return fmt.Errorf("shipping method %d validation failed: %w", i, err)
		}
		if shippingIDs[method.ID] {
			return fmt.Errorf("duplicate shipping method id: %s", method.ID)
		}
		shippingIDs[method.ID] = true
	}

	if len(storefront.PaymentMethods) == 0 {
		return fmt.Errorf("at least one payment method is required")
	}
	paymentNames := make(map[string]bool)
	for i, method := range storefront.PaymentMethods {
		if err := v.validatePaymentMethod(&method); err != nil {
			return fmt.Errorf("payment method %d validation failed: %w", i, err)
		}
		name := strings.ToLower(method.Name)
		if paymentNames[name] {
			return fmt.Errorf("duplicate payment method: %s", method.Name)
		}
		paymentNames[name] = true
	}

	return nil
}

func (v *Validator) validateShippingMethod(method *ShippingMethod) error {
	if strings.TrimSpace(method.ID) == "" {
		return fmt.Errorf("shipping method id is required")
	}
	if strings.TrimSpace(method.Name) == "" {
		return fmt.Errorf("shipping method name is required")
	}
	if method.Fee < 0 {
		return fmt.Errorf("shipping fee must be zero or positive")
	}
	return nil
}

func (v *Validator) validatePaymentMethod(method *PaymentMethod) error {
	if strings.TrimSpace(method.Name) == "" {
		return fmt.Errorf("payment method name is required")
	}
	switch method.Kind {
	case KindCOD, KindRedirect, KindStripe:
		return nil
	default:
		return fmt.Errorf("unknown payment method kind: %s", method.Kind)
	}
}
