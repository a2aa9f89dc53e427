package model

import (
	"fmt"
	"strings"
)

// PaymentMethod は支払い方法を表します
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "creditcard"
	PaymentMethodPayPal     PaymentMethod = "paypal"
)

// LookupPaymentMethod は識別子から支払い方法を取得します
func LookupPaymentMethod(id string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(id)) {
	case PaymentMethodCreditCard:
		return PaymentMethodCreditCard, nil
	case PaymentMethodPayPal:
		return PaymentMethodPayPal, nil
	default:
		return "", fmt.Errorf("%w: unsupported payment type: %q", ErrInvalidArgument, id)
	}
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCreditCard:
		return "Credit Card"
	case PaymentMethodPayPal:
		return "PayPal"
	default:
		return ""
	}
}
