package channel

import "strings"

// Template data keys read for payment confirmations.
const (
	KeyOrderID       = "orderId"
	KeyAmount        = "amount"
	KeyPaymentMethod = "paymentMethod"
)

// Placeholders substituted for missing payment fields.
const (
	DefaultOrderID       = "-"
	DefaultAmount        = "0.00"
	DefaultPaymentMethod = "-"
)

// Payment is the rendered view of a payment event's template data.
type Payment struct {
	OrderID       string
	Amount        string
	PaymentMethod string
}

// PaymentFrom reads payment fields from data, substituting placeholders for
// missing or blank keys. A nil map is treated as empty.
func PaymentFrom(data map[string]string) Payment {
	return Payment{
		OrderID:       valueOr(data, KeyOrderID, DefaultOrderID),
		Amount:        valueOr(data, KeyAmount, DefaultAmount),
		PaymentMethod: valueOr(data, KeyPaymentMethod, DefaultPaymentMethod),
	}
}

func valueOr(data map[string]string, key, def string) string {
	if v := strings.TrimSpace(data[key]); v != "" {
		return v
	}
	return def
}
