package domain

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentReceipt records a single payment attempt. The reference is globally
// unique and is the only key used to locate the receipt or its order.
type PaymentReceipt struct {
	OrderID   string            `json:"orderId"`
	Method    string            `json:"method"`
	Amount    decimal.Decimal   `json:"amount"`
	Reference string            `json:"reference"`
	Status    PaymentStatus     `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
