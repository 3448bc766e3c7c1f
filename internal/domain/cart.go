package domain

import "github.com/shopspring/decimal"

// CartItem is a line in a cart or, once checkout snapshots it into an Order,
// an immutable record of what was bought. UnitPrice is captured at add time so
// later catalog price changes never alter a placed order.
type CartItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// LineTotal is UnitPrice times Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
