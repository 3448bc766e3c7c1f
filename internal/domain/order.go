package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
	OrderShipped OrderStatus = "shipped"
)

// Order holds a snapshot of cart items copied at checkout time. Items are
// never mutated after creation.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	Items            []CartItem  `json:"items"`
	Status           OrderStatus `json:"status"`
	PaymentReference string      `json:"paymentReference,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Subtotal is the sum of item line totals.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
