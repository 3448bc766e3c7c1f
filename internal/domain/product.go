package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	CategoryID  string            `json:"categoryId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
