// Package storage persists the platform state as a single snapshot document
// with four top-level collections (users, categories, products, orders), each
// keyed by entity id. Every persist is a whole-collection replace. Decimal
// amounts are serialized as exact-precision strings and timestamps in
// RFC 3339, so snapshots survive restarts without rounding drift.
package storage

import (
	"fmt"
	"time"

	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
)

// Store is the storage collaborator consumed by the core: three whole-state
// loads and three whole-state persists, each atomic.
type Store interface {
	LoadCatalog() (map[string]domain.Category, map[string]domain.Product, error)
	LoadOrders(products map[string]domain.Product) (map[string]domain.Order, error)
	LoadUsers() (map[string]domain.User, error)
	PersistCatalog(categories map[string]domain.Category, products map[string]domain.Product) error
	PersistOrders(orders map[string]domain.Order) error
	PersistUsers(users map[string]domain.User) error
}

type document struct {
	Users      map[string]userRecord     `json:"users"`
	Categories map[string]categoryRecord `json:"categories"`
	Products   map[string]productRecord  `json:"products"`
	Orders     map[string]orderRecord    `json:"orders"`
}

func emptyDocument() document {
	return document{
		Users:      map[string]userRecord{},
		Categories: map[string]categoryRecord{},
		Products:   map[string]productRecord{},
		Orders:     map[string]orderRecord{},
	}
}

type categoryRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type productRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       string            `json:"price"`
	Stock       int               `json:"stock"`
	CategoryID  string            `json:"categoryId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type orderItemRecord struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

type orderRecord struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	Items            []orderItemRecord `json:"items"`
	Status           string            `json:"status"`
	PaymentReference string            `json:"paymentReference,omitempty"`
	Subtotal         string            `json:"subtotal"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type userRecord struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FullName        string     `json:"fullName"`
	PasswordHash    string     `json:"passwordHash"`
	Active          bool       `json:"active"`
	Role            string     `json:"role"`
	ShippingAddress string     `json:"shippingAddress,omitempty"`
	FailedAttempts  int        `json:"failedAttempts,omitempty"`
	LockedUntil     *time.Time `json:"lockedUntil,omitempty"`
}

func encodeCategory(c domain.Category) categoryRecord {
	return categoryRecord(c)
}

func decodeCategory(r categoryRecord) domain.Category {
	return domain.Category(r)
}

func encodeProduct(p domain.Product) productRecord {
	return productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func decodeProduct(r productRecord) (domain.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: parse price %q: %w", r.ID, r.Price, err)
	}
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Stock:       r.Stock,
		CategoryID:  r.CategoryID,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func encodeOrder(o domain.Order) orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemRecord{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.String(),
			Quantity:    item.Quantity,
		})
	}
	return orderRecord{
		ID:               o.ID,
		UserID:           o.UserID,
		Items:            items,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		Subtotal:         o.Subtotal().String(),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// decodeOrder rebuilds an order from its item snapshots. The products map
// backfills names on records written before item snapshots carried them.
func decodeOrder(r orderRecord, products map[string]domain.Product) (domain.Order, error) {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, ir := range r.Items {
		price, err := decimal.NewFromString(ir.UnitPrice)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: parse unit price %q: %w", r.ID, ir.UnitPrice, err)
		}
		name := ir.ProductName
		if name == "" {
			if p, ok := products[ir.ProductID]; ok {
				name = p.Name
			}
		}
		items = append(items, domain.CartItem{
			ProductID:   ir.ProductID,
			ProductName: name,
			UnitPrice:   price,
			Quantity:    ir.Quantity,
		})
	}
	return domain.Order{
		ID:               r.ID,
		UserID:           r.UserID,
		Items:            items,
		Status:           domain.OrderStatus(r.Status),
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func encodeUser(u domain.User) userRecord {
	return userRecord{
		ID:              u.ID,
		Username:        u.Username,
		FullName:        u.FullName,
		PasswordHash:    u.PasswordHash,
		Active:          u.Active,
		Role:            string(u.Role),
		ShippingAddress: u.ShippingAddress,
		FailedAttempts:  u.FailedAttempts,
		LockedUntil:     u.LockedUntil,
	}
}

func decodeUser(r userRecord) domain.User {
	role := domain.Role(r.Role)
	if !domain.ValidRole(role) {
		role = domain.RoleCustomer
	}
	return domain.User{
		ID:              r.ID,
		Username:        r.Username,
		FullName:        r.FullName,
		PasswordHash:    r.PasswordHash,
		Active:          r.Active,
		Role:            role,
		ShippingAddress: r.ShippingAddress,
		FailedAttempts:  r.FailedAttempts,
		LockedUntil:     r.LockedUntil,
	}
}

func encodeCategories(categories map[string]domain.Category) map[string]categoryRecord {
	out := make(map[string]categoryRecord, len(categories))
	for id, c := range categories {
		out[id] = encodeCategory(c)
	}
	return out
}

func encodeProducts(products map[string]domain.Product) map[string]productRecord {
	out := make(map[string]productRecord, len(products))
	for id, p := range products {
		out[id] = encodeProduct(p)
	}
	return out
}

func encodeOrders(orders map[string]domain.Order) map[string]orderRecord {
	out := make(map[string]orderRecord, len(orders))
	for id, o := range orders {
		out[id] = encodeOrder(o)
	}
	return out
}

func encodeUsers(users map[string]domain.User) map[string]userRecord {
	out := make(map[string]userRecord, len(users))
	for username, u := range users {
		out[username] = encodeUser(u)
	}
	return out
}
