// Package catalog holds the authoritative in-memory category and product
// collections, including stock counts. It is pure mechanism: admin policy is
// enforced by the platform orchestrator, not here.
package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"ecommerce-core/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
	products   map[string]domain.Product
}

func NewStore() *Store {
	return &Store{
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
	}
}

// Load replaces the store contents with an already-deserialized snapshot.
func (s *Store) Load(categories map[string]domain.Category, products map[string]domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make(map[string]domain.Category, len(categories))
	for id, c := range categories {
		s.categories[id] = c
	}
	s.products = make(map[string]domain.Product, len(products))
	for id, p := range products {
		s.products[id] = p
	}
}

func (s *Store) CreateCategory(name, description string) domain.Category {
	now := time.Now().UTC()
	category := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.categories[category.ID] = category
	s.mu.Unlock()
	return category
}

// DeleteCategory removes the category and cascades to every product that
// references it. Deleting an absent category is a no-op.
func (s *Store) DeleteCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.CategoryID == id {
			delete(s.products, pid)
		}
	}
}

func (s *Store) Category(id string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCategories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sortByCreated(result, func(c domain.Category) (time.Time, string) { return c.CreatedAt, c.ID })
	return result
}

type AddProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  string
	Metadata    map[string]string
}

// AddProduct creates a product under an existing category.
func (s *Store) AddProduct(in AddProductInput) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[in.CategoryID]; !ok {
		return domain.Product{}, fmt.Errorf("category %s: %w", in.CategoryID, domain.ErrNotFound)
	}
	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	delete(s.products, id)
	s.mu.Unlock()
}

func (s *Store) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sortByCreated(result, func(p domain.Product) (time.Time, string) { return p.CreatedAt, p.ID })
	return result
}

// AdjustStock applies delta to the product's stock count. It fails with
// ErrInventory, leaving the count untouched, when the result would be
// negative.
func (s *Store) AdjustStock(id string, delta int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	next := p.Stock + delta
	if next < 0 {
		return domain.Product{}, fmt.Errorf("product %s: requested %d, available %d: %w", p.Name, -delta, p.Stock, domain.ErrInventory)
	}
	p.Stock = next
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return p, nil
}

// Snapshot copies both collections for persistence.
func (s *Store) Snapshot() (map[string]domain.Category, map[string]domain.Product) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make(map[string]domain.Category, len(s.categories))
	for id, c := range s.categories {
		categories[id] = c
	}
	products := make(map[string]domain.Product, len(s.products))
	for id, p := range s.products {
		products[id] = p
	}
	return categories, products
}

func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}
