// Package cart keeps per-user shopping carts. Carts are transient: they are
// never persisted, and a user's cart is created lazily on first access.
package cart

import (
	"sort"
	"sync"

	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
)

// Manager maps user ids to their carts. A single lock guards the whole
// structure; cart operations are small map updates.
type Manager struct {
	mu    sync.Mutex
	carts map[string]map[string]domain.CartItem
}

func NewManager() *Manager {
	return &Manager{carts: make(map[string]map[string]domain.CartItem)}
}

func (m *Manager) cart(userID string) map[string]domain.CartItem {
	c, ok := m.carts[userID]
	if !ok {
		c = make(map[string]domain.CartItem)
		m.carts[userID] = c
	}
	return c
}

// AddItem merges item into the user's cart, creating the line or adding to an
// existing line's quantity. The item's unit price is kept from the first add.
func (m *Manager) AddItem(userID string, item domain.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(userID)
	if existing, ok := c[item.ProductID]; ok {
		existing.Quantity += item.Quantity
		c[item.ProductID] = existing
		return
	}
	c[item.ProductID] = item
}

// RemoveItem decrements the line by qty, deleting it once quantity reaches
// zero or below. It returns the quantity actually removed, which is what the
// caller must restock; removing from an absent line removes nothing.
func (m *Manager) RemoveItem(userID, productID string, qty int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(userID)
	item, ok := c[productID]
	if !ok {
		return 0
	}
	removed := qty
	if removed > item.Quantity {
		removed = item.Quantity
	}
	item.Quantity -= qty
	if item.Quantity <= 0 {
		delete(c, productID)
	} else {
		c[productID] = item
	}
	return removed
}

func (m *Manager) Clear(userID string) {
	m.mu.Lock()
	delete(m.carts, userID)
	m.mu.Unlock()
}

// Items returns a copy of the user's cart lines ordered by product id.
func (m *Manager) Items(userID string) []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(userID)
	items := make([]domain.CartItem, 0, len(c))
	for _, item := range c {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

// Total is derived from the lines, never stored.
func (m *Manager) Total(userID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, item := range m.cart(userID) {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

func (m *Manager) IsEmpty(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts[userID]) == 0
}
