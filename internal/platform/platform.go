// Package platform is the order orchestrator: it owns the catalog, carts, and
// orders, drives the checkout and payment-confirmation workflows, enforces
// admin-only mutations, and persists snapshots through the storage
// collaborator.
//
// Locking: each owned component guards its own state and no component lock is
// held while calling another, so the only ordering that matters is the
// platform's own — the per-user checkout lock is taken before the orders
// lock, never the other way around.
package platform

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/cart"
	"ecommerce-core/internal/catalog"
	"ecommerce-core/internal/domain"
	"ecommerce-core/internal/payment"
	"ecommerce-core/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Platform struct {
	catalog   *catalog.Store
	carts     *cart.Manager
	processor *payment.Processor
	auth      *auth.Service
	store     storage.Store
	logger    *zap.SugaredLogger

	ordersMu sync.Mutex
	orders   map[string]domain.Order

	checkoutMu    sync.Mutex
	checkoutLocks map[string]*sync.Mutex
}

// New wires a platform from its collaborators and, when a store is supplied,
// hydrates catalog, orders, and users from the last snapshot. The platform is
// an explicit handle: it is created at process start and passed into every
// caller, never reached through globals.
func New(processor *payment.Processor, authSvc *auth.Service, store storage.Store, logger *zap.SugaredLogger) (*Platform, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p := &Platform{
		catalog:       catalog.NewStore(),
		carts:         cart.NewManager(),
		processor:     processor,
		auth:          authSvc,
		store:         store,
		logger:        logger,
		orders:        make(map[string]domain.Order),
		checkoutLocks: make(map[string]*sync.Mutex),
	}
	if store != nil {
		categories, products, err := store.LoadCatalog()
		if err != nil {
			return nil, fmt.Errorf("load catalog snapshot: %w", err)
		}
		p.catalog.Load(categories, products)
		orders, err := store.LoadOrders(products)
		if err != nil {
			return nil, fmt.Errorf("load orders snapshot: %w", err)
		}
		p.orders = orders
		users, err := store.LoadUsers()
		if err != nil {
			return nil, fmt.Errorf("load users snapshot: %w", err)
		}
		authSvc.Load(users)
	}
	return p, nil
}

// Auth exposes the auth service the platform was wired with.
func (p *Platform) Auth() *auth.Service { return p.auth }

// PaymentMethods lists the registered payment method names.
func (p *Platform) PaymentMethods() []string { return p.processor.Methods() }

// ---- Category management ----

func (p *Platform) CreateCategory(name, description string, actingUser domain.User) (domain.Category, error) {
	if err := auth.RequireAdmin(actingUser); err != nil {
		return domain.Category{}, err
	}
	if name == "" {
		return domain.Category{}, fmt.Errorf("category name required: %w", domain.ErrInvalidInput)
	}
	category := p.catalog.CreateCategory(name, description)
	if err := p.persistCatalog(); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (p *Platform) DeleteCategory(id string, actingUser domain.User) error {
	if err := auth.RequireAdmin(actingUser); err != nil {
		return err
	}
	p.catalog.DeleteCategory(id)
	return p.persistCatalog()
}

func (p *Platform) ListCategories() []domain.Category { return p.catalog.ListCategories() }

// ---- Product management ----

func (p *Platform) AddProduct(in catalog.AddProductInput, actingUser domain.User) (domain.Product, error) {
	if err := auth.RequireAdmin(actingUser); err != nil {
		return domain.Product{}, err
	}
	if in.Name == "" {
		return domain.Product{}, fmt.Errorf("product name required: %w", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("price must not be negative: %w", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return domain.Product{}, fmt.Errorf("stock must not be negative: %w", domain.ErrInvalidInput)
	}
	product, err := p.catalog.AddProduct(in)
	if err != nil {
		return domain.Product{}, err
	}
	if err := p.persistCatalog(); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (p *Platform) RemoveProduct(id string, actingUser domain.User) error {
	if err := auth.RequireAdmin(actingUser); err != nil {
		return err
	}
	p.catalog.RemoveProduct(id)
	return p.persistCatalog()
}

func (p *Platform) ListProducts() []domain.Product { return p.catalog.ListProducts() }

func (p *Platform) Product(id string) (domain.Product, error) { return p.catalog.Product(id) }

// ---- Cart operations ----

// AddToCart reserves stock at add time: the product's stock is decremented
// immediately and restored only by removal, a failed payment, or its failed
// confirmation.
func (p *Platform) AddToCart(userID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}
	product, err := p.catalog.AdjustStock(productID, -quantity)
	if err != nil {
		return err
	}
	p.carts.AddItem(userID, domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	})
	return p.persistCatalog()
}

// RemoveFromCart releases the reservation for whatever quantity actually
// leaves the cart.
func (p *Platform) RemoveFromCart(userID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}
	removed := p.carts.RemoveItem(userID, productID, quantity)
	if removed == 0 {
		return nil
	}
	if _, err := p.catalog.AdjustStock(productID, removed); err != nil {
		// The product may have been removed from the catalog while it sat in
		// the cart; there is nothing left to restock then.
		p.logger.Warnw("restock after cart removal skipped", "productId", productID, "error", err)
		return nil
	}
	return p.persistCatalog()
}

func (p *Platform) CartItems(userID string) []domain.CartItem { return p.carts.Items(userID) }

func (p *Platform) CartTotal(userID string) string { return p.carts.Total(userID).String() }

// ---- Checkout ----

// Checkout snapshots the user's cart into a new order and runs the payment.
// An immediately successful receipt marks the order paid; an immediate
// failure marks it failed and restocks every item; a pending receipt leaves
// the order created with the reference attached. The cart is cleared in every
// one of those outcomes, including pending. A per-user lock guarantees
// at-most-one checkout consumes a given cart snapshot.
func (p *Platform) Checkout(userID, paymentMethod string) (domain.Order, error) {
	lock := p.userCheckoutLock(userID)
	lock.Lock()
	defer lock.Unlock()

	items := p.carts.Items(userID)
	if len(items) == 0 {
		return domain.Order{}, fmt.Errorf("cart is empty: %w", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     items,
		Status:    domain.OrderCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	receipt, err := p.processor.Pay(paymentMethod, order)
	if err != nil {
		// No order was recorded and the cart is untouched; the reservation
		// from add-to-cart time still stands.
		return domain.Order{}, err
	}

	order.PaymentReference = receipt.Reference
	switch receipt.Status {
	case domain.PaymentSuccess:
		order.Status = domain.OrderPaid
	case domain.PaymentFailed:
		order.Status = domain.OrderFailed
		p.restock(order.Items)
		if err := p.persistCatalog(); err != nil {
			return domain.Order{}, err
		}
	}
	order.UpdatedAt = time.Now().UTC()

	p.ordersMu.Lock()
	p.orders[order.ID] = order
	p.ordersMu.Unlock()

	if err := p.persistOrders(); err != nil {
		return domain.Order{}, err
	}
	p.carts.Clear(userID)
	p.logger.Infow("checkout completed", "orderId", order.ID, "userId", userID, "status", order.Status, "reference", order.PaymentReference)
	return order, nil
}

// ConfirmPayment completes a pending payment and moves its order to the
// matching terminal state, restocking on failure.
func (p *Platform) ConfirmPayment(reference string, evidence map[string]string) (domain.Order, error) {
	receipt, err := p.processor.Complete(reference, evidence)
	if err != nil {
		return domain.Order{}, err
	}

	p.ordersMu.Lock()
	order, ok := p.orderByReferenceLocked(reference)
	if !ok {
		p.ordersMu.Unlock()
		return domain.Order{}, fmt.Errorf("order for reference %s: %w", reference, domain.ErrNotFound)
	}
	restocked := false
	if receipt.Status == domain.PaymentSuccess {
		order.Status = domain.OrderPaid
	} else {
		order.Status = domain.OrderFailed
		restocked = true
	}
	order.UpdatedAt = time.Now().UTC()
	p.orders[order.ID] = order
	p.ordersMu.Unlock()

	if restocked {
		p.restock(order.Items)
		if err := p.persistCatalog(); err != nil {
			return domain.Order{}, err
		}
	}
	if err := p.persistOrders(); err != nil {
		return domain.Order{}, err
	}
	p.logger.Infow("payment confirmed", "orderId", order.ID, "status", order.Status, "reference", reference)
	return order, nil
}

// Receipt looks up the receipt for a payment reference.
func (p *Platform) Receipt(reference string) (domain.PaymentReceipt, error) {
	return p.processor.Receipt(reference)
}

// ListOrders returns every order. Admin only.
func (p *Platform) ListOrders(actingUser domain.User) ([]domain.Order, error) {
	if err := auth.RequireAdmin(actingUser); err != nil {
		return nil, err
	}
	p.ordersMu.Lock()
	defer p.ordersMu.Unlock()
	result := make([]domain.Order, 0, len(p.orders))
	for _, o := range p.orders {
		result = append(result, o)
	}
	sortOrders(result)
	return result, nil
}

// OrdersForUser returns the given user's own orders.
func (p *Platform) OrdersForUser(userID string) []domain.Order {
	p.ordersMu.Lock()
	defer p.ordersMu.Unlock()
	var result []domain.Order
	for _, o := range p.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	sortOrders(result)
	return result
}

func (p *Platform) orderByReferenceLocked(reference string) (domain.Order, bool) {
	for _, o := range p.orders {
		if o.PaymentReference == reference {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (p *Platform) restock(items []domain.CartItem) {
	for _, item := range items {
		if _, err := p.catalog.AdjustStock(item.ProductID, item.Quantity); err != nil {
			p.logger.Warnw("restock skipped", "productId", item.ProductID, "quantity", item.Quantity, "error", err)
		}
	}
}

func (p *Platform) userCheckoutLock(userID string) *sync.Mutex {
	p.checkoutMu.Lock()
	defer p.checkoutMu.Unlock()
	lock, ok := p.checkoutLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		p.checkoutLocks[userID] = lock
	}
	return lock
}

func (p *Platform) persistCatalog() error {
	if p.store == nil {
		return nil
	}
	categories, products := p.catalog.Snapshot()
	return p.store.PersistCatalog(categories, products)
}

func (p *Platform) persistOrders() error {
	if p.store == nil {
		return nil
	}
	p.ordersMu.Lock()
	orders := make(map[string]domain.Order, len(p.orders))
	for id, o := range p.orders {
		orders[id] = o
	}
	p.ordersMu.Unlock()
	return p.store.PersistOrders(orders)
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
