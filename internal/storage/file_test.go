package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestFileStoreStartsEmpty(t *testing.T) {
	store := newTestFileStore(t)

	categories, products, err := store.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(categories) != 0 || len(products) != 0 {
		t.Fatalf("expected empty catalog, got %d categories, %d products", len(categories), len(products))
	}
	users, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestFileStoreCatalogRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	categories := map[string]domain.Category{
		"cat-1": {ID: "cat-1", Name: "Books", Description: "Printed things", CreatedAt: now, UpdatedAt: now},
	}
	products := map[string]domain.Product{
		"prod-1": {
			ID:         "prod-1",
			Name:       "Novel",
			Price:      mustDecimal(t, "15.00"),
			Stock:      5,
			CategoryID: "cat-1",
			Metadata:   map[string]string{"author": "N. N."},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	if err := store.PersistCatalog(categories, products); err != nil {
		t.Fatalf("persist catalog: %v", err)
	}

	gotCategories, gotProducts, err := store.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if got := gotCategories["cat-1"].Name; got != "Books" {
		t.Fatalf("category name: got %q", got)
	}
	p, ok := gotProducts["prod-1"]
	if !ok {
		t.Fatal("product missing after reload")
	}
	if !p.Price.Equal(mustDecimal(t, "15.00")) {
		t.Fatalf("price drifted: got %s", p.Price)
	}
	if p.Stock != 5 || p.CategoryID != "cat-1" || p.Metadata["author"] != "N. N." {
		t.Fatalf("unexpected product %+v", p)
	}
	if !p.CreatedAt.Equal(now) {
		t.Fatalf("createdAt drifted: got %s", p.CreatedAt)
	}
}

func TestFileStoreOrdersRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	orders := map[string]domain.Order{
		"order-1": {
			ID:     "order-1",
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "prod-1", ProductName: "Novel", UnitPrice: mustDecimal(t, "12.50"), Quantity: 2},
			},
			Status:           domain.OrderPaid,
			PaymentReference: "UPI-abc123",
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
	if err := store.PersistOrders(orders); err != nil {
		t.Fatalf("persist orders: %v", err)
	}

	got, err := store.LoadOrders(nil)
	if err != nil {
		t.Fatalf("load orders: %v", err)
	}
	o, ok := got["order-1"]
	if !ok {
		t.Fatal("order missing after reload")
	}
	if o.Status != domain.OrderPaid || o.PaymentReference != "UPI-abc123" {
		t.Fatalf("unexpected order %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].ProductName != "Novel" || o.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", o.Items)
	}
	if !o.Subtotal().Equal(mustDecimal(t, "25.00")) {
		t.Fatalf("subtotal: got %s, want 25.00", o.Subtotal())
	}
}

func TestFileStoreBackfillsItemNames(t *testing.T) {
	store := newTestFileStore(t)

	orders := map[string]domain.Order{
		"order-1": {
			ID:     "order-1",
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "prod-1", UnitPrice: mustDecimal(t, "9.99"), Quantity: 1},
			},
			Status: domain.OrderPaid,
		},
	}
	if err := store.PersistOrders(orders); err != nil {
		t.Fatalf("persist orders: %v", err)
	}

	products := map[string]domain.Product{
		"prod-1": {ID: "prod-1", Name: "Novel", Price: mustDecimal(t, "9.99")},
	}
	got, err := store.LoadOrders(products)
	if err != nil {
		t.Fatalf("load orders: %v", err)
	}
	if name := got["order-1"].Items[0].ProductName; name != "Novel" {
		t.Fatalf("backfilled name: got %q, want Novel", name)
	}
}

func TestFileStoreUsersRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	locked := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	users := map[string]domain.User{
		"alice": {
			ID:             "user-1",
			Username:       "alice",
			FullName:       "Alice",
			PasswordHash:   "$2a$10$fakehash",
			Active:         true,
			Role:           domain.RoleCustomer,
			FailedAttempts: 2,
			LockedUntil:    &locked,
		},
	}
	if err := store.PersistUsers(users); err != nil {
		t.Fatalf("persist users: %v", err)
	}

	got, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	u, ok := got["alice"]
	if !ok {
		t.Fatal("user missing after reload")
	}
	if u.PasswordHash != "$2a$10$fakehash" || u.FailedAttempts != 2 {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.LockedUntil == nil || !u.LockedUntil.Equal(locked) {
		t.Fatalf("lockedUntil drifted: got %v", u.LockedUntil)
	}
}

func TestFileStoreUnknownRoleFallsBackToCustomer(t *testing.T) {
	store := newTestFileStore(t)

	users := map[string]domain.User{
		"bob": {ID: "user-2", Username: "bob", Active: true, Role: domain.Role("wizard")},
	}
	if err := store.PersistUsers(users); err != nil {
		t.Fatalf("persist users: %v", err)
	}
	got, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if got["bob"].Role != domain.RoleCustomer {
		t.Fatalf("role: got %s, want customer", got["bob"].Role)
	}
}

func TestFileStorePersistReplacesSection(t *testing.T) {
	store := newTestFileStore(t)

	orders := map[string]domain.Order{
		"order-1": {ID: "order-1", UserID: "user-1", Status: domain.OrderPaid},
		"order-2": {ID: "order-2", UserID: "user-1", Status: domain.OrderFailed},
	}
	if err := store.PersistOrders(orders); err != nil {
		t.Fatalf("persist orders: %v", err)
	}
	if err := store.PersistOrders(map[string]domain.Order{
		"order-2": {ID: "order-2", UserID: "user-1", Status: domain.OrderShipped},
	}); err != nil {
		t.Fatalf("persist orders again: %v", err)
	}

	got, err := store.LoadOrders(nil)
	if err != nil {
		t.Fatalf("load orders: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("persist must replace the whole section, got %d orders", len(got))
	}
	if got["order-2"].Status != domain.OrderShipped {
		t.Fatalf("status: got %s, want shipped", got["order-2"].Status)
	}
}

func TestFileStoreKeepsOtherSections(t *testing.T) {
	store := newTestFileStore(t)

	if err := store.PersistUsers(map[string]domain.User{
		"alice": {ID: "user-1", Username: "alice", Active: true, Role: domain.RoleCustomer},
	}); err != nil {
		t.Fatalf("persist users: %v", err)
	}
	if err := store.PersistCatalog(
		map[string]domain.Category{"cat-1": {ID: "cat-1", Name: "Books"}},
		map[string]domain.Product{"prod-1": {ID: "prod-1", Name: "Novel", Price: mustDecimal(t, "15.00"), CategoryID: "cat-1"}},
	); err != nil {
		t.Fatalf("persist catalog: %v", err)
	}

	users, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if _, ok := users["alice"]; !ok {
		t.Fatal("persisting the catalog must not drop the users section")
	}
}

func TestFileStoreWritesExactDecimalStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := store.PersistCatalog(nil, map[string]domain.Product{
		"prod-1": {ID: "prod-1", Name: "Mug", Price: mustDecimal(t, "12.99"), Stock: 1},
	}); err != nil {
		t.Fatalf("persist catalog: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(raw), `"price": "12.99"`) {
		t.Fatalf("price not stored as an exact string:\n%s", raw)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	for _, section := range []string{"users", "categories", "products", "orders"} {
		if _, ok := doc[section]; !ok {
			t.Fatalf("snapshot missing %q section", section)
		}
	}
}
