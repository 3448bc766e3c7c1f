package cart

import (
	"testing"

	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
)

func item(productID, price string, qty int) domain.CartItem {
	d, _ := decimal.NewFromString(price)
	return domain.CartItem{ProductID: productID, ProductName: productID, UnitPrice: d, Quantity: qty}
}

func TestAddItemMergesLines(t *testing.T) {
	m := NewManager()
	m.AddItem("u1", item("p1", "10.00", 1))
	m.AddItem("u1", item("p1", "10.00", 2))

	items := m.Items("u1")
	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("merged quantity: got %d, want 3", items[0].Quantity)
	}
}

func TestRemoveItemDecrementsAndDeletes(t *testing.T) {
	m := NewManager()
	m.AddItem("u1", item("p1", "10.00", 3))

	if removed := m.RemoveItem("u1", "p1", 2); removed != 2 {
		t.Fatalf("removed: got %d, want 2", removed)
	}
	items := m.Items("u1")
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("unexpected items after partial removal: %+v", items)
	}

	if removed := m.RemoveItem("u1", "p1", 5); removed != 1 {
		t.Fatalf("removed is clamped to the line quantity: got %d, want 1", removed)
	}
	if !m.IsEmpty("u1") {
		t.Fatal("expected empty cart after removing the last line")
	}
}

func TestRemoveItemAbsentLine(t *testing.T) {
	m := NewManager()
	if removed := m.RemoveItem("u1", "missing", 1); removed != 0 {
		t.Fatalf("removed from absent line: got %d, want 0", removed)
	}
}

func TestTotalIsDerived(t *testing.T) {
	m := NewManager()
	m.AddItem("u1", item("p1", "10.00", 2))
	m.AddItem("u1", item("p2", "2.50", 3))

	if got := m.Total("u1").String(); got != "27.5" {
		t.Fatalf("total: got %s, want 27.5", got)
	}
}

func TestCartsAreCreatedLazilyPerUser(t *testing.T) {
	m := NewManager()
	if !m.IsEmpty("new-user") {
		t.Fatal("fresh user should have an empty cart, not an error")
	}

	m.AddItem("u1", item("p1", "10.00", 1))
	if !m.IsEmpty("u2") {
		t.Fatal("carts must be isolated per user")
	}
}

func TestClear(t *testing.T) {
	m := NewManager()
	m.AddItem("u1", item("p1", "10.00", 1))
	m.Clear("u1")
	if !m.IsEmpty("u1") {
		t.Fatal("expected empty cart after clear")
	}
}
