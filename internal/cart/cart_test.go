package cart_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"MediCart/internal/cart"
	"MediCart/internal/identity"
	"MediCart/internal/storage"
)

func newTestStore(t *testing.T) *cart.Store {
	t.Helper()

	st := cart.NewStore(storage.NewMemKV(), zap.NewNop(), nil)
	src := identity.NewSource()
	st.Bind(src)
	src.Resolve("u1", "customer")
	return st
}

func paracetamol() cart.Item {
	return cart.Item{
		ProductID:    "m1",
		Name:         "Paracetamol 500mg",
		PriceCents:   15,
		Manufacturer: "Acme Pharma",
		Qty:          1,
	}
}

func ibuprofen() cart.Item {
	return cart.Item{
		ProductID:  "m2",
		Name:       "Ibuprofen 200mg",
		PriceCents: 10,
		Qty:        1,
	}
}

func TestAddIncrementsQuantity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Add(ctx, paracetamol()); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items := st.Items()
	if len(items) != 1 {
		t.Fatalf("expected single line, got %d", len(items))
	}
	if items[0].Qty != 3 {
		t.Fatalf("expected qty 3 after 3 adds, got %d", items[0].Qty)
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.Add(ctx, ibuprofen()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := st.Items()
	if len(items) != 2 || items[0].ProductID != "m1" || items[1].ProductID != "m2" {
		t.Fatalf("insertion order broken: %v", items)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := st.Remove(ctx, "m1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := st.Remove(ctx, "m1"); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
	if err := st.Remove(ctx, "never-added"); err != nil {
		t.Fatalf("removing unknown id should be a no-op, got %v", err)
	}

	if got := st.Items(); len(got) != 0 {
		t.Fatalf("expected empty cart, got %v", got)
	}
}

func TestQuantityFloor(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := st.UpdateQuantity(ctx, "m1", 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("qty 0 should remove the line, got %v", got)
	}

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.UpdateQuantity(ctx, "m1", -4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("negative qty should remove the line, got %v", got)
	}
}

func TestUpdateQuantityReplaces(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.UpdateQuantity(ctx, "m1", 5); err != nil {
		t.Fatalf("update: %v", err)
	}

	items := st.Items()
	if len(items) != 1 || items[0].Qty != 5 {
		t.Fatalf("expected qty 5, got %v", items)
	}

	// Unknown product id is a no-op, not an error.
	if err := st.UpdateQuantity(ctx, "never-added", 2); err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if got := st.Items(); len(got) != 1 {
		t.Fatalf("unknown update changed the cart: %v", got)
	}
}

func TestAggregates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil { // 15 x1
		t.Fatalf("add: %v", err)
	}
	if err := st.UpdateQuantity(ctx, "m1", 2); err != nil { // 15 x2
		t.Fatalf("update: %v", err)
	}
	if err := st.Add(ctx, ibuprofen()); err != nil { // 10 x1
		t.Fatalf("add: %v", err)
	}

	if got := st.TotalCents(); got != 40 {
		t.Fatalf("expected total 40, got %d", got)
	}
	if got := st.Count(); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
}

func TestClear(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, paracetamol()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.Add(ctx, ibuprofen()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("expected empty cart, got %v", got)
	}
	if st.Count() != 0 || st.TotalCents() != 0 {
		t.Fatalf("aggregates should be zero after clear")
	}
}

func TestBlankProductIDIgnored(t *testing.T) {
	st := newTestStore(t)

	if err := st.Add(context.Background(), cart.Item{ProductID: "   "}); err != nil {
		t.Fatalf("blank add should be a no-op, got %v", err)
	}
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("blank product id was added: %v", got)
	}
}
