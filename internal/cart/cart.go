package cart

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"MediCart/internal/identity"
	"MediCart/internal/session"
	"MediCart/internal/storage"
)

const namespace = "cart"

// Item is a product snapshot plus quantity. The product fields are
// denormalized at add time and never revalidated against the catalog;
// staleness is tolerated until checkout, where the backend reprices.
type Item struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	ImageURL     string `json:"image_url,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Qty          int    `json:"qty"`
}

func (i Item) Key() string { return i.ProductID }

// Store is the cart collection for one session.
type Store struct {
	inner *session.Store[Item]
}

func NewStore(kv storage.KV, log *zap.Logger, metrics *session.Metrics) *Store {
	return &Store{inner: session.New[Item](namespace, kv, log, metrics)}
}

func (s *Store) Bind(src *identity.Source) func() { return s.inner.Bind(src) }

func (s *Store) Items() []Item { return s.inner.Items() }

// Add inserts the item, or bumps its quantity by one when the product is
// already in the cart. A blank product id is a defensive no-op.
func (s *Store) Add(ctx context.Context, item Item) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return nil
	}
	if item.Qty < 1 {
		item.Qty = 1
	}

	return s.inner.Mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].ProductID == item.ProductID {
				items[i].Qty++
				return items
			}
		}
		return append(items, item)
	})
}

// Remove deletes the product from the cart; absent products are a no-op.
func (s *Store) Remove(ctx context.Context, productID string) error {
	return s.inner.Mutate(ctx, func(items []Item) []Item {
		return deleteByID(items, productID)
	})
}

// UpdateQuantity sets the product's quantity. qty <= 0 is equivalent to
// Remove; an unknown product id is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, productID)
	}

	return s.inner.Mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Qty = qty
				break
			}
		}
		return items
	})
}

func (s *Store) Clear(ctx context.Context) error { return s.inner.Clear(ctx) }

// Count is the total number of units across all lines.
func (s *Store) Count() int {
	var n int
	for _, it := range s.inner.Items() {
		n += it.Qty
	}
	return n
}

// TotalCents is the cart subtotal at snapshotted prices.
func (s *Store) TotalCents() int64 {
	var total int64
	for _, it := range s.inner.Items() {
		total += it.PriceCents * int64(it.Qty)
	}
	return total
}

func deleteByID(items []Item, productID string) []Item {
	n := 0
	for _, it := range items {
		if it.ProductID != productID {
			items[n] = it
			n++
		}
	}
	return items[:n]
}
