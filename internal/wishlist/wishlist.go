package wishlist

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"MediCart/internal/identity"
	"MediCart/internal/session"
	"MediCart/internal/storage"
)

const namespace = "wishlist"

// Item is a bare product snapshot; wishlists carry no quantities.
type Item struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	ImageURL     string `json:"image_url,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

func (i Item) Key() string { return i.ProductID }

// Store is the wishlist collection for one session.
type Store struct {
	inner *session.Store[Item]
}

func NewStore(kv storage.KV, log *zap.Logger, metrics *session.Metrics) *Store {
	return &Store{inner: session.New[Item](namespace, kv, log, metrics)}
}

func (s *Store) Bind(src *identity.Source) func() { return s.inner.Bind(src) }

func (s *Store) Items() []Item { return s.inner.Items() }

// Add inserts the item if absent. Adding a product already on the list
// is a no-op, so repeated clicks are idempotent.
func (s *Store) Add(ctx context.Context, item Item) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return nil
	}

	return s.inner.Mutate(ctx, func(items []Item) []Item {
		for _, it := range items {
			if it.ProductID == item.ProductID {
				return items
			}
		}
		return append(items, item)
	})
}

// Remove deletes the product; absent products are a no-op.
func (s *Store) Remove(ctx context.Context, productID string) error {
	return s.inner.Mutate(ctx, func(items []Item) []Item {
		return deleteByID(items, productID)
	})
}

// Toggle removes the product when present and adds it when absent.
// It reports whether the product is on the list afterwards.
func (s *Store) Toggle(ctx context.Context, item Item) (bool, error) {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		return false, nil
	}

	var present bool
	err := s.inner.Mutate(ctx, func(items []Item) []Item {
		for _, it := range items {
			if it.ProductID == item.ProductID {
				return deleteByID(items, item.ProductID)
			}
		}
		present = true
		return append(items, item)
	})
	return present, err
}

func (s *Store) Clear(ctx context.Context) error { return s.inner.Clear(ctx) }

// Count is the number of products on the list.
func (s *Store) Count() int {
	return len(s.inner.Items())
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
