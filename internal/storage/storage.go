package storage

import "context"

// KV is the durable slot storage carts and wishlists persist into.
// Semantics are last-write-wins per key; there are no cross-key
// transactions and none are assumed by callers.
type KV interface {
	// Read returns the value stored under key, reporting false when the
	// key has never been written.
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
