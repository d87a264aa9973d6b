// Package session implements the identity-scoped collection store shared
// by carts and wishlists. A store watches one identity source, keeps an
// ordered in-memory collection for the current identity, and writes the
// whole collection through to a durable per-identity slot after every
// mutation. Anonymous visitors get an ephemeral collection that is never
// persisted.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediCart/internal/identity"
	"MediCart/internal/storage"
)

// storageTimeout bounds slot reads done inside identity transitions,
// which run outside any request context.
const storageTimeout = 3 * time.Second

// ErrIdentityPending rejects mutations issued while session resolution is
// in flight, so no write can land under a slot the session no longer
// represents.
var ErrIdentityPending = errors.New("identity resolution pending")

// Keyed is an item addressable by product id within a collection.
type Keyed interface {
	Key() string
}

// Store is one collection (cart or wishlist) scoped to a live session.
// All reads, mutations, and identity transitions serialize on one mutex:
// a transition therefore replaces the collection atomically with respect
// to readers, and a mutation always persists under the identity that was
// current when it was applied.
type Store[T Keyed] struct {
	ns      string
	kv      storage.KV
	log     *zap.Logger
	metrics *Metrics

	mu      sync.Mutex
	pending bool
	userID  string // "" means anonymous
	items   []T
}

// New builds a store persisting under the "<ns>:<user id>" key namespace.
// Namespaces must be distinct per collection type.
func New[T Keyed](ns string, kv storage.KV, log *zap.Logger, metrics *Metrics) *Store[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store[T]{ns: ns, kv: kv, log: log, metrics: metrics}
}

// Bind subscribes the store to an identity source. The source delivers
// its current snapshot immediately, which doubles as the initial
// observation of the transition algorithm. The returned func detaches
// the store from the source.
func (s *Store[T]) Bind(src *identity.Source) func() {
	return src.Subscribe(s.observe)
}

// observe runs the identity-transition algorithm for one snapshot.
func (s *Store[T]) observe(snap identity.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Pending {
		// No decision yet: keep the last-known collection visible and
		// hold off mutations until the source settles.
		s.pending = true
		return
	}
	s.pending = false

	if snap.UserID == s.userID {
		// Settled on the same identity (e.g. a token refresh); the
		// collection is already the right one.
		return
	}

	s.userID = snap.UserID
	s.items = s.rehydrate()
}

// rehydrate loads the current identity's slot. Every failure path
// degrades to an empty collection; corruption or storage trouble never
// propagates out of a transition.
func (s *Store[T]) rehydrate() []T {
	if s.userID == "" {
		return nil
	}

	key := slotKey(s.ns, s.userID)

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	raw, ok, err := s.kv.Read(ctx, key)
	if err != nil {
		s.log.Warn("slot read failed, starting empty",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	items, err := decodeRecord[T](raw)
	if err != nil {
		s.log.Warn("slot corrupted, starting empty",
			zap.String("key", key), zap.Error(err))
		if s.metrics != nil {
			s.metrics.CorruptRecords.WithLabelValues(s.ns).Inc()
		}
		return nil
	}
	return items
}

// Items returns a copy of the collection in insertion order. During a
// pending resolution this is the last-known collection.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Pending reports whether identity resolution is in flight.
func (s *Store[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Mutate applies fn to the collection and writes the result through to
// the current identity's slot. fn runs under the store lock and must not
// block. Returns ErrIdentityPending while resolution is in flight;
// persistence failures are reported for diagnostics but never fail the
// mutation, since in-memory state stays authoritative for the session.
func (s *Store[T]) Mutate(ctx context.Context, fn func(items []T) []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return ErrIdentityPending
	}

	s.items = fn(s.items)
	s.persistLocked(ctx)
	return nil
}

// Clear empties the collection.
func (s *Store[T]) Clear(ctx context.Context) error {
	return s.Mutate(ctx, func([]T) []T { return nil })
}

func (s *Store[T]) persistLocked(ctx context.Context) {
	if s.userID == "" {
		return
	}

	key := slotKey(s.ns, s.userID)

	raw, err := encodeRecord(s.items)
	if err != nil {
		s.log.Error("encode slot failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.kv.Write(ctx, key, raw); err != nil {
		s.log.Warn("slot write failed, keeping in-memory state",
			zap.String("key", key), zap.Error(err))
		if s.metrics != nil {
			s.metrics.PersistFailures.WithLabelValues(s.ns).Inc()
		}
	}
}

func slotKey(ns, userID string) string {
	return ns + ":" + userID
}
