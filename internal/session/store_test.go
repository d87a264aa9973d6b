package session_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"MediCart/internal/identity"
	"MediCart/internal/session"
	"MediCart/internal/storage"
)

type entry struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func (e entry) Key() string { return e.ID }

func newStore(t *testing.T, kv storage.KV) (*session.Store[entry], *identity.Source) {
	t.Helper()

	st := session.New[entry]("t", kv, zap.NewNop(), nil)
	src := identity.NewSource()
	st.Bind(src)
	return st, src
}

func add(t *testing.T, st *session.Store[entry], e entry) {
	t.Helper()

	err := st.Mutate(context.Background(), func(items []entry) []entry {
		return append(items, e)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
}

func ids(items []entry) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestIdentityIsolation(t *testing.T) {
	kv := storage.NewMemKV()
	st, src := newStore(t, kv)

	src.Resolve("alice", "customer")
	add(t, st, entry{ID: "x", Qty: 1})

	src.Resolve("bob", "customer")
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("bob should start empty, got %v", ids(got))
	}
	add(t, st, entry{ID: "y", Qty: 2})

	src.Resolve("alice", "customer")
	got := st.Items()
	if len(got) != 1 || got[0].ID != "x" || got[0].Qty != 1 {
		t.Fatalf("alice's collection not restored, got %v", got)
	}

	src.Resolve("bob", "customer")
	got = st.Items()
	if len(got) != 1 || got[0].ID != "y" {
		t.Fatalf("bob's collection not restored, got %v", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := storage.NewMemKV()

	st1, src1 := newStore(t, kv)
	src1.Resolve("alice", "customer")
	add(t, st1, entry{ID: "a", Qty: 2})
	add(t, st1, entry{ID: "b", Qty: 1})

	// Simulate a full reload: a fresh store over the same storage.
	st2, src2 := newStore(t, kv)
	src2.Resolve("alice", "customer")

	got := st2.Items()
	if len(got) != 2 || got[0].ID != "a" || got[0].Qty != 2 || got[1].ID != "b" {
		t.Fatalf("round trip mismatch, got %v", got)
	}
}

func TestAnonymousNotPersisted(t *testing.T) {
	kv := storage.NewMemKV()
	st, _ := newStore(t, kv)

	add(t, st, entry{ID: "x", Qty: 1})
	if got := st.Items(); len(got) != 1 {
		t.Fatalf("anonymous collection should work in memory, got %v", got)
	}
	if kv.Len() != 0 {
		t.Fatalf("anonymous mutation wrote %d slots", kv.Len())
	}

	// An identity-absent reload yields an empty collection.
	st2, _ := newStore(t, kv)
	if got := st2.Items(); len(got) != 0 {
		t.Fatalf("fresh anonymous store should be empty, got %v", got)
	}
}

func TestLogoutDiscardsWithoutErasing(t *testing.T) {
	kv := storage.NewMemKV()
	st, src := newStore(t, kv)

	src.Resolve("alice", "customer")
	add(t, st, entry{ID: "x", Qty: 1})

	src.ResolveAnonymous()
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("logout should yield empty collection, got %v", ids(got))
	}

	src.Resolve("alice", "customer")
	if got := st.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("alice's slot should survive logout, got %v", got)
	}
}

func TestWriteThroughKey(t *testing.T) {
	kv := storage.NewMemKV()
	st, src := newStore(t, kv)

	src.Resolve("alice", "customer")
	add(t, st, entry{ID: "x", Qty: 1})

	if _, ok, _ := kv.Read(context.Background(), "t:alice"); !ok {
		t.Fatalf("expected slot t:alice to exist")
	}
}

func TestCorruptSlotRecovers(t *testing.T) {
	kv := storage.NewMemKV()
	if err := kv.Write(context.Background(), "t:alice", "{definitely not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st, src := newStore(t, kv)
	src.Resolve("alice", "customer")

	if got := st.Items(); len(got) != 0 {
		t.Fatalf("corrupt slot should rehydrate empty, got %v", got)
	}

	// The collection is usable afterwards and overwrites the bad slot.
	add(t, st, entry{ID: "x", Qty: 1})
	st2, src2 := newStore(t, kv)
	src2.Resolve("alice", "customer")
	if got := st2.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("expected recovered slot, got %v", got)
	}
}

func TestUnknownRecordVersionRecovers(t *testing.T) {
	kv := storage.NewMemKV()
	if err := kv.Write(context.Background(), "t:alice", `{"v":99,"items":[{"id":"x","qty":1}]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st, src := newStore(t, kv)
	src.Resolve("alice", "customer")

	if got := st.Items(); len(got) != 0 {
		t.Fatalf("unknown version should rehydrate empty, got %v", got)
	}
}

func TestPendingRejectsMutations(t *testing.T) {
	kv := storage.NewMemKV()
	st, src := newStore(t, kv)

	src.Resolve("alice", "customer")
	add(t, st, entry{ID: "x", Qty: 1})

	src.BeginResolve()

	err := st.Mutate(context.Background(), func(items []entry) []entry {
		return append(items, entry{ID: "y", Qty: 1})
	})
	if !errors.Is(err, session.ErrIdentityPending) {
		t.Fatalf("expected ErrIdentityPending, got %v", err)
	}
	if !st.Pending() {
		t.Fatalf("store should report pending")
	}

	// The last-known collection stays visible while pending.
	if got := st.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("pending should keep last-known collection, got %v", got)
	}
}

func TestResettleSameIdentityKeepsCollection(t *testing.T) {
	kv := storage.NewMemKV()
	st, src := newStore(t, kv)

	src.Resolve("alice", "customer")
	add(t, st, entry{ID: "x", Qty: 1})

	// Another writer (e.g. a second tab) changes the slot out from under
	// us; settling on the same identity again must not reload it.
	if err := kv.Write(context.Background(), "t:alice", `{"v":1,"items":[]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	src.BeginResolve()
	src.Resolve("alice", "customer")

	if got := st.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("same-identity resettle should not reload, got %v", got)
	}
	if st.Pending() {
		t.Fatalf("store should have settled")
	}
}

type failingKV struct {
	reads int
}

func (f *failingKV) Read(ctx context.Context, key string) (string, bool, error) {
	f.reads++
	return "", false, errors.New("storage down")
}

func (f *failingKV) Write(ctx context.Context, key, value string) error {
	return errors.New("storage down")
}

func (f *failingKV) Ping(ctx context.Context) error {
	return errors.New("storage down")
}

func TestStorageFailureNonFatal(t *testing.T) {
	kv := &failingKV{}
	st, src := newStore(t, kv)

	// Rehydration failure degrades to empty.
	src.Resolve("alice", "customer")
	if got := st.Items(); len(got) != 0 {
		t.Fatalf("expected empty collection, got %v", got)
	}

	// Write failure does not fail the mutation; memory stays authoritative.
	add(t, st, entry{ID: "x", Qty: 1})
	if got := st.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("in-memory state lost on write failure, got %v", got)
	}
}
