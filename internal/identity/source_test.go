package identity_test

import (
	"testing"

	"MediCart/internal/identity"
)

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	src := identity.NewSource()
	src.Resolve("alice", "customer")

	var got []identity.Snapshot
	src.Subscribe(func(s identity.Snapshot) { got = append(got, s) })

	if len(got) != 1 || got[0].UserID != "alice" {
		t.Fatalf("late subscriber should see current snapshot, got %v", got)
	}
}

func TestNotifyOnlyOnChange(t *testing.T) {
	src := identity.NewSource()

	var got []identity.Snapshot
	src.Subscribe(func(s identity.Snapshot) { got = append(got, s) })
	got = nil

	src.Resolve("alice", "customer")
	src.Resolve("alice", "customer") // no change, no notification
	src.ResolveAnonymous()

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d: %v", len(got), got)
	}
	if got[0].UserID != "alice" || !got[1].Anonymous() {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestBeginResolveKeepsIdentityVisible(t *testing.T) {
	src := identity.NewSource()
	src.Resolve("alice", "customer")

	src.BeginResolve()

	snap := src.Current()
	if !snap.Pending {
		t.Fatalf("expected pending snapshot")
	}
	if snap.UserID != "alice" {
		t.Fatalf("pending should keep last identity, got %q", snap.UserID)
	}
	if snap.Anonymous() {
		t.Fatalf("pending snapshot must not read as anonymous")
	}
}

func TestUnsubscribe(t *testing.T) {
	src := identity.NewSource()

	var n int
	cancel := src.Subscribe(func(identity.Snapshot) { n++ })
	cancel()

	src.Resolve("alice", "customer")

	if n != 1 { // only the initial delivery
		t.Fatalf("expected no notifications after cancel, got %d", n)
	}
}

func TestDoubleUnsubscribeSafe(t *testing.T) {
	src := identity.NewSource()

	cancel := src.Subscribe(func(identity.Snapshot) {})
	cancel()
	cancel()

	src.Resolve("alice", "customer")
}
