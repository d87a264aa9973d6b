package storage_test

import (
	"context"
	"testing"

	"MediCart/internal/storage"
)

func TestMemKVReadWrite(t *testing.T) {
	kv := storage.NewMemKV()
	ctx := context.Background()

	if _, ok, err := kv.Read(ctx, "cart:u1"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := kv.Write(ctx, "cart:u1", "one"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := kv.Write(ctx, "cart:u1", "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := kv.Read(ctx, "cart:u1")
	if err != nil || !ok || v != "two" {
		t.Fatalf("read: v=%q ok=%v err=%v", v, ok, err)
	}
	if kv.Len() != 1 {
		t.Fatalf("expected 1 slot, got %d", kv.Len())
	}
}
