package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLayeredSetWritesThrough(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing)
	defer lc.Close()

	ctx := context.Background()
	if err := lc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got string
	if err := backing.Get(ctx, "k", &got); err != nil {
		t.Fatalf("backing get: %v", err)
	}
	if got != "v" {
		t.Fatalf("unexpected backing value %q", got)
	}
}

func TestLayeredGetPromotesToMemory(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing)
	defer lc.Close()

	ctx := context.Background()
	if err := backing.Set(ctx, "bars", []float64{101.5, 102.25, 99.75}, time.Minute); err != nil {
		t.Fatalf("seed backing: %v", err)
	}

	var got []float64
	if err := lc.Get(ctx, "bars", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unexpected value %v", got)
	}

	// A second read is served from memory even after the backing store
	// loses the key.
	if err := backing.Delete(ctx, "bars"); err != nil {
		t.Fatalf("delete backing: %v", err)
	}
	got = nil
	if err := lc.Get(ctx, "bars", &got); err != nil {
		t.Fatalf("get after backing delete: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unexpected promoted value %v", got)
	}
}

func TestLayeredDeleteClearsBothLayers(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing)
	defer lc.Close()

	ctx := context.Background()
	if err := lc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := lc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var got string
	if err := lc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}
