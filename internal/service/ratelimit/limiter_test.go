package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("api", 3, 0) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("api", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("first token for key a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("key a should be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("key b has its own bucket")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	l := New()
	if !l.Allow("api", 1, 100) {
		t.Fatal("initial token")
	}
	if l.Allow("api", 1, 100) {
		t.Fatal("bucket drained")
	}
	time.Sleep(30 * time.Millisecond) // 100/s refills within a few ms
	if !l.Allow("api", 1, 100) {
		t.Fatal("token should have refilled")
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	l := New()
	if !l.Allow("api", 1, 50) {
		t.Fatal("initial token")
	}

	start := time.Now()
	if err := l.Wait(context.Background(), "api", 1, 50); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("wait took too long")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	if !l.Allow("api", 1, 0) { // never refills
		t.Fatal("initial token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "api", 1, 0); err == nil {
		t.Fatal("expected context deadline error")
	}
}
