package cache

import (
	"context"
	"errors"
	"testing"
)

func TestNilCache_IsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest []string
	if err := c.GetJSON(ctx, "slots:2026-09-01", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss from nil cache, got %v", err)
	}
	if err := c.SetJSON(ctx, "slots:2026-09-01", []string{"09:00"}); err != nil {
		t.Fatalf("expected nil error from nil cache Set, got %v", err)
	}
	if err := c.Invalidate(ctx, "slots:2026-09-01"); err != nil {
		t.Fatalf("expected nil error from nil cache Invalidate, got %v", err)
	}
}

func TestNew_NilClientYieldsNilCache(t *testing.T) {
	if c := New(nil, "crm", 0); c != nil {
		t.Fatal("expected nil cache for nil client")
	}
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	if client := NewRedisClient("", "", 0); client != nil {
		t.Fatal("expected nil client for empty address")
	}
}
