package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cachedDoc struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := cachedDoc{Symbol: "AAPL", Score: 82.5}
	if err := mc.Set(ctx, "doc", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out cachedDoc
	if err := mc.Get(ctx, "doc", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestMemoryCacheMissAndDelete(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var out cachedDoc
	if err := mc.Get(ctx, "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected a cache miss, got %v", err)
	}

	if err := mc.Set(ctx, "doc", cachedDoc{Symbol: "AAPL"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mc.Delete(ctx, "doc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mc.Get(ctx, "doc", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected a miss after delete, got %v", err)
	}
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := mc.Set(ctx, "b", 2, time.Minute); err != nil {
		t.Fatalf("set b: %v", err)
	}

	// Touch "a" so "b" becomes the eviction candidate.
	var n int
	if err := mc.Get(ctx, "a", &n); err != nil {
		t.Fatalf("get a: %v", err)
	}
	if err := mc.Set(ctx, "c", 3, time.Minute); err != nil {
		t.Fatalf("set c: %v", err)
	}

	if err := mc.Get(ctx, "b", &n); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &n); err != nil || n != 1 {
		t.Fatalf("expected a retained, got n=%d err=%v", n, err)
	}
}
