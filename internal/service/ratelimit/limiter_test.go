package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesBucket(t *testing.T) {
	l := New()
	if !l.Allow("k", 2, 0) {
		t.Fatalf("expected first token")
	}
	if !l.Allow("k", 2, 0) {
		t.Fatalf("expected second token")
	}
	if l.Allow("k", 2, 0) {
		t.Fatalf("expected an empty bucket")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("expected token for a")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("expected independent token for b")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 0) {
		t.Fatalf("expected first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0); err == nil {
		t.Fatalf("expected context error on a drained bucket")
	}
}

func TestWaitReturnsAfterRefill(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 50) {
		t.Fatalf("expected first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 50); err != nil {
		t.Fatalf("expected refill before timeout, got %v", err)
	}
}
