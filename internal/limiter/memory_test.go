package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemory_BlocksAfterMaxFailsAndResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Policy{Window: time.Minute, MaxFails: 3, BlockFor: 5 * time.Minute})
	m.now = func() time.Time { return now }
	ctx := context.Background()
	ip := HashIP("10.0.0.1")

	for i := 1; i < 3; i++ {
		blocked, _, _ := m.Failure(ctx, "a@b.c", ip)
		if blocked {
			t.Fatalf("blocked too early at failure %d", i)
		}
	}
	blocked, dur, _ := m.Failure(ctx, "a@b.c", ip)
	if !blocked || dur != 5*time.Minute {
		t.Fatalf("want block for 5m, got %v %v", blocked, dur)
	}
	if ok, wait, _ := m.Allow(ctx, "a@b.c", ip); ok || wait != 5*time.Minute {
		t.Fatalf("Allow while blocked: ok=%v wait=%v", ok, wait)
	}
	if ok, _, _ := m.Allow(ctx, "other@b.c", ip); !ok {
		t.Fatalf("other email must not be blocked")
	}

	now = now.Add(6 * time.Minute)
	if ok, _, _ := m.Allow(ctx, "a@b.c", ip); !ok {
		t.Fatalf("block should have expired")
	}

	_ = m.Success(ctx, "a@b.c", ip)
	if blocked, _, _ := m.Failure(ctx, "a@b.c", ip); blocked {
		t.Fatalf("counter not reset by Success")
	}
}

func TestMemory_WindowForgetsOldFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = m.Failure(ctx, "a@b.c", nil)
	now = now.Add(2 * time.Minute)
	if blocked, _, _ := m.Failure(ctx, "a@b.c", nil); blocked {
		t.Fatalf("failure outside window must restart the count")
	}
}

func TestMemory_SweepsStaleEntriesAtLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Policy{Window: time.Minute, MaxFails: 2, BlockFor: 5 * time.Minute})
	m.now = func() time.Time { return now }
	m.limit = 3
	ctx := context.Background()
	ip := HashIP("10.0.0.1")

	_, _, _ = m.Failure(ctx, "a@b.c", ip)
	_, _, _ = m.Failure(ctx, "b@b.c", ip)
	if blocked, _, _ := m.Failure(ctx, "held@b.c", ip); blocked {
		t.Fatalf("single failure must not block")
	}
	_, _, _ = m.Failure(ctx, "held@b.c", ip)

	now = now.Add(2 * time.Minute)
	_, _, _ = m.Failure(ctx, "c@b.c", ip)
	if len(m.entries) != 2 {
		t.Fatalf("want stale entries swept, have %d", len(m.entries))
	}
	if ok, _, _ := m.Allow(ctx, "held@b.c", ip); ok {
		t.Fatalf("blocked entry must survive the sweep")
	}

	for i := 0; i < 10; i++ {
		_, _, _ = m.Failure(ctx, string(rune('d'+i))+"@b.c", ip)
		if len(m.entries) > 3 {
			t.Fatalf("map grew past the limit: %d", len(m.entries))
		}
	}
}
