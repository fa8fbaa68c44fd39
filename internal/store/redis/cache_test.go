package redis

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCache_InProcessFreshThenStale(t *testing.T) {
	c, err := New(Config{TTL: time.Minute, StaleTTL: time.Hour})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, _, ok := c.Get(ctx, "btc_30"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "btc_30", []byte(`{"a":1}`))
	data, fresh, ok := c.Get(ctx, "btc_30")
	if !ok || !fresh || string(data) != `{"a":1}` {
		t.Errorf("fresh get: data=%s fresh=%v ok=%v", data, fresh, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, fresh, ok := c.Get(ctx, "btc_30"); !ok || fresh {
		t.Errorf("after TTL: fresh=%v ok=%v, want stale hit", fresh, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, _, ok := c.Get(ctx, "btc_30"); ok {
		t.Errorf("after stale TTL: expected miss")
	}
}

func TestCache_StaleTTLNeverBelowTTL(t *testing.T) {
	c, err := New(Config{TTL: 48 * time.Hour, StaleTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if c.staleTTL < c.ttl {
		t.Errorf("staleTTL %v below ttl %v", c.staleTTL, c.ttl)
	}
}

func TestLocalCache_EvictsLeastRecentlyUsed(t *testing.T) {
	l := newLocalCache(3, time.Hour)
	now := time.Now()
	for i := 0; i < 3; i++ {
		l.put(fmt.Sprintf("k%d", i), []byte{byte(i)}, now)
	}
	l.get("k0") // k1 becomes least recently used
	l.put("k3", []byte{3}, now)

	if l.len() != 3 {
		t.Errorf("len: got %d, want 3", l.len())
	}
	if _, ok := l.get("k1"); ok {
		t.Errorf("k1 should have been evicted")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, ok := l.get(k); !ok {
			t.Errorf("%s missing", k)
		}
	}
}

func TestLocalCache_DropsEntriesPastTTL(t *testing.T) {
	l := newLocalCache(8, 20*time.Millisecond)
	l.put("btc_30", []byte("x"), time.Now())
	if _, ok := l.get("btc_30"); !ok {
		t.Fatal("expected hit before ttl")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := l.get("btc_30"); ok {
		t.Errorf("expected entry to expire")
	}
}
