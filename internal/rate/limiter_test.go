package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/taskboard/internal/rate"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := rate.NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "sub:u1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d debería pasar", i)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("hits = %d, esperaba %d", res.CurrentHits, i)
		}
	}

	res, err := l.Allow(ctx, "sub:u1")
	if err != nil {
		t.Fatalf("allow 4: %v", err)
	}
	if res.Allowed {
		t.Fatal("hit 4 debería rechazarse")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d", res.Remaining)
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("retry_after = %s, esperaba positivo", res.RetryAfter)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := rate.NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "sub:u1"); !res.Allowed {
		t.Fatal("primer hit de u1 debería pasar")
	}
	if res, _ := l.Allow(ctx, "sub:u1"); res.Allowed {
		t.Fatal("segundo hit de u1 debería rechazarse")
	}
	if res, _ := l.Allow(ctx, "sub:u2"); !res.Allowed {
		t.Fatal("u2 no comparte ventana con u1")
	}
}
