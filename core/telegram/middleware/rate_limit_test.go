package middleware

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	l := &limiter{interval: time.Second, seen: make(map[int64]time.Time)}
	t0 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		user int64
		at   time.Duration
		want bool
	}{
		{1, 0, true},
		{1, 500 * time.Millisecond, false},
		{2, 500 * time.Millisecond, true},
		// a rejected update does not extend the window
		{1, time.Second, true},
		{1, 1500 * time.Millisecond, false},
	}
	for i, s := range steps {
		if got := l.allow(s.user, t0.Add(s.at)); got != s.want {
			t.Fatalf("step %d: allow(%d, +%v) = %v", i, s.user, s.at, got)
		}
	}
}

func TestLimiterPrunesStaleUsers(t *testing.T) {
	l := &limiter{interval: time.Second, seen: make(map[int64]time.Time)}
	t0 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for id := int64(0); id < pruneAt; id++ {
		l.allow(id, t0)
	}
	if !l.allow(-1, t0.Add(2*time.Second)) {
		t.Fatal("new user limited")
	}
	if len(l.seen) != 1 {
		t.Fatalf("table size = %d after prune", len(l.seen))
	}
}
