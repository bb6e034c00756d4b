package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoadDefaultsForUnknownChat(t *testing.T) {
	store := NewMemoryStore()
	s, err := Load(context.Background(), store, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ChatID != 42 || s.InScene() || len(s.MenuStack) != 0 {
		t.Fatalf("unexpected default session: %+v", s)
	}
	if store.Len() != 0 {
		t.Fatalf("load must not create entries, len=%d", store.Len())
	}
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(7)
	s.Scene = "create-address"
	s.MenuStack = []string{"utilities-menu"}
	s.Wizard.Message = &MessageRef{ChatID: 7, MessageID: 10}
	if err := Save(ctx, store, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.MenuStack[0] = "mutated"
	s.Wizard.Message.MessageID = 99

	got, ok, err := store.Read(ctx, Key(7))
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if got.MenuStack[0] != "utilities-menu" {
		t.Fatalf("stack aliased with caller: %v", got.MenuStack)
	}
	if got.Wizard.Message.MessageID != 10 {
		t.Fatalf("message ref aliased with caller: %d", got.Wizard.Message.MessageID)
	}

	got.Scene = ""
	again, _, _ := store.Read(ctx, Key(7))
	if again.Scene != "create-address" {
		t.Fatalf("read result aliased with stored value")
	}
}

func TestSweepKeepsActiveScenes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle := New(1)
	busy := New(2)
	busy.Scene = "create-reading"
	_ = Save(ctx, store, idle)
	_ = Save(ctx, store, busy)

	now = now.Add(2 * time.Hour)
	fresh := New(3)
	_ = Save(ctx, store, fresh)

	if n := store.Sweep(time.Hour); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok, _ := store.Read(ctx, Key(1)); ok {
		t.Fatalf("idle session should be evicted")
	}
	if _, ok, _ := store.Read(ctx, Key(2)); !ok {
		t.Fatalf("session with active scene must survive")
	}
	if _, ok, _ := store.Read(ctx, Key(3)); !ok {
		t.Fatalf("recent session must survive")
	}
}

func TestMenuStackHelpers(t *testing.T) {
	s := New(1)
	if _, ok := s.PopMenu(); ok {
		t.Fatalf("pop on empty stack")
	}
	s.PushMenu("a")
	s.PushMenu("b")
	if top, _ := s.TopMenu(); top != "b" {
		t.Fatalf("top = %s", top)
	}
	if id, _ := s.PopMenu(); id != "b" || len(s.MenuStack) != 1 {
		t.Fatalf("pop = %s stack=%v", id, s.MenuStack)
	}
}

func TestLockerSerializesPerChat(t *testing.T) {
	l := NewLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(5)
			defer unlock()
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if l.Held() != 0 {
		t.Fatalf("lock table not cleaned: %d", l.Held())
	}
}
