package chat

import (
	"testing"
	"time"
)

func newTestRegistry() *Registry {
	llm := &fakeLLM{chunks: []string{"reply"}}
	return NewRegistry(func(id string) *Session {
		return NewSession(id, llm, NewRouter(nil, 5, 3, time.Second), fakeExtractor{})
	})
}

func TestEnsureCreatesAndReuses(t *testing.T) {
	r := newTestRegistry()

	a := r.Ensure("abc")
	if a.ID() != "abc" {
		t.Fatalf("expected id abc, got %s", a.ID())
	}
	if b := r.Ensure("abc"); b != a {
		t.Fatal("Ensure must return the same session for a known id")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", r.Len())
	}
}

func TestEnsureEmptyIDGeneratesUUID(t *testing.T) {
	r := newTestRegistry()

	a := r.Ensure("")
	b := r.Ensure("")
	if a.ID() == "" || b.ID() == "" {
		t.Fatal("generated ids must not be empty")
	}
	if a.ID() == b.ID() {
		t.Fatal("each empty-id Ensure must create a distinct session")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", r.Len())
	}
}

func TestGetDoesNotCreate(t *testing.T) {
	r := newTestRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get must not create sessions")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestDelete(t *testing.T) {
	r := newTestRegistry()
	r.Ensure("abc")

	if !r.Delete("abc") {
		t.Fatal("Delete of an existing session should report true")
	}
	if r.Delete("abc") {
		t.Fatal("Delete of an unknown session should report false")
	}
	if _, ok := r.Get("abc"); ok {
		t.Fatal("deleted session should be gone")
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	r := newTestRegistry()
	idle := r.Ensure("idle")
	r.Ensure("fresh")

	// age the idle session
	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-2 * time.Hour)
	idle.mu.Unlock()

	if n := r.Sweep(time.Hour); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := r.Get("idle"); ok {
		t.Fatal("idle session should be evicted")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Fatal("fresh session should survive the sweep")
	}
}

func TestShutdownDropsEverything(t *testing.T) {
	r := newTestRegistry()
	r.Ensure("a")
	r.Ensure("b")
	r.Shutdown()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry after shutdown, got %d", r.Len())
	}
}
