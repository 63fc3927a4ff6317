package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

// Registry is the process-wide mapping from session id to Session. It is
// the only shared mutable state between request handlers; create, lookup
// and delete are each atomic with respect to the others.
//
// Every entry point auto-creates unknown sessions through Ensure, so the
// lifecycle policy is uniform across the WebSocket and REST paths.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  func(id string) *Session
	logger   *log.Logger
}

func NewRegistry(factory func(id string) *Session) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   log.New(log.Writer(), "[REGISTRY] ", log.LstdFlags),
	}
}

// Ensure returns the session for id, creating it on first reference. An
// empty id creates a session under a fresh uuid.
func (r *Registry) Ensure(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if sess, ok := r.sessions[id]; ok {
			return sess
		}
	} else {
		id = uuid.NewString()
	}
	sess := r.factory(id)
	r.sessions[id] = sess
	return sess
}

// Get looks up an existing session without creating one.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than ttl and returns how many were
// dropped.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, sess := range r.sessions {
		if sess.IdleSince().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Shutdown drops every session. Sessions are in-memory only, so this is the
// whole teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// RunSweeper evicts idle sessions on the cadence given by cronSpec until
// ctx is cancelled. An invalid spec falls back to an hourly sweep.
func (r *Registry) RunSweeper(ctx context.Context, cronSpec string, ttl time.Duration) {
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		r.logger.Printf("invalid sweep spec %q, falling back to @hourly: %v", cronSpec, err)
		expr = cronexpr.MustParse("@hourly")
	}
	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if n := r.Sweep(ttl); n > 0 {
			r.logger.Printf("evicted %d idle sessions", n)
		}
	}
}
