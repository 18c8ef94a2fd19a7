// Package session holds the mock session id for one logical unit of work
// (an HTTP request or a background job execution) and carries it through
// context.Context so downstream calls can read it back.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Scope is the per-unit-of-work holder of the bound session id and the
// request-scoped read memo. A Scope must never be shared across concurrent
// units of work; it is created when the unit starts and Reset when it ends,
// on every exit path.
type Scope struct {
	mu   sync.Mutex
	id   string
	memo map[string]string
}

// NewScope returns an unbound Scope.
func NewScope() *Scope {
	return &Scope{}
}

// ID returns the bound session id, or "" when unbound.
func (s *Scope) ID() string {
	if s == nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}

// Bind sets the session id. Safe to call more than once; the last write
// within the unit of work wins.
func (s *Scope) Bind(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id
}

// Reset clears the session id and the memo. It runs on every exit path of
// the unit of work so a reused worker never inherits a stale session.
// Idempotent.
func (s *Scope) Reset() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""
	s.memo = nil
}

// MemoGet returns the memoized raw value for a storage key, if any.
func (s *Scope) MemoGet(key string) (string, bool) {
	if s == nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.memo[key]
	return v, ok
}

// MemoPut memoizes the raw value read for a storage key.
func (s *Scope) MemoPut(key, value string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memo == nil {
		s.memo = map[string]string{}
	}
	s.memo[key] = value
}

// MemoDrop invalidates the memoized value for a storage key.
func (s *Scope) MemoDrop(key string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.memo, key)
}

// WithScope attaches a Scope to the context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// ScopeFrom returns the Scope attached to the context, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	return s, ok
}

// CurrentID returns the session id bound to the context's scope, or ""
// when no scope is attached or the scope is unbound.
func CurrentID(ctx context.Context) string {
	s, ok := ScopeFrom(ctx)
	if !ok {
		return ""
	}

	return s.ID()
}

// With returns a context carrying a fresh scope bound to id. Convenience
// for job execution and test harnesses.
func With(ctx context.Context, id string) context.Context {
	s := NewScope()
	s.Bind(id)

	return WithScope(ctx, s)
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.New().String()
}
