// Package session provides the per-session single-flight lock registry.
// The registry is the only serialization point in the system: one
// in-flight mutating operation per session, a second attempt is rejected
// rather than queued.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Locks is a keyed try-lock registry shared by all request handlers.
type Locks struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

// NewLocks creates an empty lock registry
func NewLocks() *Locks {
	return &Locks{held: make(map[uuid.UUID]struct{})}
}

// TryAcquire attempts to take the lock for a session. It never blocks:
// false means another operation is in flight and the caller must surface
// a conflict.
func (l *Locks) TryAcquire(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[id]; busy {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

// Release frees the lock for a session. Releasing an unheld lock is a
// no-op.
func (l *Locks) Release(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}

// Busy reports whether a session currently holds its lock
func (l *Locks) Busy(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[id]
	return busy
}

// Forget drops any entry for a deleted session so the registry does not
// grow without bound.
func (l *Locks) Forget(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}
