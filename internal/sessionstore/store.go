// Package sessionstore maintains the process-wide registry of active
// sessions, keyed by session key. It is grounded on the same
// register/deregister/snapshot shape as the teacher's
// internal/agentmanager.Manager, generalized from "connected agent" to
// "per-token session" and with an added periodic sweep for expiry instead
// of explicit deregistration on disconnect.
package sessionstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/session"
)

// Store is the in-memory mapping from session key to *session.Session.
// Safe for concurrent use. The zero value is not usable — create instances
// with New.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	logger   *zap.Logger
}

// New creates an empty Store.
func New(logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
		logger:   logger.Named("sessionstore"),
	}
}

// GetOrCreate returns the existing session for key, or atomically creates
// and registers a new empty one. Concurrent callers with the same key
// observe the same *session.Session instance.
func (st *Store) GetOrCreate(key string) *session.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[key]; ok {
		return s
	}
	s := session.New(key)
	st.sessions[key] = s
	st.logger.Debug("session created", zap.String("session_key", key))
	return s
}

// Get returns the session for key without creating one.
func (st *Store) Get(key string) (*session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[key]
	return s, ok
}

// Remove deletes key from the registry. Idempotent.
func (st *Store) Remove(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

// ActiveKeys returns a snapshot of all currently registered session keys.
func (st *Store) ActiveKeys() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	keys := make([]string, 0, len(st.sessions))
	for k := range st.sessions {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of currently registered sessions — used by
// internal/metrics to publish the active-session gauge.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes every session whose expiry has passed as of now. It takes a
// snapshot of entries before testing them, so it never blocks a concurrent
// GetOrCreate and never holds the registry lock while evaluating expiry —
// only while reading a name off the snapshot and, if eligible, deleting it.
// A request already holding a reference to a swept session completes
// normally against that detached object; Go's garbage collector keeps it
// alive until the request releases it.
func (st *Store) Sweep(ctx context.Context, now time.Time) int {
	keys := st.ActiveKeys()
	removed := 0

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return removed
		default:
		}

		st.mu.RLock()
		s, ok := st.sessions[key]
		st.mu.RUnlock()
		if !ok {
			continue
		}

		if s.IsExpired(now) {
			st.Remove(key)
			removed++
			st.logger.Info("session expired and swept", zap.String("session_key", key))
		}
	}

	if removed > 0 {
		st.logger.Info("sweep complete", zap.Int("removed", removed), zap.Int("active", st.Len()))
	}
	return removed
}
