// Package session implements one user's isolated, in-memory resource store:
// per-resource-type versioned history, tombstones, monotonic id counters,
// expiry, and the hydration-once latch. It is grounded on the same
// RWMutex-guarded in-memory registry shape as the teacher's
// internal/agentmanager.Manager, generalized from "connected agent by id"
// to "resource version history by (type, id)".
package session

import (
	"sync"
	"time"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
)

// versions is the ordered per-id history: version number -> resource.
// Versions start at 1 and are strictly monotonic — no gaps, no duplicates.
type versions map[int]fhir.Resource

// Session owns one user's mutable world. The zero value is not usable;
// construct with New.
type Session struct {
	key       string
	createdAt time.Time

	mu       sync.RWMutex
	expiry   *time.Time
	hydrated bool

	resources  map[fhir.ResourceType]map[string]versions
	tombstones map[fhir.ResourceType]map[string]struct{}
	nextIDs    map[fhir.ResourceType]int

	// idLocks serializes writes on the same (type, id) so version history
	// never gets gaps or duplicates under concurrent updates. Writes on
	// distinct ids do not wait on each other's id lock, though each briefly
	// holds mu exclusively while it changes the maps; reads only take mu's
	// read lock.
	idLocks   map[string]*sync.Mutex
	idLocksMu sync.Mutex

	hydrateOnce sync.Once
}

// New creates an empty Session for the given key.
func New(key string) *Session {
	return &Session{
		key:        key,
		createdAt:  time.Now(),
		resources:  make(map[fhir.ResourceType]map[string]versions),
		tombstones: make(map[fhir.ResourceType]map[string]struct{}),
		nextIDs:    make(map[fhir.ResourceType]int),
		idLocks:    make(map[string]*sync.Mutex),
	}
}

// Key returns the session's immutable identity.
func (s *Session) Key() string { return s.key }

// CreatedAt returns when the session was constructed.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// idLock returns the mutex guarding writes to (rtype, id), creating it on
// first use. The lock registry itself is guarded by a small dedicated mutex
// so distinct ids never contend on it for long.
func (s *Session) idLock(rtype fhir.ResourceType, id string) *sync.Mutex {
	key := string(rtype) + "/" + id
	s.idLocksMu.Lock()
	defer s.idLocksMu.Unlock()
	l, ok := s.idLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.idLocks[key] = l
	}
	return l
}

// Store inserts resource as the given version of (rtype, id), clearing any
// tombstone on that id (delete-then-store "undeletes").
func (s *Session) Store(rtype fhir.ResourceType, id string, version int, resource fhir.Resource) {
	lock := s.idLock(rtype, id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.resources[rtype]
	if !ok {
		byID = make(map[string]versions)
		s.resources[rtype] = byID
	}
	v, ok := byID[id]
	if !ok {
		v = make(versions)
		byID[id] = v
	}
	v[version] = resource

	if tomb, ok := s.tombstones[rtype]; ok {
		delete(tomb, id)
	}
}

// Get returns the stored resource for (rtype, id). version == nil returns
// the highest-numbered version. Returns (nil, false) if no such version (or
// no such id) exists — callers combine this with IsDeleted to distinguish
// "not found" from "gone".
func (s *Session) Get(rtype fhir.ResourceType, id string, version *int) (fhir.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, ok := s.resources[rtype]
	if !ok {
		return nil, false
	}
	v, ok := byID[id]
	if !ok {
		return nil, false
	}

	if version == nil {
		latest, ok := latestVersion(v)
		if !ok {
			return nil, false
		}
		return v[latest], true
	}

	r, ok := v[*version]
	return r, ok
}

// LatestVersion returns the highest stored version number for (rtype, id).
func (s *Session) LatestVersion(rtype fhir.ResourceType, id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.resources[rtype]
	if !ok {
		return 0, false
	}
	v, ok := byID[id]
	if !ok {
		return 0, false
	}
	return latestVersion(v)
}

func latestVersion(v versions) (int, bool) {
	max := 0
	for n := range v {
		if n > max {
			max = n
		}
	}
	return max, max > 0
}

// GetAll returns the latest version of every non-tombstoned id of rtype.
func (s *Session) GetAll(rtype fhir.ResourceType) []fhir.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.resources[rtype]
	tomb := s.tombstones[rtype]

	out := make([]fhir.Resource, 0, len(byID))
	for id, v := range byID {
		if tomb != nil {
			if _, deleted := tomb[id]; deleted {
				continue
			}
		}
		if latest, ok := latestVersion(v); ok {
			out = append(out, v[latest])
		}
	}
	return out
}

// Delete tombstones id. It is the caller's responsibility to have already
// confirmed the id exists — Delete on a never-created id is a harmless
// no-op at this layer (the provider surfaces "not found" instead).
func (s *Session) Delete(rtype fhir.ResourceType, id string) {
	lock := s.idLock(rtype, id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	tomb, ok := s.tombstones[rtype]
	if !ok {
		tomb = make(map[string]struct{})
		s.tombstones[rtype] = tomb
	}
	tomb[id] = struct{}{}
}

// IsDeleted reports whether id is currently tombstoned for rtype.
func (s *Session) IsDeleted(rtype fhir.ResourceType, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tomb, ok := s.tombstones[rtype]
	if !ok {
		return false
	}
	_, deleted := tomb[id]
	return deleted
}

// Exists reports whether id has at least one stored version of rtype and is
// not tombstoned.
func (s *Session) Exists(rtype fhir.ResourceType, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, ok := s.resources[rtype]
	if !ok {
		return false
	}
	if _, ok := byID[id]; !ok {
		return false
	}
	if tomb, ok := s.tombstones[rtype]; ok {
		if _, deleted := tomb[id]; deleted {
			return false
		}
	}
	return true
}

// NextID atomically increments and returns the next server-assigned id for
// rtype, starting at 1. Monotonic per type, independent across types.
func (s *Session) NextID(rtype fhir.ResourceType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs[rtype]++
	return s.nextIDs[rtype]
}

// Clear drops all session state and resets the hydration flag. Used by
// tests and by explicit session resets.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = make(map[fhir.ResourceType]map[string]versions)
	s.tombstones = make(map[fhir.ResourceType]map[string]struct{})
	s.nextIDs = make(map[fhir.ResourceType]int)
	s.hydrated = false
	s.hydrateOnce = sync.Once{}
}

// SetExpiry sets the session's expiry, inherited from the bearer
// credential's exp claim. A nil expiry means the session never expires on
// its own (only explicit removal reclaims it).
func (s *Session) SetExpiry(expiry *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry = expiry
}

// IsExpired reports whether expiry is set and now is past it.
func (s *Session) IsExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiry != nil && now.After(*s.expiry)
}

// Hydrated reports whether first-use hydration has already completed.
func (s *Session) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// SetHydrated marks hydration complete (or, in tests, explicitly resets it).
func (s *Session) SetHydrated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = v
}

// HydrateOnce runs fn exactly once for this session, regardless of how many
// goroutines call it concurrently on a freshly created session — this is
// the guard Open Question 2 in the design notes asks for: two concurrent
// first-use requests under the same new session key must not run the
// hydration callback twice.
func (s *Session) HydrateOnce(fn func()) {
	s.hydrateOnce.Do(fn)
}
