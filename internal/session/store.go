// Package session implements the Session Store (C2): an in-process
// mapping from session id to mealmodel.Session, protected against
// concurrent mutation by a per-session lock. Grounded on the teacher's
// internal/sessions (MemoryStore, SessionLocker, expiry ticking).
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// Mutator mutates a session in place under the store's per-session lock.
type Mutator func(s *mealmodel.Session) error

// Store is the C2 contract. Implementations must guarantee sessions
// never leak across users and that last_accessed is updated on every
// read and write (spec.md §4.2).
type Store interface {
	GetOrCreate(ctx context.Context, sessionID, userID string) (*mealmodel.Session, error)
	Get(ctx context.Context, sessionID string) (*mealmodel.Session, error)
	Update(ctx context.Context, sessionID string, mutate Mutator) (*mealmodel.Session, error)
	EvictIdle(ctx context.Context, now time.Time) (evicted []string, err error)
	Delete(ctx context.Context, sessionID string) error
}

// perSessionLock is a recursion-safe mutex keyed by session id, mirroring
// the teacher's SessionLocker.
type perSessionLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPerSessionLock() *perSessionLock {
	return &perSessionLock{locks: make(map[string]*sync.Mutex)}
}

func (l *perSessionLock) lockFor(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// MemoryStore is an in-process Store implementation, sufficient for a
// single-instance deployment (spec.md §4.2).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*mealmodel.Session
	locks    *perSessionLock
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a Store with the given idle eviction TTL
// (recommended 60 minutes per spec.md §3).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &MemoryStore{
		sessions: make(map[string]*mealmodel.Session),
		locks:    newPerSessionLock(),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate returns the existing session for sessionID if its owner
// matches userID, creating one if sessionID is empty or unseen.
// Supplying a known id owned by a different user fails with
// SessionOwnership (spec.md §4.2).
func (s *MemoryStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*mealmodel.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := s.locks.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if ok {
		if existing.UserID != userID {
			return nil, mealerr.New(mealerr.KindSessionOwnership, sessionID)
		}
		existing.LastAccessed = s.now()
		return existing.Clone(), nil
	}

	now := s.now()
	created := mealmodel.NewSession(sessionID, userID, now)
	s.sessions[sessionID] = created
	return created.Clone(), nil
}

// Get returns the session for id, or SessionExpired if it has never
// existed or was already evicted.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*mealmodel.Session, error) {
	lock := s.locks.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return nil, mealerr.New(mealerr.KindSessionExpired, sessionID)
	}
	existing.LastAccessed = s.now()
	return existing.Clone(), nil
}

// Update acquires the session lock, runs mutate against the live
// session, persists the result, and releases the lock (spec.md §4.2).
func (s *MemoryStore) Update(ctx context.Context, sessionID string, mutate Mutator) (*mealmodel.Session, error) {
	lock := s.locks.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	existing, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, mealerr.New(mealerr.KindSessionExpired, sessionID)
	}

	if err := mutate(existing); err != nil {
		return nil, err
	}
	existing.LastAccessed = s.now()

	s.mu.Lock()
	s.sessions[sessionID] = existing
	s.mu.Unlock()

	return existing.Clone(), nil
}

// EvictIdle removes sessions whose LastAccessed predates now-ttl,
// returning the evicted ids so callers (e.g. the progress channel) can
// close their subscriptions (spec.md §4.2, §5).
func (s *MemoryStore) EvictIdle(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	cutoff := now.Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccessed.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted, nil
}

// Delete removes a session unconditionally (explicit logout, spec.md §3).
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Count returns the number of live sessions (diagnostics / status).
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
