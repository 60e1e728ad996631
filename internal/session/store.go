package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyellow/course-advisor-go/internal/metrics"
)

// Session bundles the state and memory of one user.
// Both are only touched while the store holds the user's lock.
type Session struct {
	UserID string
	State  *State
	Memory *Memory
}

// Reset clears state and memory back to their initial values.
func (s *Session) Reset() {
	s.State.Reset()
	s.Memory.Clear()
}

// StoreConfig configures a Store.
type StoreConfig struct {
	MemoryWindow    int           // Messages kept per user
	TTL             time.Duration // Idle time before eviction, 0 disables eviction
	CleanupInterval time.Duration
	Metrics         *metrics.Metrics
}

// Store owns every user session. Sessions are created on first contact and
// evicted after TTL of inactivity. Do serializes work per user; different
// users proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	config   StoreConfig
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

type entry struct {
	sem      chan struct{} // capacity 1; held for the duration of Do
	session  *Session
	lastSeen time.Time // guarded by Store.mu
	refs     int       // in-flight Do calls, guarded by Store.mu
}

// ErrEmptyUserID is returned when a session is requested without a user ID.
var ErrEmptyUserID = errors.New("session: empty user id")

// NewStore creates a store and starts its eviction loop when TTL is set.
func NewStore(cfg StoreConfig) *Store {
	if cfg.MemoryWindow <= 0 {
		cfg.MemoryWindow = DefaultMemoryWindow
	}
	s := &Store{
		sessions: make(map[string]*entry),
		config:   cfg,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if cfg.TTL > 0 && cfg.CleanupInterval > 0 {
		go s.cleanupLoop()
	}
	return s
}

// Do runs fn with exclusive access to userID's session, creating the session
// on first contact. It waits for any other Do on the same user and gives up
// when ctx is done.
func (s *Store) Do(ctx context.Context, userID string, fn func(*Session) error) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	e := s.acquire(userID)
	defer s.release(e)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.sem }()

	return fn(e.session)
}

// Reset clears userID's session.
func (s *Store) Reset(ctx context.Context, userID string) error {
	return s.Do(ctx, userID, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

// Len returns the number of sessions held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) acquire(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[userID]
	if !ok {
		e = &entry{
			sem: make(chan struct{}, 1),
			session: &Session{
				UserID: userID,
				State:  NewState(),
				Memory: NewMemory(s.config.MemoryWindow),
			},
		}
		s.sessions[userID] = e
		s.config.Metrics.SetActiveSessions(len(s.sessions))
	}
	e.refs++
	e.lastSeen = s.now()
	return e
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	e.lastSeen = s.now()
}

// evictIdle removes sessions idle for longer than TTL and not in use.
func (s *Store) evictIdle() int {
	cutoff := s.now().Add(-s.config.TTL)

	s.mu.Lock()
	evicted := 0
	for id, e := range s.sessions {
		if e.refs == 0 && e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	s.config.Metrics.RecordSessionEvicted(evicted)
	s.config.Metrics.SetActiveSessions(active)
	return evicted
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// Stop stops the eviction loop. Safe to call multiple times.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
