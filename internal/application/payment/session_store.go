package payment

import (
	"sync"
	"time"
)

const defaultSessionSweep = time.Minute

type sessionEntry struct {
	session    *Session
	generation uint64
	lastUsed   time.Time
}

// SessionStore holds live payment sessions in process memory.
// Sessions idle longer than the TTL are evicted unless a submission is outstanding.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	nextGen uint64
	nowFunc func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store evicting idle sessions after ttl, checked every sweep.
// A non-positive ttl disables eviction.
func NewSessionStore(ttl, sweep time.Duration) *SessionStore {
	if sweep <= 0 {
		sweep = defaultSessionSweep
	}
	s := &SessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		nowFunc: time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepLoop(sweep)
	return s
}

// Add stores session and returns its generation
func (s *SessionStore) Add(session *Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGen++
	s.entries[session.ID] = &sessionEntry{
		session:    session,
		generation: s.nextGen,
		lastUsed:   s.nowFunc(),
	}
	return s.nextGen
}

// Update runs fn against the owner's session while holding the store lock.
// It returns the session's generation so a later Complete can detect teardown.
func (s *SessionStore) Update(id, ownerID string, fn func(*Session) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.session.OwnerID != ownerID {
		return 0, ErrSessionNotFound
	}
	now := s.nowFunc()
	entry.lastUsed = now
	if err := fn(entry.session); err != nil {
		return entry.generation, err
	}
	entry.session.UpdatedAt = now
	return entry.generation, nil
}

// Complete runs fn if the session with generation is still live.
// It reports false, without calling fn, when the session has been torn down since.
func (s *SessionStore) Complete(id string, generation uint64, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.generation != generation {
		return false
	}
	now := s.nowFunc()
	fn(entry.session)
	entry.lastUsed = now
	entry.session.UpdatedAt = now
	return true
}

// Remove tears down the owner's session and returns it
func (s *SessionStore) Remove(id, ownerID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.session.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	delete(s.entries, id)
	return entry.session, nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweeper. Sessions are dropped with the process.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *SessionStore) sweepLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.stop:
			return
		}
	}
}

func (s *SessionStore) evictIdle() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFunc().Add(-s.ttl)
	evicted := 0
	for id, entry := range s.entries {
		if entry.session.Submitting() || entry.lastUsed.After(cutoff) {
			continue
		}
		delete(s.entries, id)
		evicted++
	}
	return evicted
}
