package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps claims in a map. Claims are not shared across
// processes.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	claims  map[string]time.Time
	janitor *janitor
	nowFunc func() time.Time
}

// NewInMemoryIdempotencyStore starts a store that sweeps expired claims every sweep.
func NewInMemoryIdempotencyStore(sweep time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		claims:  make(map[string]time.Time),
		nowFunc: time.Now,
	}
	s.janitor = startJanitor(sweep, s.cleanup)
	return s
}

// Claim takes key unless an unexpired claim exists.
func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if exp, ok := s.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// IsClaimed reports whether an unexpired claim exists.
func (s *InMemoryIdempotencyStore) IsClaimed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.claims[key]
	return ok && s.nowFunc().Before(exp), nil
}

// Release drops the claim.
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.janitor.stop()
	return nil
}

// Size returns the number of stored claims, expired or not
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for key, exp := range s.claims {
		if !now.Before(exp) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
