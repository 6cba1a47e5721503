package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
)

// How often expired marks are swept. Redeliveries cluster within seconds
// of the original event, so the sweep does not need to be aggressive.
const sweepInterval = 5 * time.Minute

type mark struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore suppresses duplicate event deliveries using a
// plain map. State is lost on restart, so a trade or ledger event replayed
// across a deploy will be handled again; handlers must tolerate that. Use
// the Redis store when more than one instance consumes the bus.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	marks     map[string]mark
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its sweep
// goroutine. Close must be called to stop it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		marks: make(map[string]mark),
		done:  make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop()

	return store
}

// MarkProcessed records an event ID for the given TTL. It returns true when
// the ID is new and false when a live mark already exists, in which case the
// caller should skip the event.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.marks[eventID]; exists && time.Now().Before(m.expiresAt) {
		return false, nil
	}

	s.marks[eventID] = mark{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed reports whether a live mark exists for the event ID. An
// expired mark counts as unseen.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.marks[eventID]
	if !exists {
		return false, nil
	}
	return time.Now().Before(m.expiresAt), nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, m := range s.marks {
		if now.After(m.expiresAt) {
			delete(s.marks, eventID)
		}
	}
}

// Size returns the number of marks currently held, including expired ones
// the sweep has not collected yet.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
