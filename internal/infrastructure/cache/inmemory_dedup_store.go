package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

type dedupEntry struct {
	expiresAt time.Time
}

// InMemoryDedupStore implements IdempotencyStore with a local map. Suitable
// for single-instance deployments and tests; duplicates arriving at a
// different instance will not be caught.
type InMemoryDedupStore struct {
	mu        sync.RWMutex
	entries   map[string]dedupEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDedupStore creates an in-memory dedup store with a background
// sweep of expired entries
func NewInMemoryDedupStore() *InMemoryDedupStore {
	store := &InMemoryDedupStore{
		entries:  make(map[string]dedupEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed records a delivery id with a TTL. Returns true when the id is
// new, false when it was already seen within its TTL.
func (s *InMemoryDedupStore) MarkProcessed(_ context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[deliveryID]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[deliveryID] = dedupEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed checks whether a delivery id has been seen within its TTL
func (s *InMemoryDedupStore) IsProcessed(_ context.Context, deliveryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[deliveryID]
	if !exists || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *InMemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryDedupStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryDedupStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for deliveryID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, deliveryID)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryDedupStore)(nil)
