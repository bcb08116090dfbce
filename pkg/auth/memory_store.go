package auth

import (
	"context"
	"sync"
	"time"
)

type revocationEntry struct {
	rec       RefreshRecord
	expiresAt time.Time
}

// MemoryRevocationStore keeps refresh token records in process memory.
// Expired records are dropped lazily on access and by a background
// sweep, so the map tracks only live refresh tokens.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]*revocationEntry

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once
}

// MemoryRevocationStoreOption configures a MemoryRevocationStore.
type MemoryRevocationStoreOption func(*MemoryRevocationStore)

// WithSweepInterval sets how often expired records are evicted.
// Set to 0 to disable the background sweep.
func WithSweepInterval(interval time.Duration) MemoryRevocationStoreOption {
	return func(s *MemoryRevocationStore) {
		s.sweepInterval = interval
	}
}

// NewMemoryRevocationStore creates an in-memory revocation store.
func NewMemoryRevocationStore(opts ...MemoryRevocationStoreOption) *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		entries:       make(map[string]*revocationEntry),
		sweepInterval: 10 * time.Minute,
		stopSweep:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	}

	return s
}

// Save implements RevocationStore.
func (s *MemoryRevocationStore) Save(ctx context.Context, jti string, rec RefreshRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[jti] = &revocationEntry{
		rec:       rec,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get implements RevocationStore.
func (s *MemoryRevocationStore) Get(ctx context.Context, jti string) (RefreshRecord, error) {
	s.mu.RLock()
	entry, exists := s.entries[jti]
	s.mu.RUnlock()

	if !exists {
		return RefreshRecord{}, ErrTokenNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, jti)
		s.mu.Unlock()
		return RefreshRecord{}, ErrTokenNotFound
	}
	return entry.rec, nil
}

// Revoke implements RevocationStore.
func (s *MemoryRevocationStore) Revoke(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[jti]
	if !exists || time.Now().After(entry.expiresAt) {
		return ErrTokenNotFound
	}
	entry.rec.Active = false
	return nil
}

func (s *MemoryRevocationStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryRevocationStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for jti, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, jti)
		}
	}
}

// Close stops the background sweep. Safe to call multiple times.
func (s *MemoryRevocationStore) Close() error {
	s.sweepOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}
