package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// Ensure PendingAuthStore implements the interface.
var _ driven.PendingAuthStore = (*PendingAuthStore)(nil)

// PendingAuthStore is an in-memory implementation of driven.PendingAuthStore.
// Records past their TTL behave as not found and are swept on access.
type PendingAuthStore struct {
	mu      sync.Mutex
	pending map[string]domain.PendingAuth
	now     func() time.Time
}

// NewPendingAuthStore creates a new in-memory pending auth store.
func NewPendingAuthStore() *PendingAuthStore {
	return &PendingAuthStore{
		pending: make(map[string]domain.PendingAuth),
		now:     time.Now,
	}
}

// Save stores a pending authorization.
func (s *PendingAuthStore) Save(_ context.Context, pending domain.PendingAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[pending.State] = pending
	return nil
}

// Consume atomically retrieves and deletes the pending authorization for
// a state token. A second Consume for the same state fails.
func (s *PendingAuthStore) Consume(_ context.Context, state string) (*domain.PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[state]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.pending, state)
	if pending.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	return &pending, nil
}

// Delete removes a pending authorization without consuming it.
func (s *PendingAuthStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, state)
	return nil
}

// SetClock overrides the store's clock. Useful for TTL testing.
func (s *PendingAuthStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
