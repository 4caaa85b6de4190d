package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
type SyncStateStore struct {
	mu     sync.RWMutex
	states map[domain.Platform]domain.SyncInfo
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		states: make(map[domain.Platform]domain.SyncInfo),
	}
}

// Save stores or overwrites the sync info for a platform.
func (s *SyncStateStore) Save(_ context.Context, info domain.SyncInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[info.Platform] = info
	return nil
}

// Get retrieves the sync info for a platform.
func (s *SyncStateStore) Get(_ context.Context, platform domain.Platform) (*domain.SyncInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.states[platform]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &info, nil
}

// Delete removes the sync info for a platform.
func (s *SyncStateStore) Delete(_ context.Context, platform domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, platform)
	return nil
}
