package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// Ensure FactStore implements the interface.
var _ driven.FactStore = (*FactStore)(nil)

// FactStore is an in-memory implementation of driven.FactStore.
type FactStore struct {
	mu      sync.RWMutex
	batches []domain.FactBatch
	keys    map[string]struct{}
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		keys: make(map[string]struct{}),
	}
}

// SaveBatch persists a provenance batch and its facts' dedup keys.
func (s *FactStore) SaveBatch(_ context.Context, batch domain.FactBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
	for _, fact := range batch.Triplets {
		s.keys[fact.Key] = struct{}{}
	}
	return nil
}

// HasKey reports whether a dedup key has already been persisted.
func (s *FactStore) HasKey(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok, nil
}

// ListBatches returns all batches for a platform, newest first.
func (s *FactStore) ListBatches(_ context.Context, platform domain.Platform) ([]domain.FactBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.FactBatch
	for _, batch := range s.batches {
		if batch.Platform == platform {
			out = append(out, batch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProducedAt.After(out[j].ProducedAt) })
	return out, nil
}
