// Package memory provides in-memory implementations of the driven
// storage ports, used in tests and as the zero-setup default.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[domain.Platform]domain.UserToken
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[domain.Platform]domain.UserToken),
	}
}

// Save stores a token. Creates if new, overwrites if exists.
func (s *TokenStore) Save(_ context.Context, token domain.UserToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Platform] = token
	return nil
}

// Get retrieves the token for a platform.
func (s *TokenStore) Get(_ context.Context, platform domain.Platform) (*domain.UserToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[platform]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

// Delete removes the token for a platform.
func (s *TokenStore) Delete(_ context.Context, platform domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, platform)
	return nil
}
