package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// expiryMargin is subtracted from the token expiry before comparison,
// guarding against clock skew on the platform side.
const expiryMargin = 5 * time.Minute

// TokenManager persists, validates, and refreshes per-platform credentials.
type TokenManager struct {
	store     driven.TokenStore
	registry  *Registry
	exchanger driven.TokenExchanger
}

// NewTokenManager creates a token manager.
func NewTokenManager(store driven.TokenStore, registry *Registry, exchanger driven.TokenExchanger) *TokenManager {
	return &TokenManager{
		store:     store,
		registry:  registry,
		exchanger: exchanger,
	}
}

// Store upserts the token for its platform.
func (m *TokenManager) Store(ctx context.Context, token domain.UserToken) error {
	if token.Platform == "" || token.AccessToken == "" {
		return domain.ErrInvalidInput
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	return m.store.Save(ctx, token)
}

// Get retrieves the stored token for a platform.
// Returns domain.ErrNotFound if none is stored.
func (m *TokenManager) Get(ctx context.Context, platform domain.Platform) (*domain.UserToken, error) {
	return m.store.Get(ctx, platform)
}

// Delete removes the stored token for a platform.
func (m *TokenManager) Delete(ctx context.Context, platform domain.Platform) error {
	return m.store.Delete(ctx, platform)
}

// IsConnected returns true iff a token record exists.
// It does not imply the token is still valid.
func (m *TokenManager) IsConnected(ctx context.Context, platform domain.Platform) bool {
	_, err := m.store.Get(ctx, platform)
	return err == nil
}

// ValidAccessToken returns an access token guaranteed to be outside the
// expiry margin, refreshing it first when possible.
//
// Fails with domain.ErrNoCredential when nothing is stored, and with
// domain.ErrRefreshFailed when the token is expired and cannot be
// refreshed. Implicit-flow platforms have no refresh token, so expiry
// there always means the caller must re-run the interactive flow.
func (m *TokenManager) ValidAccessToken(ctx context.Context, platform domain.Platform) (string, error) {
	token, err := m.store.Get(ctx, platform)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrNoCredential, platform)
		}
		return "", err
	}

	if !token.ExpiresWithin(expiryMargin) {
		return token.AccessToken, nil
	}

	cfg, err := m.registry.Config(platform)
	if err != nil {
		return "", err
	}
	if !cfg.CanRefresh() || !token.HasRefreshToken() {
		return "", fmt.Errorf("%w: %s token expired and no refresh is possible", domain.ErrRefreshFailed, platform)
	}

	logger.Debug("Refreshing expired token for %s", platform)
	refreshed, err := m.exchanger.Refresh(ctx, *cfg, token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRefreshFailed, err)
	}

	refreshed.Platform = platform
	refreshed.PlatformUserID = token.PlatformUserID
	// Providers that rotate refresh tokens return a new one; keep the
	// old token otherwise.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	if err := m.store.Save(ctx, *refreshed); err != nil {
		return "", fmt.Errorf("save refreshed token: %w", err)
	}
	return refreshed.AccessToken, nil
}
