package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// Engine is the thin façade consumed by the UI boundary. It wires the
// flow manager's post-auth callback to its own Sync and enforces the
// one-flow, one-sync-per-platform discipline. Different platforms are
// independent and may proceed concurrently.
type Engine struct {
	registry  *Registry
	flow      *FlowManager
	fetcher   *Fetcher
	extractor *Extractor
	tokens    *TokenManager
	syncs     *SyncManager

	mu       sync.Mutex
	authBusy map[domain.Platform]bool
	syncBusy map[domain.Platform]bool
}

// NewEngine creates the engine and registers its post-auth sync hook.
func NewEngine(
	registry *Registry,
	flow *FlowManager,
	fetcher *Fetcher,
	extractor *Extractor,
	tokens *TokenManager,
	syncs *SyncManager,
) *Engine {
	e := &Engine{
		registry:  registry,
		flow:      flow,
		fetcher:   fetcher,
		extractor: extractor,
		tokens:    tokens,
		syncs:     syncs,
		authBusy:  make(map[domain.Platform]bool),
		syncBusy:  make(map[domain.Platform]bool),
	}
	flow.SetPostAuthHook(e.postAuthSync)
	return e
}

// InitiateOAuth starts the authorization flow for a platform.
// A second call while one is outstanding fails with ErrAuthInProgress.
func (e *Engine) InitiateOAuth(ctx context.Context, platform domain.Platform) error {
	if err := e.acquire(e.authBusy, platform, domain.ErrAuthInProgress); err != nil {
		return err
	}
	defer e.release(e.authBusy, platform)
	return e.flow.Initiate(ctx, platform)
}

// HandleCallback completes the authorization-code flow.
func (e *Engine) HandleCallback(ctx context.Context, platform domain.Platform, code, state string) error {
	return e.flow.HandleCallback(ctx, platform, code, state)
}

// HandleImplicitCallback completes the implicit flow.
func (e *Engine) HandleImplicitCallback(ctx context.Context, platform domain.Platform, accessToken, state string) error {
	return e.flow.HandleImplicitCallback(ctx, platform, accessToken, state)
}

// HandleExternalToken receives a delegated landing page's token.
func (e *Engine) HandleExternalToken(ctx context.Context, platform domain.Platform, accessToken, refreshToken string, expiresIn int) error {
	return e.flow.HandleExternalToken(ctx, platform, accessToken, refreshToken, expiresIn)
}

// Sync fetches, extracts and persists facts for one platform, returning
// the number of newly persisted facts. A second call while one is
// running fails with ErrSyncInProgress rather than racing the cursor.
func (e *Engine) Sync(ctx context.Context, platform domain.Platform) (int, error) {
	if err := e.acquire(e.syncBusy, platform, domain.ErrSyncInProgress); err != nil {
		return 0, err
	}
	defer e.release(e.syncBusy, platform)
	return e.syncLocked(ctx, platform, "")
}

// syncLocked runs one sync with the guard already held.
func (e *Engine) syncLocked(ctx context.Context, platform domain.Platform, explicitToken string) (int, error) {
	data, err := e.fetcher.FetchUserData(ctx, platform, explicitToken)
	if err != nil {
		return 0, err
	}

	stored, err := e.extractor.StoreTriplets(ctx, platform, data.Facts, data)
	if err != nil {
		return 0, err
	}
	if err := e.syncs.SetFactCount(ctx, platform, stored); err != nil {
		return stored, err
	}

	logger.Info("Sync complete for %s: %d facts persisted", platform, stored)
	return stored, nil
}

// Status summarises connection and sync state.
func (e *Engine) Status(ctx context.Context, platform domain.Platform) ([]domain.PlatformStatus, error) {
	return e.syncs.Status(ctx, platform)
}

// Reset deletes sync cursors so the next sync refetches everything.
func (e *Engine) Reset(ctx context.Context, platform domain.Platform) error {
	if platform != "" {
		if _, err := e.registry.Config(platform); err != nil {
			return err
		}
	}
	return e.syncs.Reset(ctx, platform)
}

// Disconnect removes the stored token for a platform.
func (e *Engine) Disconnect(ctx context.Context, platform domain.Platform) error {
	if _, err := e.registry.Config(platform); err != nil {
		return err
	}
	return e.tokens.Delete(ctx, platform)
}

// postAuthSync is the flow manager's hook: authorization already
// succeeded, so sync failures here are reported but do not undo it.
func (e *Engine) postAuthSync(ctx context.Context, platform domain.Platform) {
	if err := e.acquire(e.syncBusy, platform, domain.ErrSyncInProgress); err != nil {
		logger.Warn("Post-auth sync for %s skipped: %v", platform, err)
		return
	}
	defer e.release(e.syncBusy, platform)

	explicitToken := ""
	// Implicit-flow tokens were stored a moment ago but may not be
	// durably queryable yet; hand the fetcher the token directly.
	if token, err := e.tokens.Get(ctx, platform); err == nil {
		explicitToken = token.AccessToken
	}

	if _, err := e.syncLocked(ctx, platform, explicitToken); err != nil {
		logger.Warn("Post-auth sync for %s failed: %v", platform, err)
	}
}

// acquire marks a platform busy in the given set, or fails with busyErr.
func (e *Engine) acquire(set map[domain.Platform]bool, platform domain.Platform, busyErr error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if set[platform] {
		return busyErr
	}
	set[platform] = true
	return nil
}

// release clears a platform's busy mark.
func (e *Engine) release(set map[domain.Platform]bool, platform domain.Platform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(set, platform)
}
