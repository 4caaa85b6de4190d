package driving

import (
	"context"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// Engine is the façade consumed by the UI boundary.
// One authorization flow and one sync may run per platform at a time;
// concurrent calls for the same platform are rejected with
// domain.ErrAuthInProgress / domain.ErrSyncInProgress. Different
// platforms proceed independently.
type Engine interface {
	// InitiateOAuth starts the platform's authorization flow end to end.
	// For interactive flows it blocks until the callback is handled and
	// the post-auth sync has been triggered. For external-delegated
	// platforms it opens the landing page and returns immediately.
	InitiateOAuth(ctx context.Context, platform domain.Platform) error

	// HandleCallback completes the authorization-code flow.
	HandleCallback(ctx context.Context, platform domain.Platform, code, state string) error

	// HandleImplicitCallback completes the implicit flow.
	HandleImplicitCallback(ctx context.Context, platform domain.Platform, accessToken, state string) error

	// HandleExternalToken receives a token posted back by the
	// external-delegated landing page.
	HandleExternalToken(ctx context.Context, platform domain.Platform, accessToken, refreshToken string, expiresIn int) error

	// Sync fetches, filters, extracts and persists facts for a platform.
	// Returns the number of newly persisted facts. Per-endpoint failures
	// degrade gracefully; inspect the count to detect partial results.
	Sync(ctx context.Context, platform domain.Platform) (int, error)

	// Status summarises connection and sync state. An empty platform
	// aggregates over all registered platforms.
	Status(ctx context.Context, platform domain.Platform) ([]domain.PlatformStatus, error)

	// Reset deletes the sync cursor for one platform, or for all
	// registered platforms when platform is empty. The next sync treats
	// every fetched item as new.
	Reset(ctx context.Context, platform domain.Platform) error

	// Disconnect removes the stored token for a platform.
	Disconnect(ctx context.Context, platform domain.Platform) error
}
