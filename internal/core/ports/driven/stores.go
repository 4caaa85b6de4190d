package driven

import (
	"context"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// TokenStore persists per-platform OAuth tokens.
// Every write is a single upsert keyed by platform.
type TokenStore interface {
	// Save stores a token. Creates if new, overwrites if exists.
	Save(ctx context.Context, token domain.UserToken) error

	// Get retrieves the token for a platform.
	// Returns domain.ErrNotFound if none is stored.
	Get(ctx context.Context, platform domain.Platform) (*domain.UserToken, error)

	// Delete removes the token for a platform.
	Delete(ctx context.Context, platform domain.Platform) error
}

// SyncStateStore persists per-platform sync cursors.
type SyncStateStore interface {
	// Save stores or overwrites the sync info for a platform.
	Save(ctx context.Context, info domain.SyncInfo) error

	// Get retrieves the sync info for a platform.
	// Returns domain.ErrNotFound if the platform has never synced.
	Get(ctx context.Context, platform domain.Platform) (*domain.SyncInfo, error)

	// Delete removes the sync info for a platform.
	Delete(ctx context.Context, platform domain.Platform) error
}

// PendingAuthStore persists one-shot pending authorizations keyed by state.
type PendingAuthStore interface {
	// Save stores a pending authorization.
	Save(ctx context.Context, pending domain.PendingAuth) error

	// Consume atomically retrieves and deletes the pending authorization
	// for a state token. Returns domain.ErrNotFound if the state is
	// unknown, already consumed, or past its TTL. A second Consume for
	// the same state must fail.
	Consume(ctx context.Context, state string) (*domain.PendingAuth, error)

	// Delete removes a pending authorization without consuming it,
	// used when an in-flight flow is abandoned.
	Delete(ctx context.Context, state string) error
}

// FactStore persists extracted fact batches and their dedup keys.
type FactStore interface {
	// SaveBatch persists a provenance batch together with the dedup keys
	// of its facts.
	SaveBatch(ctx context.Context, batch domain.FactBatch) error

	// HasKey reports whether a dedup key has already been persisted.
	HasKey(ctx context.Context, key string) (bool, error)

	// ListBatches returns all batches for a platform, newest first.
	ListBatches(ctx context.Context, platform domain.Platform) ([]domain.FactBatch, error)
}
