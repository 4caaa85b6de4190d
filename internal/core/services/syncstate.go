package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// ConnectionChecker reports whether a platform has a stored credential.
// Implemented by TokenManager; kept narrow so SyncManager stays
// independent of the credential lifecycle.
type ConnectionChecker interface {
	IsConnected(ctx context.Context, platform domain.Platform) bool
}

// SyncManager tracks per-platform sync cursors and status.
type SyncManager struct {
	store       driven.SyncStateStore
	registry    *Registry
	connections ConnectionChecker
}

// NewSyncManager creates a sync manager.
func NewSyncManager(store driven.SyncStateStore, registry *Registry, connections ConnectionChecker) *SyncManager {
	return &SyncManager{
		store:       store,
		registry:    registry,
		connections: connections,
	}
}

// LastSync returns the sync info for a platform, or nil if it never synced.
func (m *SyncManager) LastSync(ctx context.Context, platform domain.Platform) (*domain.SyncInfo, error) {
	info, err := m.store.Get(ctx, platform)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// RecordSync overwrites the platform's cursor with the current instant and
// the ids seen during this sync. The fact count is carried over; callers
// fill it in afterwards via SetFactCount.
func (m *SyncManager) RecordSync(ctx context.Context, platform domain.Platform, seenItemIDs []string) error {
	previous, err := m.LastSync(ctx, platform)
	if err != nil {
		return err
	}
	info := domain.SyncInfo{
		Platform:    platform,
		LastSyncAt:  time.Now(),
		LastItemIDs: seenItemIDs,
	}
	if previous != nil {
		info.FactCount = previous.FactCount
	}
	return m.store.Save(ctx, info)
}

// SetFactCount adds newly produced facts to the platform's running count.
func (m *SyncManager) SetFactCount(ctx context.Context, platform domain.Platform, produced int) error {
	info, err := m.LastSync(ctx, platform)
	if err != nil {
		return err
	}
	if info == nil {
		info = &domain.SyncInfo{Platform: platform, LastSyncAt: time.Now()}
	}
	info.FactCount += produced
	return m.store.Save(ctx, *info)
}

// Status summarises connection and sync state for one platform, or for
// every registered platform when platform is empty.
func (m *SyncManager) Status(ctx context.Context, platform domain.Platform) ([]domain.PlatformStatus, error) {
	platforms := []domain.Platform{platform}
	if platform == "" {
		platforms = m.registry.Platforms()
	}

	statuses := make([]domain.PlatformStatus, 0, len(platforms))
	for _, p := range platforms {
		if _, err := m.registry.Config(p); err != nil {
			return nil, err
		}
		status := domain.PlatformStatus{
			Platform:  p,
			Connected: m.connections.IsConnected(ctx, p),
		}
		info, err := m.LastSync(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("last sync for %s: %w", p, err)
		}
		if info != nil {
			status.LastSyncAt = info.LastSyncAt
			status.FactCount = info.FactCount
			status.ItemsTracked = len(info.LastItemIDs)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Reset deletes the cursor for one platform, or for all registered
// platforms when platform is empty. The next sync refetches everything.
func (m *SyncManager) Reset(ctx context.Context, platform domain.Platform) error {
	platforms := []domain.Platform{platform}
	if platform == "" {
		platforms = m.registry.Platforms()
	}
	for _, p := range platforms {
		if err := m.store.Delete(ctx, p); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("reset %s: %w", p, err)
		}
	}
	return nil
}
