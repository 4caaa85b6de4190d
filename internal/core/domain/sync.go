package domain

import "time"

// SyncInfo tracks the incremental-sync cursor for one platform.
// Created on first sync, overwritten on each subsequent sync.
type SyncInfo struct {
	// Platform identifies the platform this cursor belongs to.
	Platform Platform `json:"platform"`

	// LastSyncAt is when the last successful sync completed.
	LastSyncAt time.Time `json:"last_sync_at"`

	// LastItemIDs are the item identifiers seen during the last sync,
	// used for id-based incremental filtering.
	LastItemIDs []string `json:"last_item_ids,omitempty"`

	// FactCount is the running count of facts produced for this platform.
	FactCount int `json:"fact_count"`
}

// Seen returns true if the given item id was seen during the last sync.
func (s *SyncInfo) Seen(id string) bool {
	for _, seen := range s.LastItemIDs {
		if seen == id {
			return true
		}
	}
	return false
}

// PlatformStatus summarises one platform's connection and sync state.
type PlatformStatus struct {
	// Platform identifies the platform.
	Platform Platform

	// Connected indicates a token record exists (not necessarily unexpired).
	Connected bool

	// LastSyncAt is when the last sync completed. Zero if never synced.
	LastSyncAt time.Time

	// FactCount is the running count of facts produced.
	FactCount int

	// ItemsTracked is the number of item ids held by the cursor.
	ItemsTracked int
}
