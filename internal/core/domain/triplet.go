package domain

import (
	"fmt"
	"time"
)

// Triplet is one subject-predicate-object fact derived from a raw item.
// Immutable once produced.
type Triplet struct {
	// Subject is the authenticated user's label.
	Subject string `json:"subject"`

	// Predicate is the relation label from the extraction rule.
	Predicate string `json:"predicate"`

	// Object is the mapped item label.
	Object string `json:"object"`

	// Evidence is an optional URL substantiating the fact.
	Evidence string `json:"evidence,omitempty"`

	// Key is the dedup key preventing re-emission across syncs.
	Key string `json:"key"`
}

// DedupKey derives the dedup key for a fact from the platform, the matched
// rule pattern, and the source item's identity (its id, or the object label
// when the item carries no id).
func DedupKey(platform Platform, rulePattern, itemIdentity string) string {
	return fmt.Sprintf("%s|%s|%s", platform, rulePattern, itemIdentity)
}

// FactBatch is the provenance record persisted for one extraction batch.
type FactBatch struct {
	// ID is the unique batch identifier (UUID).
	ID string `json:"id"`

	// Platform identifies where the facts came from.
	Platform Platform `json:"platform"`

	// Triplets are the facts in this batch.
	Triplets []Triplet `json:"triplets"`

	// ProducedAt is when extraction completed.
	ProducedAt time.Time `json:"produced_at"`

	// EvidenceURL is the representative provenance link for the batch.
	EvidenceURL string `json:"evidence_url,omitempty"`
}

// UserData aggregates one sync's results for a platform.
type UserData struct {
	// Platform identifies the synced platform.
	Platform Platform

	// Profile is the decoded identity-endpoint response.
	Profile map[string]any

	// Endpoints holds the filtered items per data endpoint.
	Endpoints map[string][]map[string]any

	// Facts are the triplets extracted across all endpoints.
	Facts []Triplet
}
