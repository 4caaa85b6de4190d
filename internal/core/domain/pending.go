package domain

import "time"

// PendingAuthTTL is how long a pending authorization stays valid.
// Callbacks arriving later fail closed.
const PendingAuthTTL = 10 * time.Minute

// PendingAuth is the one-shot record for an in-flight authorization,
// keyed by the opaque state token. It is consumed and deleted exactly
// once when the matching callback arrives.
type PendingAuth struct {
	// State is the opaque CSRF state token.
	State string `json:"state"`

	// Platform is the target platform of the authorization.
	Platform Platform `json:"platform"`

	// Verifier is the PKCE code verifier. Empty for non-PKCE flows.
	Verifier string `json:"verifier,omitempty"`

	// CreatedAt is when the authorization URL was built.
	CreatedAt time.Time `json:"created_at"`
}

// Expired returns true if the record has outlived its TTL at the given instant.
func (p *PendingAuth) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > PendingAuthTTL
}
