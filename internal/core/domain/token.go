package domain

import "time"

// UserToken represents stored OAuth credentials for one platform.
// Exactly one non-expired token may exist per platform at a time;
// it is overwritten on refresh and deleted on disconnect.
type UserToken struct {
	// Platform is the owning platform identifier.
	Platform Platform `json:"platform"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens.
	// Empty for implicit-flow platforms.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the absolute expiry instant. Zero means the token is
	// treated as valid indefinitely.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// PlatformUserID is the platform-side user identifier, filled in after
	// the first profile fetch.
	PlatformUserID string `json:"platform_user_id,omitempty"`

	// CreatedAt is when the token was stored.
	CreatedAt time.Time `json:"created_at"`
}

// ExpiresWithin returns true if the token expires within d from now.
// Always false for tokens without an expiry.
func (t *UserToken) ExpiresWithin(d time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !time.Now().Add(d).Before(t.ExpiresAt)
}

// HasRefreshToken returns true if a refresh token is available.
func (t *UserToken) HasRefreshToken() bool {
	return t.RefreshToken != ""
}
