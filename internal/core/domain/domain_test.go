package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "spotify|following|artist-1", DedupKey(PlatformSpotify, "following", "artist-1"))
	assert.Equal(t, "github|starred|42", DedupKey(PlatformGitHub, "starred", "42"))
}

func TestUserTokenExpiresWithin(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		margin    time.Duration
		want      bool
	}{
		{"no expiry never expires", time.Time{}, time.Hour, false},
		{"well outside the margin", time.Now().Add(time.Hour), 5 * time.Minute, false},
		{"inside the margin", time.Now().Add(time.Minute), 5 * time.Minute, true},
		{"already expired", time.Now().Add(-time.Minute), 5 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := UserToken{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, token.ExpiresWithin(tt.margin))
		})
	}
}

func TestUserTokenHasRefreshToken(t *testing.T) {
	assert.False(t, (&UserToken{}).HasRefreshToken())
	assert.True(t, (&UserToken{RefreshToken: "rt"}).HasRefreshToken())
}

func TestSyncInfoSeen(t *testing.T) {
	info := SyncInfo{LastItemIDs: []string{"a", "b"}}

	assert.True(t, info.Seen("a"))
	assert.False(t, info.Seen("c"))
	assert.False(t, (&SyncInfo{}).Seen("a"))
}

func TestPendingAuthExpired(t *testing.T) {
	created := time.Now()
	pending := PendingAuth{State: "s", CreatedAt: created}

	assert.False(t, pending.Expired(created.Add(PendingAuthTTL-time.Second)))
	assert.True(t, pending.Expired(created.Add(PendingAuthTTL+time.Second)))
}

func TestPlatformConfigFlowHelpers(t *testing.T) {
	code := PlatformConfig{Flow: FlowAuthorizationCode}
	implicit := PlatformConfig{Flow: FlowImplicit}
	external := PlatformConfig{Flow: FlowExternalDelegated}

	assert.True(t, code.CanRefresh())
	assert.False(t, implicit.CanRefresh(), "implicit flow never yields refresh tokens")
	assert.False(t, external.CanRefresh())

	assert.True(t, external.IsExternal())
	assert.False(t, code.IsExternal())
}
