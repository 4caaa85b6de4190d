package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factsync-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// spotifyServer serves a minimal Spotify-shaped API.
func spotifyServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/me":
			writeJSON(w, map[string]any{
				"id":           "alice-id",
				"display_name": "Alice",
				"external_urls": map[string]any{
					"spotify": "https://open.spotify.com/user/alice-id",
				},
			})
		case "/v1/me/following":
			writeJSON(w, map[string]any{
				"artists": map[string]any{
					"items": []map[string]any{
						{"id": "artist-1", "name": "Boards of Canada"},
					},
				},
			})
		case "/v1/me/top/tracks":
			writeJSON(w, map[string]any{
				"items": []map[string]any{
					{
						"id":      "track-1",
						"name":    "Roygbiv",
						"artists": []map[string]any{{"name": "Boards of Canada"}},
					},
				},
			})
		case "/v1/me/top/artists":
			writeJSON(w, map[string]any{
				"items": []map[string]any{
					{"id": "artist-2", "name": "Aphex Twin"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

type engineFixture struct {
	engine     *Engine
	facts      *memory.FactStore
	tokens     *TokenManager
	authorizer *flowMockAuthorizer
}

func newEngineFixture(t *testing.T, server *httptest.Server, authorizer *flowMockAuthorizer, exchanger *tokenMockExchanger) *engineFixture {
	t.Helper()

	config := &registryMockConfig{values: map[string]any{
		"platforms.spotify.client_id": "spotify-client",
		"platforms.github.client_id":  "github-client",
	}}
	registry := NewRegistry(config)
	tokens := NewTokenManager(memory.NewTokenStore(), registry, exchanger)
	syncs := NewSyncManager(memory.NewSyncStateStore(), registry, tokens)
	facts := memory.NewFactStore()
	extractor := NewExtractor(registry, facts, nil)

	var client *http.Client
	if server != nil {
		target, err := url.Parse(server.URL)
		require.NoError(t, err)
		client = &http.Client{Transport: &rewriteTransport{target: target}}
	}
	fetcher := NewFetcher(registry, tokens, syncs, extractor, client)
	flow := NewFlowManager(registry, tokens, memory.NewPendingAuthStore(), authorizer, exchanger, testRedirectURI)
	engine := NewEngine(registry, flow, fetcher, extractor, tokens, syncs)

	return &engineFixture{
		engine:     engine,
		facts:      facts,
		tokens:     tokens,
		authorizer: authorizer,
	}
}

func TestEngineConnectAndSync(t *testing.T) {
	ctx := context.Background()

	server := spotifyServer(t)
	defer server.Close()

	authorizer := &flowMockAuthorizer{launchFn: echoCallback("spotify-code")}
	exchanger := &tokenMockExchanger{
		exchangeToken: &domain.UserToken{
			AccessToken:  "spotify-access",
			RefreshToken: "spotify-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}
	fx := newEngineFixture(t, server, authorizer, exchanger)

	// Authorization triggers the first sync through the post-auth hook.
	require.NoError(t, fx.engine.InitiateOAuth(ctx, domain.PlatformSpotify))

	batches, err := fx.facts.ListBatches(ctx, domain.PlatformSpotify)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	predicates := make(map[string]string)
	for _, fact := range batches[0].Triplets {
		predicates[fact.Predicate] = fact.Object
		assert.Equal(t, "Alice", fact.Subject)
	}
	assert.Equal(t, "Boards of Canada", predicates["follows"])
	assert.Equal(t, "Roygbiv by Boards of Canada", predicates["listens_to"])
	assert.Equal(t, "Aphex Twin", predicates["listens_to_artist"])

	statuses, err := fx.engine.Status(ctx, domain.PlatformSpotify)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Connected)
	assert.Equal(t, 3, statuses[0].FactCount)

	// A repeated sync finds nothing new.
	count, err := fx.engine.Sync(ctx, domain.PlatformSpotify)
	require.NoError(t, err)
	assert.Zero(t, count)

	statuses, err = fx.engine.Status(ctx, domain.PlatformSpotify)
	require.NoError(t, err)
	assert.Equal(t, 3, statuses[0].FactCount, "count does not grow on a no-op sync")
}

func TestEngineBusyGuards(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t, nil, &flowMockAuthorizer{}, &tokenMockExchanger{})

	t.Run("concurrent sync for the same platform is rejected", func(t *testing.T) {
		require.NoError(t, fx.engine.acquire(fx.engine.syncBusy, domain.PlatformSpotify, domain.ErrSyncInProgress))
		defer fx.engine.release(fx.engine.syncBusy, domain.PlatformSpotify)

		_, err := fx.engine.Sync(ctx, domain.PlatformSpotify)

		assert.ErrorIs(t, err, domain.ErrSyncInProgress)
	})

	t.Run("other platforms stay independent", func(t *testing.T) {
		require.NoError(t, fx.engine.acquire(fx.engine.syncBusy, domain.PlatformSpotify, domain.ErrSyncInProgress))
		defer fx.engine.release(fx.engine.syncBusy, domain.PlatformSpotify)

		_, err := fx.engine.Sync(ctx, domain.PlatformGitHub)

		assert.NotErrorIs(t, err, domain.ErrSyncInProgress)
	})

	t.Run("concurrent auth for the same platform is rejected", func(t *testing.T) {
		require.NoError(t, fx.engine.acquire(fx.engine.authBusy, domain.PlatformSpotify, domain.ErrAuthInProgress))
		defer fx.engine.release(fx.engine.authBusy, domain.PlatformSpotify)

		err := fx.engine.InitiateOAuth(ctx, domain.PlatformSpotify)

		assert.ErrorIs(t, err, domain.ErrAuthInProgress)
	})
}

func TestEngineSyncWithoutCredential(t *testing.T) {
	fx := newEngineFixture(t, nil, &flowMockAuthorizer{}, &tokenMockExchanger{})

	_, err := fx.engine.Sync(context.Background(), domain.PlatformSpotify)

	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestEngineDisconnect(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t, nil, &flowMockAuthorizer{}, &tokenMockExchanger{})

	require.NoError(t, fx.tokens.Store(ctx, domain.UserToken{
		Platform:    domain.PlatformSpotify,
		AccessToken: "spotify-access",
	}))

	require.NoError(t, fx.engine.Disconnect(ctx, domain.PlatformSpotify))

	statuses, err := fx.engine.Status(ctx, domain.PlatformSpotify)
	require.NoError(t, err)
	assert.False(t, statuses[0].Connected)

	_, err = fx.engine.Sync(ctx, domain.PlatformSpotify)
	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t, nil, &flowMockAuthorizer{}, &tokenMockExchanger{})

	t.Run("unknown platform fails", func(t *testing.T) {
		assert.ErrorIs(t, fx.engine.Reset(ctx, domain.Platform("myspace")), domain.ErrPlatformNotSupported)
	})

	t.Run("empty platform resets all", func(t *testing.T) {
		assert.NoError(t, fx.engine.Reset(ctx, ""))
	})
}
