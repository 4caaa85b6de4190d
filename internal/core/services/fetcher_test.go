package services

import (
	"context"
	"encoding/json"
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

// rewriteTransport redirects every request to the test server while
// preserving path and query, so the catalogue's real base URLs can stay.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type fetcherFixture struct {
	fetcher   *Fetcher
	tokens    *TokenManager
	syncs     *SyncManager
	syncStore *memory.SyncStateStore
	facts     *memory.FactStore
}

func newFetcherFixture(t *testing.T, server *httptest.Server) *fetcherFixture {
	t.Helper()

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	registry := NewRegistry(nil)
	tokens := NewTokenManager(memory.NewTokenStore(), registry, &tokenMockExchanger{})
	syncStore := memory.NewSyncStateStore()
	syncs := NewSyncManager(syncStore, registry, tokens)
	facts := memory.NewFactStore()
	extractor := NewExtractor(registry, facts, nil)
	client := &http.Client{Transport: &rewriteTransport{target: target}}

	return &fetcherFixture{
		fetcher:   NewFetcher(registry, tokens, syncs, extractor, client),
		tokens:    tokens,
		syncs:     syncs,
		syncStore: syncStore,
		facts:     facts,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// githubServer serves a minimal GitHub-shaped API. Starred repos come
// from the ids slice; the other data endpoints are empty.
func githubServer(t *testing.T, ids []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
			writeJSON(w, map[string]any{"login": "octocat", "name": "Octo Cat"})
		case "/user/starred":
			repos := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				repos = append(repos, map[string]any{
					"id":        id,
					"full_name": "octocat/" + id,
					"html_url":  "https://github.com/octocat/" + id,
				})
			}
			writeJSON(w, repos)
		case "/user/repos", "/user/following":
			writeJSON(w, []map[string]any{})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchUserData(t *testing.T) {
	ctx := context.Background()

	t.Run("first sync extracts everything and records the cursor", func(t *testing.T) {
		server := githubServer(t, []string{"alpha", "beta"})
		defer server.Close()
		fx := newFetcherFixture(t, server)

		require.NoError(t, fx.tokens.Store(ctx, domain.UserToken{
			Platform:    domain.PlatformGitHub,
			AccessToken: "gh-token",
		}))

		data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "")

		require.NoError(t, err)
		require.Len(t, data.Facts, 2)
		assert.Equal(t, "Octo Cat", data.Facts[0].Subject, "subject resolves from the profile name")
		assert.Equal(t, "starred", data.Facts[0].Predicate)
		assert.Equal(t, "octocat/alpha", data.Facts[0].Object)

		info, err := fx.syncs.LastSync(ctx, domain.PlatformGitHub)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, []string{"alpha", "beta"}, info.LastItemIDs)
	})

	t.Run("id filter only passes unseen items but the cursor keeps all", func(t *testing.T) {
		server := githubServer(t, []string{"alpha", "beta", "gamma"})
		defer server.Close()
		fx := newFetcherFixture(t, server)

		require.NoError(t, fx.tokens.Store(ctx, domain.UserToken{
			Platform:    domain.PlatformGitHub,
			AccessToken: "gh-token",
		}))
		require.NoError(t, fx.syncStore.Save(ctx, domain.SyncInfo{
			Platform:    domain.PlatformGitHub,
			LastSyncAt:  time.Now().Add(-time.Hour),
			LastItemIDs: []string{"alpha", "beta"},
		}))

		data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "")

		require.NoError(t, err)
		require.Len(t, data.Facts, 1)
		assert.Equal(t, "octocat/gamma", data.Facts[0].Object)

		info, err := fx.syncs.LastSync(ctx, domain.PlatformGitHub)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, info.LastItemIDs,
			"already-seen items must stay in the cursor or they would reappear next sync")
	})

	t.Run("after a reset everything counts as new", func(t *testing.T) {
		server := githubServer(t, []string{"alpha", "beta"})
		defer server.Close()
		fx := newFetcherFixture(t, server)

		require.NoError(t, fx.tokens.Store(ctx, domain.UserToken{
			Platform:    domain.PlatformGitHub,
			AccessToken: "gh-token",
		}))
		require.NoError(t, fx.syncStore.Save(ctx, domain.SyncInfo{
			Platform:    domain.PlatformGitHub,
			LastSyncAt:  time.Now().Add(-time.Hour),
			LastItemIDs: []string{"alpha", "beta"},
		}))

		require.NoError(t, fx.syncs.Reset(ctx, domain.PlatformGitHub))

		data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "")

		require.NoError(t, err)
		assert.Len(t, data.Facts, 2)
	})

	t.Run("missing credential fails", func(t *testing.T) {
		server := githubServer(t, nil)
		defer server.Close()
		fx := newFetcherFixture(t, server)

		_, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "")

		assert.ErrorIs(t, err, domain.ErrNoCredential)
	})

	t.Run("explicit token bypasses the token manager", func(t *testing.T) {
		server := githubServer(t, []string{"alpha"})
		defer server.Close()
		fx := newFetcherFixture(t, server)

		data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "gh-token")

		require.NoError(t, err)
		assert.Len(t, data.Facts, 1)
	})

	t.Run("profile failure is fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		}))
		defer server.Close()
		fx := newFetcherFixture(t, server)

		_, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "gh-token")

		assert.ErrorIs(t, err, domain.ErrProfileFetchFailed)
	})

	t.Run("endpoint failure skips that endpoint only", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/user":
				writeJSON(w, map[string]any{"login": "octocat"})
			case "/user/starred":
				http.Error(w, "rate limited", http.StatusForbidden)
			case "/user/repos":
				writeJSON(w, []map[string]any{{
					"id":        "r1",
					"full_name": "octocat/kept",
					"html_url":  "https://github.com/octocat/kept",
				}})
			case "/user/following":
				writeJSON(w, []map[string]any{})
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()
		fx := newFetcherFixture(t, server)

		data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformGitHub, "gh-token")

		require.NoError(t, err, "one failed endpoint must not abort the sync")
		require.Len(t, data.Facts, 1)
		assert.Equal(t, "maintains", data.Facts[0].Predicate)
	})
}

func TestFetchUserDataDateFilter(t *testing.T) {
	ctx := context.Background()
	lastSync := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/youtube/v3/channels":
			writeJSON(w, map[string]any{"items": []map[string]any{
				{"id": "UC1", "snippet": map[string]any{"title": "My Channel"}},
			}})
		case "/youtube/v3/subscriptions":
			writeJSON(w, map[string]any{"items": []map[string]any{
				{
					"id":      "sub-old",
					"snippet": map[string]any{"title": "Old Channel", "publishedAt": "2024-05-01T00:00:00Z"},
				},
				{
					"id":      "sub-boundary",
					"snippet": map[string]any{"title": "Boundary Channel", "publishedAt": "2024-06-01T12:00:00Z"},
				},
				{
					"id":      "sub-new",
					"snippet": map[string]any{"title": "New Channel", "publishedAt": "2024-06-02T00:00:00Z"},
				},
				{
					"id":      "sub-undated",
					"snippet": map[string]any{"title": "Undated Channel"},
				},
			}})
		case "/youtube/v3/playlists":
			writeJSON(w, map[string]any{"items": []map[string]any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fx := newFetcherFixture(t, server)
	require.NoError(t, fx.syncStore.Save(ctx, domain.SyncInfo{
		Platform:   domain.PlatformYouTube,
		LastSyncAt: lastSync,
	}))

	data, err := fx.fetcher.FetchUserData(ctx, domain.PlatformYouTube, "yt-token")
	require.NoError(t, err)

	var objects []string
	for _, fact := range data.Facts {
		objects = append(objects, fact.Object)
	}
	assert.NotContains(t, objects, "Old Channel")
	assert.NotContains(t, objects, "Boundary Channel", "exactly the cursor instant is not newer")
	assert.Contains(t, objects, "New Channel")
	assert.Contains(t, objects, "Undated Channel", "items without a date pass through to dedup")
}

func TestFetchUserDataClientHeader(t *testing.T) {
	ctx := context.Background()

	var gotClientID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("Client-Id")
		switch r.URL.Path {
		case "/helix/users":
			writeJSON(w, map[string]any{"data": []map[string]any{
				{"id": "44322889", "login": "dallas", "display_name": "dallas"},
			}})
		case "/helix/channels/followed":
			writeJSON(w, map[string]any{"data": []map[string]any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	config := &registryMockConfig{values: map[string]any{
		"platforms.twitch.client_id": "twitch-client-id",
	}}
	registry := NewRegistry(config)
	tokens := NewTokenManager(memory.NewTokenStore(), registry, &tokenMockExchanger{})
	syncs := NewSyncManager(memory.NewSyncStateStore(), registry, tokens)
	extractor := NewExtractor(registry, memory.NewFactStore(), nil)
	client := &http.Client{Transport: &rewriteTransport{target: target}}
	fetcher := NewFetcher(registry, tokens, syncs, extractor, client)

	_, err = fetcher.FetchUserData(ctx, domain.PlatformTwitch, "tw-token")

	require.NoError(t, err)
	assert.Equal(t, "twitch-client-id", gotClientID)
}

func TestSubjectLabel(t *testing.T) {
	fetcher := NewFetcher(NewRegistry(nil), nil, nil, nil, nil)

	cfg, err := NewRegistry(nil).Config(domain.PlatformGitHub)
	require.NoError(t, err)

	t.Run("prefers the display name", func(t *testing.T) {
		label := fetcher.subjectLabel(cfg, map[string]any{"login": "octocat", "name": "Octo Cat"})
		assert.Equal(t, "Octo Cat", label)
	})

	t.Run("falls back to the id path", func(t *testing.T) {
		label := fetcher.subjectLabel(cfg, map[string]any{"login": "octocat"})
		assert.Equal(t, "octocat", label)
	})

	t.Run("falls back to a generic label", func(t *testing.T) {
		label := fetcher.subjectLabel(cfg, map[string]any{})
		assert.Equal(t, "github user", label)
	})
}
