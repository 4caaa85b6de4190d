package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

const (
	// fetchTimeout bounds each profile/data request.
	fetchTimeout = 15 * time.Second

	// proactiveRate throttles per-platform API calls (requests/second).
	proactiveRate = 4

	// proactiveBurst is the limiter burst size.
	proactiveBurst = 8
)

// Fetcher performs authenticated retrieval with incremental filtering.
// Each data endpoint's filtered payload is handed to the extractor
// immediately, keeping memory bounded and isolating one endpoint's rule
// failures from the others.
type Fetcher struct {
	registry  *Registry
	tokens    *TokenManager
	syncs     *SyncManager
	extractor *Extractor
	client    *http.Client

	mu       sync.Mutex
	limiters map[domain.Platform]*rate.Limiter
}

// NewFetcher creates a fetcher. A nil client gets a default with a
// per-request timeout.
func NewFetcher(registry *Registry, tokens *TokenManager, syncs *SyncManager, extractor *Extractor, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{
		registry:  registry,
		tokens:    tokens,
		syncs:     syncs,
		extractor: extractor,
		client:    client,
		limiters:  make(map[domain.Platform]*rate.Limiter),
	}
}

// FetchUserData syncs one platform: profile, then each data endpoint in
// order with incremental filtering and immediate extraction, then the
// cursor update.
//
// An explicit token bypasses the token manager; it is used for
// implicit-flow post-callback fetches where the token is known but not
// yet durably queryable. Profile failure is fatal for the attempt;
// per-endpoint failures are logged and skipped.
func (f *Fetcher) FetchUserData(ctx context.Context, platform domain.Platform, explicitToken string) (*domain.UserData, error) {
	cfg, err := f.registry.Config(platform)
	if err != nil {
		return nil, err
	}

	accessToken := explicitToken
	if accessToken == "" {
		accessToken, err = f.tokens.ValidAccessToken(ctx, platform)
		if err != nil {
			return nil, err
		}
	}

	lastSync, err := f.syncs.LastSync(ctx, platform)
	if err != nil {
		return nil, err
	}

	profile, err := f.fetchJSON(ctx, cfg, accessToken, cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetchFailed, err)
	}
	profileMap, _ := profile.(map[string]any)

	data := &domain.UserData{
		Platform:  platform,
		Profile:   profileMap,
		Endpoints: make(map[string][]map[string]any),
	}
	subject := f.subjectLabel(cfg, profileMap)

	var seenIDs []string
	for _, endpoint := range cfg.DataPaths {
		payload, err := f.fetchJSON(ctx, cfg, accessToken, endpoint)
		if err != nil {
			// Partial data is acceptable; keep going.
			logger.Warn("Endpoint %s/%s failed, skipping: %v", platform, endpoint, err)
			continue
		}

		items := resolveItems(payload, f.endpointItemsPath(platform, endpoint), cfg.Shape)
		if cfg.IDField != "" {
			for _, item := range items {
				if id := itemID(item, cfg.IDField); id != "" {
					seenIDs = append(seenIDs, id)
				}
			}
		}

		filtered := f.filterItems(cfg, lastSync, items)
		data.Endpoints[endpoint] = filtered

		facts := f.extractor.ExtractTriplets(platform, endpoint, subject, filtered)
		data.Facts = append(data.Facts, facts...)
		logger.Debug("Endpoint %s/%s: %d items, %d after filter, %d facts",
			platform, endpoint, len(items), len(filtered), len(facts))
	}

	if err := f.syncs.RecordSync(ctx, platform, seenIDs); err != nil {
		return nil, fmt.Errorf("record sync: %w", err)
	}
	return data, nil
}

// filterItems applies the platform's incremental filter against the last
// sync. Date filtering keeps items strictly newer than the last sync
// instant; id filtering drops items whose id was seen last time. With no
// prior sync everything is kept.
func (f *Fetcher) filterItems(cfg *domain.PlatformConfig, lastSync *domain.SyncInfo, items []map[string]any) []map[string]any {
	if lastSync == nil {
		return items
	}

	if cfg.DateField != "" && !lastSync.LastSyncAt.IsZero() {
		filtered := make([]map[string]any, 0, len(items))
		for _, item := range items {
			raw := stringAt(item, cfg.DateField)
			if raw == "" {
				// No date to compare; dedup keys catch re-emission.
				filtered = append(filtered, item)
				continue
			}
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				filtered = append(filtered, item)
				continue
			}
			if t.After(lastSync.LastSyncAt) {
				filtered = append(filtered, item)
			}
		}
		return filtered
	}

	if cfg.IDField != "" && len(lastSync.LastItemIDs) > 0 {
		filtered := make([]map[string]any, 0, len(items))
		for _, item := range items {
			id := itemID(item, cfg.IDField)
			if id == "" || !lastSync.Seen(id) {
				filtered = append(filtered, item)
			}
		}
		return filtered
	}

	return items
}

// fetchJSON performs one rate-limited authenticated GET and decodes the body.
func (f *Fetcher) fetchJSON(ctx context.Context, cfg *domain.PlatformConfig, accessToken, path string) (any, error) {
	if err := f.limiter(cfg.ID).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if cfg.RequiresClientHeader {
		req.Header.Set("Client-Id", cfg.ClientID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, body)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return payload, nil
}

// subjectLabel resolves the authenticated user's label from the profile.
func (f *Fetcher) subjectLabel(cfg *domain.PlatformConfig, profile map[string]any) string {
	if cfg.ProfileNamePath != "" {
		if name := stringAt(profile, cfg.ProfileNamePath); name != "" {
			return name
		}
	}
	if cfg.ProfileIDPath != "" {
		if id := stringAt(profile, cfg.ProfileIDPath); id != "" {
			return id
		}
	}
	return string(cfg.ID) + " user"
}

// endpointItemsPath returns the nested items path of the first rule
// matching this endpoint, so filtering sees the same array extraction will.
func (f *Fetcher) endpointItemsPath(platform domain.Platform, endpoint string) string {
	for _, rule := range f.registry.TripletRules(platform) {
		if rule.ItemsPath != "" && ruleMatches(rule, endpoint) {
			return rule.ItemsPath
		}
	}
	return ""
}

// limiter returns the proactive rate limiter for a platform.
func (f *Fetcher) limiter(platform domain.Platform) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[platform]
	if !ok {
		l = rate.NewLimiter(rate.Limit(proactiveRate), proactiveBurst)
		f.limiters[platform] = l
	}
	return l
}
