package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// Registry is the read-only catalogue of per-platform configuration and
// extraction rules. Pure lookup; the only failure mode is "not found",
// which callers must treat as a fatal input error.
type Registry struct {
	config driven.ConfigStore
}

// NewRegistry creates a registry. The config store supplies client
// credentials; it may be nil, in which case configs come back without
// client ids and authorization will fail until configured.
func NewRegistry(config driven.ConfigStore) *Registry {
	return &Registry{config: config}
}

// Config returns the configuration for a platform, with client
// credentials merged in from the config store.
// Returns domain.ErrPlatformNotSupported for unknown platforms.
func (r *Registry) Config(platform domain.Platform) (*domain.PlatformConfig, error) {
	cfg, ok := platformCatalogue[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlatformNotSupported, platform)
	}

	// Copy so callers can never mutate the catalogue.
	out := cfg
	out.Scopes = append([]string(nil), cfg.Scopes...)
	out.DataPaths = append([]string(nil), cfg.DataPaths...)

	if r.config != nil {
		prefix := "platforms." + string(platform) + "."
		if id := r.config.GetString(prefix + "client_id"); id != "" {
			out.ClientID = id
		}
		if secret := r.config.GetString(prefix + "client_secret"); secret != "" {
			out.ClientSecret = secret
		}
	}
	return &out, nil
}

// TripletRules returns the ordered extraction rules for a platform.
// Unknown platforms get an empty list.
func (r *Registry) TripletRules(platform domain.Platform) []domain.TripletRule {
	return platformRules[platform]
}

// Platforms returns all registered platform identifiers, sorted.
func (r *Registry) Platforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(platformCatalogue))
	for p := range platformCatalogue {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
