package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// factsUpdatedEvent is the notification dispatched after fact persistence.
const factsUpdatedEvent = "facts_updated"

// Extractor converts raw items into facts and persists them with provenance.
type Extractor struct {
	registry *Registry
	facts    driven.FactStore
	notifier driven.Notifier
}

// NewExtractor creates an extractor. The notifier may be nil.
func NewExtractor(registry *Registry, facts driven.FactStore, notifier driven.Notifier) *Extractor {
	return &Extractor{
		registry: registry,
		facts:    facts,
		notifier: notifier,
	}
}

// ExtractTriplets applies every rule whose pattern is a substring of
// endpointName to the raw payload. One bad item never aborts the batch:
// mapping panics are caught, logged, and the item skipped. A rule
// returning ok=false silently omits the item.
//
// The subject label is the authenticated user; pass the identity resolved
// from the profile endpoint.
func (e *Extractor) ExtractTriplets(platform domain.Platform, endpointName, subject string, rawData any) []domain.Triplet {
	cfg, err := e.registry.Config(platform)
	if err != nil {
		logger.Warn("Extraction skipped for unknown platform %s", platform)
		return nil
	}

	var facts []domain.Triplet
	for _, rule := range e.registry.TripletRules(platform) {
		if !ruleMatches(rule, endpointName) {
			continue
		}
		items := resolveItems(rawData, rule.ItemsPath, cfg.Shape)
		for _, item := range items {
			fact, ok := e.applyRule(cfg, rule, subject, item)
			if ok {
				facts = append(facts, fact)
			}
		}
	}
	return facts
}

// applyRule maps one item through one rule, isolating panics.
func (e *Extractor) applyRule(cfg *domain.PlatformConfig, rule domain.TripletRule, subject string, item map[string]any) (fact domain.Triplet, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Rule %q panicked on item, skipping: %v", rule.Match, r)
			ok = false
		}
	}()

	object, ok := rule.Object(item)
	if !ok || object == "" {
		return domain.Triplet{}, false
	}

	fact = domain.Triplet{
		Subject:   subject,
		Predicate: rule.Predicate,
		Object:    object,
	}
	if rule.Evidence != nil {
		fact.Evidence = rule.Evidence(item)
	}

	identity := object
	if cfg.IDField != "" {
		if id := itemID(item, cfg.IDField); id != "" {
			identity = id
		}
	}
	fact.Key = domain.DedupKey(cfg.ID, rule.Match, identity)
	return fact, true
}

// StoreTriplets persists the not-yet-seen facts of a batch with a single
// provenance record and signals the notification channel. Returns the
// number of newly persisted facts.
//
// Notification failure is logged only; it must never roll back the
// persisted facts.
func (e *Extractor) StoreTriplets(ctx context.Context, platform domain.Platform, facts []domain.Triplet, data *domain.UserData) (int, error) {
	if len(facts) == 0 {
		return 0, nil
	}

	fresh := make([]domain.Triplet, 0, len(facts))
	for _, fact := range facts {
		exists, err := e.facts.HasKey(ctx, fact.Key)
		if err != nil {
			return 0, fmt.Errorf("check dedup key: %w", err)
		}
		if !exists {
			fresh = append(fresh, fact)
		}
	}
	if len(fresh) == 0 {
		logger.Debug("No new facts for %s, all %d deduplicated", platform, len(facts))
		return 0, nil
	}

	batch := domain.FactBatch{
		ID:          uuid.NewString(),
		Platform:    platform,
		Triplets:    fresh,
		ProducedAt:  time.Now(),
		EvidenceURL: e.batchEvidenceURL(platform, fresh, data),
	}
	if err := e.facts.SaveBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("save fact batch: %w", err)
	}

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, factsUpdatedEvent); err != nil {
			logger.Warn("Notification dispatch failed: %v", err)
		}
	}
	return len(fresh), nil
}

// batchEvidenceURL picks one representative provenance link for a batch:
// the first fact carrying its own evidence URL, else a profile-derived
// URL, else the platform homepage.
func (e *Extractor) batchEvidenceURL(platform domain.Platform, facts []domain.Triplet, data *domain.UserData) string {
	for _, fact := range facts {
		if fact.Evidence != "" {
			return fact.Evidence
		}
	}
	if url := profileEvidenceURL(platform, data); url != "" {
		return url
	}
	if cfg, err := e.registry.Config(platform); err == nil {
		return cfg.Homepage
	}
	return ""
}

// profileEvidenceURL derives a profile URL from the synced identity data.
func profileEvidenceURL(platform domain.Platform, data *domain.UserData) string {
	if data == nil || data.Profile == nil {
		return ""
	}
	switch platform {
	case domain.PlatformSpotify:
		return stringAt(data.Profile, "external_urls.spotify")
	case domain.PlatformGitHub:
		return stringAt(data.Profile, "html_url")
	case domain.PlatformYouTube:
		if channelID := stringAt(data.Profile, "items.0.id"); channelID != "" {
			return "https://www.youtube.com/channel/" + channelID
		}
	case domain.PlatformTwitch:
		if login := stringAt(data.Profile, "data.0.login"); login != "" {
			return "https://www.twitch.tv/" + login
		}
	}
	return ""
}

// itemID extracts an item's unique id as a string. JSON numbers decode as
// float64; ids are formatted without an exponent.
func itemID(item map[string]any, field string) string {
	v, ok := nestedValue(item, field)
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}
