package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// ruleMatches reports whether a rule applies to an endpoint name.
func ruleMatches(rule domain.TripletRule, endpointName string) bool {
	return strings.Contains(endpointName, rule.Match)
}

// nestedValue resolves a dot path (e.g. "snippet.publishedAt", "items.0.id")
// against decoded JSON. Numeric segments index into arrays.
func nestedValue(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// stringAt resolves a dot path to a string. Empty if absent or not a string.
func stringAt(data any, path string) string {
	v, ok := nestedValue(data, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// asItems converts a decoded JSON value into an item list.
// Non-object entries are dropped.
func asItems(v any) []map[string]any {
	switch arr := v.(type) {
	case []any:
		items := make([]map[string]any, 0, len(arr))
		for _, entry := range arr {
			if m, ok := entry.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	case []map[string]any:
		return arr
	default:
		return nil
	}
}

// resolveItems locates the item array inside a decoded endpoint payload.
// An explicit nested path wins; otherwise the platform's response shape
// decides. A payload that is already a flat item list passes through,
// which is how filtered data re-enters extraction.
func resolveItems(payload any, itemsPath string, shape domain.ResponseShape) []map[string]any {
	if items := asItems(payload); items != nil {
		return items
	}
	if itemsPath != "" {
		v, ok := nestedValue(payload, itemsPath)
		if !ok {
			return nil
		}
		return asItems(v)
	}
	switch shape {
	case domain.ShapeItems:
		v, _ := nestedValue(payload, "items")
		return asItems(v)
	case domain.ShapeData:
		v, _ := nestedValue(payload, "data")
		return asItems(v)
	case domain.ShapeBareArray:
		return asItems(payload)
	default:
		return nil
	}
}
