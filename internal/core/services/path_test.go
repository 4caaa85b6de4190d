package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

func TestNestedValue(t *testing.T) {
	data := map[string]any{
		"snippet": map[string]any{
			"publishedAt": "2024-01-15T10:00:00Z",
			"resourceId":  map[string]any{"channelId": "UC123"},
		},
		"items": []any{
			map[string]any{"id": "first"},
			map[string]any{"id": "second"},
		},
		"count": float64(7),
	}

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{"top-level key", "count", float64(7), true},
		{"nested key", "snippet.publishedAt", "2024-01-15T10:00:00Z", true},
		{"doubly nested key", "snippet.resourceId.channelId", "UC123", true},
		{"array index", "items.0.id", "first", true},
		{"second array index", "items.1.id", "second", true},
		{"index out of range", "items.5.id", nil, false},
		{"negative index", "items.-1.id", nil, false},
		{"missing key", "snippet.missing", nil, false},
		{"path through scalar", "count.deeper", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nestedValue(data, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStringAt(t *testing.T) {
	data := map[string]any{
		"name":  "radiohead",
		"count": float64(3),
	}

	assert.Equal(t, "radiohead", stringAt(data, "name"))
	assert.Empty(t, stringAt(data, "count"), "non-string resolves to empty")
	assert.Empty(t, stringAt(data, "missing"))
}

func TestResolveItems(t *testing.T) {
	t.Run("items shape", func(t *testing.T) {
		payload := map[string]any{"items": []any{
			map[string]any{"id": "a"},
			map[string]any{"id": "b"},
		}}

		items := resolveItems(payload, "", domain.ShapeItems)

		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0]["id"])
	})

	t.Run("data shape", func(t *testing.T) {
		payload := map[string]any{"data": []any{map[string]any{"id": "a"}}}

		assert.Len(t, resolveItems(payload, "", domain.ShapeData), 1)
	})

	t.Run("bare array shape", func(t *testing.T) {
		payload := []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}}

		assert.Len(t, resolveItems(payload, "", domain.ShapeBareArray), 2)
	})

	t.Run("explicit nested path wins over shape", func(t *testing.T) {
		payload := map[string]any{
			"artists": map[string]any{
				"items": []any{map[string]any{"name": "boards of canada"}},
			},
		}

		items := resolveItems(payload, "artists.items", domain.ShapeItems)

		require.Len(t, items, 1)
		assert.Equal(t, "boards of canada", items[0]["name"])
	})

	t.Run("flat item list passes through", func(t *testing.T) {
		filtered := []map[string]any{{"id": "a"}}

		items := resolveItems(filtered, "artists.items", domain.ShapeItems)

		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0]["id"])
	})

	t.Run("non-object entries are dropped", func(t *testing.T) {
		payload := map[string]any{"items": []any{
			map[string]any{"id": "a"},
			"just-a-string",
			float64(42),
		}}

		assert.Len(t, resolveItems(payload, "", domain.ShapeItems), 1)
	})

	t.Run("missing path yields nil", func(t *testing.T) {
		payload := map[string]any{"other": "thing"}

		assert.Nil(t, resolveItems(payload, "artists.items", domain.ShapeItems))
		assert.Nil(t, resolveItems(payload, "", domain.ShapeItems))
	})
}

func TestRuleMatches(t *testing.T) {
	rule := domain.TripletRule{Match: "top/tracks"}

	assert.True(t, ruleMatches(rule, "me/top/tracks?limit=50"))
	assert.False(t, ruleMatches(rule, "me/top/artists?limit=50"))
}
