package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// registryMockConfig implements driven.ConfigStore over a map.
type registryMockConfig struct {
	values map[string]any
}

func (m *registryMockConfig) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *registryMockConfig) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *registryMockConfig) GetBool(key string) bool {
	b, _ := m.values[key].(bool)
	return b
}

func (m *registryMockConfig) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *registryMockConfig) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *registryMockConfig) Save() error { return nil }
func (m *registryMockConfig) Load() error { return nil }
func (m *registryMockConfig) Path() string {
	return "/tmp/test-config.toml"
}

func TestRegistryConfig(t *testing.T) {
	t.Run("returns config for known platform", func(t *testing.T) {
		registry := NewRegistry(nil)

		cfg, err := registry.Config(domain.PlatformSpotify)

		require.NoError(t, err)
		assert.Equal(t, domain.PlatformSpotify, cfg.ID)
		assert.Equal(t, domain.FlowAuthorizationCode, cfg.Flow)
		assert.True(t, cfg.RequiresPKCE)
		assert.NotEmpty(t, cfg.AuthURL)
		assert.NotEmpty(t, cfg.TokenURL)
		assert.NotEmpty(t, cfg.DataPaths)
	})

	t.Run("fails for unknown platform", func(t *testing.T) {
		registry := NewRegistry(nil)

		_, err := registry.Config(domain.Platform("myspace"))

		assert.ErrorIs(t, err, domain.ErrPlatformNotSupported)
	})

	t.Run("merges client credentials from config store", func(t *testing.T) {
		config := &registryMockConfig{values: map[string]any{
			"platforms.github.client_id":     "id-from-config",
			"platforms.github.client_secret": "secret-from-config",
		}}
		registry := NewRegistry(config)

		cfg, err := registry.Config(domain.PlatformGitHub)

		require.NoError(t, err)
		assert.Equal(t, "id-from-config", cfg.ClientID)
		assert.Equal(t, "secret-from-config", cfg.ClientSecret)
	})

	t.Run("leaves credentials empty without config", func(t *testing.T) {
		registry := NewRegistry(&registryMockConfig{values: map[string]any{}})

		cfg, err := registry.Config(domain.PlatformGitHub)

		require.NoError(t, err)
		assert.Empty(t, cfg.ClientID)
	})

	t.Run("returned config is a copy", func(t *testing.T) {
		registry := NewRegistry(nil)

		cfg1, err := registry.Config(domain.PlatformSpotify)
		require.NoError(t, err)
		cfg1.Scopes[0] = "mutated"
		cfg1.ClientID = "mutated"

		cfg2, err := registry.Config(domain.PlatformSpotify)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", cfg2.Scopes[0])
		assert.NotEqual(t, "mutated", cfg2.ClientID)
	})

	t.Run("external platform has no token endpoint", func(t *testing.T) {
		registry := NewRegistry(nil)

		cfg, err := registry.Config(domain.PlatformLinkedIn)

		require.NoError(t, err)
		assert.True(t, cfg.IsExternal())
		assert.NotEmpty(t, cfg.LandingURL)
		assert.Empty(t, cfg.TokenURL)
		assert.False(t, cfg.CanRefresh())
	})
}

func TestRegistryTripletRules(t *testing.T) {
	t.Run("every platform with data paths has rules", func(t *testing.T) {
		registry := NewRegistry(nil)

		for _, platform := range registry.Platforms() {
			rules := registry.TripletRules(platform)
			assert.NotEmpty(t, rules, "platform %s should have extraction rules", platform)
			for _, rule := range rules {
				assert.NotEmpty(t, rule.Match, "rule needs an endpoint pattern")
				assert.NotEmpty(t, rule.Predicate, "rule needs a predicate")
				assert.NotNil(t, rule.Object, "rule needs an object mapper")
			}
		}
	})

	t.Run("unknown platform gets empty rules", func(t *testing.T) {
		registry := NewRegistry(nil)

		assert.Empty(t, registry.TripletRules(domain.Platform("myspace")))
	})
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "hello", 120, "hello"},
		{"exact length untouched", "abcd", 4, "abcd"},
		{"ascii cut at limit", "abcdef", 4, "abcd"},
		{"multi-byte rune not split", "aaé", 3, "aa"},
		{"cut lands on rune boundary", "ééé", 4, "éé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateLabel(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestLinkedInCommentaryStaysValidUTF8(t *testing.T) {
	registry := NewRegistry(nil)

	var rule domain.TripletRule
	for _, r := range registry.TripletRules(domain.PlatformLinkedIn) {
		if r.Match == "posts" {
			rule = r
			break
		}
	}
	require.NotNil(t, rule.Object)

	label, ok := rule.Object(map[string]any{"commentary": strings.Repeat("日", 100)})
	require.True(t, ok)
	assert.LessOrEqual(t, len(label), 120)
	assert.True(t, utf8.ValidString(label))
	assert.Equal(t, strings.Repeat("日", 40), label)
}

func TestRegistryPlatforms(t *testing.T) {
	registry := NewRegistry(nil)

	platforms := registry.Platforms()

	assert.Equal(t, []domain.Platform{
		domain.PlatformGitHub,
		domain.PlatformLinkedIn,
		domain.PlatformSpotify,
		domain.PlatformTwitch,
		domain.PlatformYouTube,
	}, platforms, "platforms should be sorted")
}
