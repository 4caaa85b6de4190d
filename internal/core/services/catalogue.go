package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// platformCatalogue is the static per-platform configuration.
// Client credentials are merged in from the config store at lookup time.
// Adding a platform is a pure-data change here plus its rules below.
var platformCatalogue = map[domain.Platform]domain.PlatformConfig{
	domain.PlatformSpotify: {
		ID:              domain.PlatformSpotify,
		DisplayName:     "Spotify",
		Flow:            domain.FlowAuthorizationCode,
		RequiresPKCE:    true,
		Scopes:          []string{"user-follow-read", "user-top-read", "user-read-private"},
		AuthURL:         "https://accounts.spotify.com/authorize",
		TokenURL:        "https://accounts.spotify.com/api/token",
		APIBaseURL:      "https://api.spotify.com/v1/",
		ProfilePath:     "me",
		DataPaths:       []string{"me/following?type=artist", "me/top/tracks?limit=50", "me/top/artists?limit=50"},
		Shape:           domain.ShapeItems,
		IDField:         "id",
		ProfileIDPath:   "id",
		ProfileNamePath: "display_name",
		Homepage:        "https://open.spotify.com",
	},
	domain.PlatformGitHub: {
		ID:              domain.PlatformGitHub,
		DisplayName:     "GitHub",
		Flow:            domain.FlowAuthorizationCode,
		Scopes:          []string{"read:user", "public_repo"},
		AuthURL:         "https://github.com/login/oauth/authorize",
		TokenURL:        "https://github.com/login/oauth/access_token",
		APIBaseURL:      "https://api.github.com/",
		ProfilePath:     "user",
		DataPaths:       []string{"user/starred", "user/repos?sort=updated", "user/following"},
		Shape:           domain.ShapeBareArray,
		IDField:         "id",
		ProfileIDPath:   "login",
		ProfileNamePath: "name",
		Homepage:        "https://github.com",
	},
	domain.PlatformYouTube: {
		ID:              domain.PlatformYouTube,
		DisplayName:     "YouTube",
		Flow:            domain.FlowImplicit,
		Scopes:          []string{"https://www.googleapis.com/auth/youtube.readonly"},
		AuthURL:         "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:        "https://oauth2.googleapis.com/token",
		APIBaseURL:      "https://www.googleapis.com/youtube/v3/",
		ProfilePath:     "channels?part=snippet&mine=true",
		DataPaths:       []string{"subscriptions?part=snippet&mine=true&maxResults=50", "playlists?part=snippet&mine=true&maxResults=50"},
		Shape:           domain.ShapeItems,
		IDField:         "id",
		DateField:       "snippet.publishedAt",
		ProfileIDPath:   "items.0.id",
		ProfileNamePath: "items.0.snippet.title",
		Homepage:        "https://www.youtube.com",
	},
	domain.PlatformTwitch: {
		ID:                   domain.PlatformTwitch,
		DisplayName:          "Twitch",
		Flow:                 domain.FlowAuthorizationCode,
		Scopes:               []string{"user:read:follows"},
		AuthURL:              "https://id.twitch.tv/oauth2/authorize",
		TokenURL:             "https://id.twitch.tv/oauth2/token",
		APIBaseURL:           "https://api.twitch.tv/helix/",
		ProfilePath:          "users",
		DataPaths:            []string{"channels/followed"},
		Shape:                domain.ShapeData,
		IDField:              "broadcaster_id",
		ProfileIDPath:        "data.0.id",
		ProfileNamePath:      "data.0.display_name",
		RequiresClientHeader: true,
		Homepage:             "https://www.twitch.tv",
	},
	domain.PlatformLinkedIn: {
		ID:              domain.PlatformLinkedIn,
		DisplayName:     "LinkedIn",
		Flow:            domain.FlowExternalDelegated,
		Scopes:          []string{"r_liteprofile", "r_member_social"},
		APIBaseURL:      "https://api.linkedin.com/v2/",
		ProfilePath:     "me",
		DataPaths:       []string{"posts?q=author"},
		Shape:           domain.ShapeData,
		IDField:         "id",
		ProfileIDPath:   "id",
		ProfileNamePath: "localizedFirstName",
		LandingURL:      "https://connect.factsync.dev/linkedin",
		Homepage:        "https://www.linkedin.com",
	},
}

// platformRules are the ordered extraction rules per platform.
var platformRules = map[domain.Platform][]domain.TripletRule{
	domain.PlatformSpotify: {
		{
			Match:     "following",
			Predicate: "follows",
			ItemsPath: "artists.items",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "name"))
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "external_urls.spotify")
			},
		},
		{
			Match:     "top/tracks",
			Predicate: "listens_to",
			Object: func(item map[string]any) (string, bool) {
				name := stringAt(item, "name")
				if name == "" {
					return "", false
				}
				if artist := stringAt(item, "artists.0.name"); artist != "" {
					return fmt.Sprintf("%s by %s", name, artist), true
				}
				return name, true
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "external_urls.spotify")
			},
		},
		{
			Match:     "top/artists",
			Predicate: "listens_to_artist",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "name"))
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "external_urls.spotify")
			},
		},
	},
	domain.PlatformGitHub: {
		{
			Match:     "starred",
			Predicate: "starred",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "full_name"))
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "html_url")
			},
		},
		{
			Match:     "repos",
			Predicate: "maintains",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "full_name"))
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "html_url")
			},
		},
		{
			Match:     "following",
			Predicate: "follows",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "login"))
			},
			Evidence: func(item map[string]any) string {
				return stringAt(item, "html_url")
			},
		},
	},
	domain.PlatformYouTube: {
		{
			Match:     "subscriptions",
			Predicate: "subscribes_to",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "snippet.title"))
			},
			Evidence: func(item map[string]any) string {
				if channelID := stringAt(item, "snippet.resourceId.channelId"); channelID != "" {
					return "https://www.youtube.com/channel/" + channelID
				}
				return ""
			},
		},
		{
			Match:     "playlists",
			Predicate: "curates_playlist",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "snippet.title"))
			},
			Evidence: func(item map[string]any) string {
				if id := stringAt(item, "id"); id != "" {
					return "https://www.youtube.com/playlist?list=" + id
				}
				return ""
			},
		},
	},
	domain.PlatformTwitch: {
		{
			Match:     "followed",
			Predicate: "follows",
			Object: func(item map[string]any) (string, bool) {
				return nonEmpty(stringAt(item, "broadcaster_name"))
			},
			Evidence: func(item map[string]any) string {
				if login := stringAt(item, "broadcaster_login"); login != "" {
					return "https://www.twitch.tv/" + login
				}
				return ""
			},
		},
	},
	domain.PlatformLinkedIn: {
		{
			Match:     "posts",
			Predicate: "authored",
			ItemsPath: "elements",
			Object: func(item map[string]any) (string, bool) {
				text := stringAt(item, "commentary")
				if text == "" {
					return "", false
				}
				return truncateLabel(text, 120), true
			},
		},
	},
}

// nonEmpty adapts a possibly empty label into the ObjectFunc return shape.
func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

// truncateLabel caps a label at max bytes without splitting a rune.
func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
