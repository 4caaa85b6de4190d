package domain

// Platform identifies a supported third-party service.
type Platform string

// Known platforms.
const (
	PlatformSpotify  Platform = "spotify"
	PlatformGitHub   Platform = "github"
	PlatformYouTube  Platform = "youtube"
	PlatformTwitch   Platform = "twitch"
	PlatformLinkedIn Platform = "linkedin"
)

// FlowKind identifies the OAuth variant a platform uses.
type FlowKind string

const (
	// FlowAuthorizationCode is the standard code-exchange flow.
	FlowAuthorizationCode FlowKind = "authorization_code"

	// FlowImplicit returns the access token directly in the redirect fragment.
	FlowImplicit FlowKind = "implicit"

	// FlowExternalDelegated hands the whole flow to an external landing page
	// that later posts the token back out of band.
	FlowExternalDelegated FlowKind = "external_delegated"
)

// ResponseShape describes where a data endpoint keeps its item array.
type ResponseShape string

const (
	// ShapeItems means items live under the top-level "items" field.
	ShapeItems ResponseShape = "items"

	// ShapeData means items live under the top-level "data" field.
	ShapeData ResponseShape = "data"

	// ShapeBareArray means the response body is the item array itself.
	ShapeBareArray ResponseShape = "bare_array"
)

// PlatformConfig is the immutable per-platform configuration.
// One record per supported service, loaded at startup. Adding a platform
// is a pure-data change; no per-platform code paths exist outside the
// extraction rules and the evidence-URL heuristic.
type PlatformConfig struct {
	// ID is the platform identifier.
	ID Platform

	// DisplayName is the human-readable service name.
	DisplayName string

	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	// Empty for public (PKCE) clients and implicit-flow platforms.
	ClientSecret string

	// Flow is the OAuth variant this platform uses.
	Flow FlowKind

	// Scopes are the OAuth scopes to request, space-joined in the auth URL.
	Scopes []string

	// AuthURL is the authorization endpoint.
	AuthURL string

	// TokenURL is the token exchange endpoint.
	TokenURL string

	// APIBaseURL is the base URL for profile and data endpoints.
	APIBaseURL string

	// ProfilePath is the identity endpoint path, relative to APIBaseURL.
	ProfilePath string

	// DataPaths are the activity endpoint paths, fetched in order.
	DataPaths []string

	// Shape describes the default item-array location in responses.
	Shape ResponseShape

	// IDField names the unique-id field on items. Non-empty enables
	// id-based incremental filtering.
	IDField string

	// DateField is a dot path to a timestamp on items. Non-empty enables
	// date-based incremental filtering, which takes precedence over IDField.
	DateField string

	// ProfileIDPath is a dot path to the user id in the profile response.
	ProfileIDPath string

	// ProfileNamePath is a dot path to the display name in the profile response.
	ProfileNamePath string

	// RequiresClientHeader indicates the API wants the client id echoed in a
	// Client-Id request header alongside the bearer token (e.g. Twitch).
	RequiresClientHeader bool

	// RequiresPKCE indicates the authorization-code flow must use PKCE with
	// the S256 challenge method.
	RequiresPKCE bool

	// LandingURL is the external landing page driving FlowExternalDelegated.
	LandingURL string

	// Homepage is the platform homepage, the evidence-URL fallback of last resort.
	Homepage string
}

// IsExternal returns true if authorization is delegated to an external page.
func (c *PlatformConfig) IsExternal() bool {
	return c.Flow == FlowExternalDelegated
}

// CanRefresh returns true if the platform's flow can mint refresh tokens.
// Implicit-flow platforms never receive one; expiry there means re-auth.
func (c *PlatformConfig) CanRefresh() bool {
	return c.Flow == FlowAuthorizationCode
}
