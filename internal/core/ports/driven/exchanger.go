package driven

import (
	"context"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

// TokenExchanger performs grants against a platform's token endpoint.
type TokenExchanger interface {
	// Exchange swaps an authorization code for tokens.
	// When verifier is non-empty the request authenticates as a public
	// client (HTTP Basic with an empty secret half) and sends the
	// code_verifier; otherwise the client secret goes in the body.
	Exchange(ctx context.Context, cfg domain.PlatformConfig, code, redirectURI, verifier string) (*domain.UserToken, error)

	// Refresh obtains a new access token using the refresh grant.
	Refresh(ctx context.Context, cfg domain.PlatformConfig, refreshToken string) (*domain.UserToken, error)
}
