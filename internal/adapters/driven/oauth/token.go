// Package oauth implements token-endpoint grants for external providers.
package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// exchangeTimeout bounds each token-endpoint call. No retries: a retried
// authorization code is invalid by protocol, and a retried refresh risks
// a rotation race.
const exchangeTimeout = 5 * time.Second

// Ensure Exchanger implements the interface.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// Exchanger performs authorization-code exchange and refresh grants.
type Exchanger struct {
	client *http.Client
}

// NewExchanger creates an exchanger. A nil client gets a default with a
// short timeout.
func NewExchanger(client *http.Client) *Exchanger {
	if client == nil {
		client = &http.Client{Timeout: exchangeTimeout}
	}
	return &Exchanger{client: client}
}

// tokenResponse holds a token endpoint's JSON response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Exchange swaps an authorization code for tokens.
//
// PKCE denotes a public client: the request then carries the code
// verifier and authenticates with HTTP Basic over client_id and an
// empty secret half, instead of a body client_secret.
func (e *Exchanger) Exchange(ctx context.Context, cfg domain.PlatformConfig, code, redirectURI, verifier string) (*domain.UserToken, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", cfg.ClientID)
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	if verifier != "" {
		data.Set("code_verifier", verifier)
	} else {
		data.Set("client_secret", cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if verifier != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":"))
		req.Header.Set("Authorization", "Basic "+basic)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrTokenExchangeFailed, resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrTokenExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", domain.ErrTokenExchangeFailed)
	}
	return toUserToken(cfg.ID, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn), nil
}

// Refresh obtains a new access token via the refresh grant, delegating
// the wire work to golang.org/x/oauth2.
func (e *Exchanger) Refresh(ctx context.Context, cfg domain.PlatformConfig, refreshToken string) (*domain.UserToken, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh grant: %w", err)
	}

	out := &domain.UserToken{
		Platform:     cfg.ID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		CreatedAt:    time.Now(),
	}
	return out, nil
}

// toUserToken builds a domain token, computing the absolute expiry from
// the returned lifetime.
func toUserToken(platform domain.Platform, access, refresh string, expiresIn int) *domain.UserToken {
	token := &domain.UserToken{
		Platform:     platform,
		AccessToken:  access,
		RefreshToken: refresh,
		CreatedAt:    time.Now(),
	}
	if expiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return token
}
