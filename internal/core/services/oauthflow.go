package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// defaultLaunchTimeout bounds the wait on user interaction. Flows that
// exceed it discard their pending state and fail.
const defaultLaunchTimeout = 2 * time.Minute

// PostAuthHook runs after a token is stored, to trigger the first sync.
type PostAuthHook func(ctx context.Context, platform domain.Platform)

// FlowManager drives the three authorization protocols end to end.
//
// Every step is terminal on failure: there is no internal retry, because
// authorization codes are single-use and a retried exchange is unsafe.
// The caller re-initiates instead.
type FlowManager struct {
	registry   *Registry
	tokens     *TokenManager
	pendings   driven.PendingAuthStore
	authorizer driven.Authorizer
	exchanger  driven.TokenExchanger

	// redirectURI is the single static URI registered with every
	// authorization-code/implicit provider.
	redirectURI string

	// callerID correlates external-delegated landing pages back to this
	// installation; it rides in the landing URL instead of pending state.
	callerID string

	launchTimeout time.Duration
	hook          PostAuthHook
}

// NewFlowManager creates a flow manager.
func NewFlowManager(
	registry *Registry,
	tokens *TokenManager,
	pendings driven.PendingAuthStore,
	authorizer driven.Authorizer,
	exchanger driven.TokenExchanger,
	redirectURI string,
) *FlowManager {
	return &FlowManager{
		registry:      registry,
		tokens:        tokens,
		pendings:      pendings,
		authorizer:    authorizer,
		exchanger:     exchanger,
		redirectURI:   redirectURI,
		callerID:      uuid.NewString(),
		launchTimeout: defaultLaunchTimeout,
	}
}

// SetPostAuthHook registers the callback invoked after each stored token.
func (m *FlowManager) SetPostAuthHook(hook PostAuthHook) {
	m.hook = hook
}

// Initiate starts the platform's authorization flow.
//
// External-delegated platforms get their landing page opened and return
// immediately; completion arrives later via HandleExternalToken. All
// other platforms run interactively: pending state is persisted, the
// authorization URL launched, and the captured redirect dispatched to
// the matching callback handler.
func (m *FlowManager) Initiate(ctx context.Context, platform domain.Platform) error {
	cfg, err := m.registry.Config(platform)
	if err != nil {
		return err
	}

	if cfg.IsExternal() {
		landing, err := m.landingURL(cfg)
		if err != nil {
			return err
		}
		logger.Info("Opening delegated authorization page for %s", platform)
		return m.authorizer.Open(ctx, landing)
	}

	state, err := generateState()
	if err != nil {
		return fmt.Errorf("generate state: %w", err)
	}

	var verifier, challenge string
	if cfg.RequiresPKCE {
		verifier, err = generateCodeVerifier()
		if err != nil {
			return fmt.Errorf("generate verifier: %w", err)
		}
		challenge = generateCodeChallenge(verifier)
	}

	pending := domain.PendingAuth{
		State:     state,
		Platform:  platform,
		Verifier:  verifier,
		CreatedAt: time.Now(),
	}
	if err := m.pendings.Save(ctx, pending); err != nil {
		return fmt.Errorf("save pending auth: %w", err)
	}

	authURL, err := m.buildAuthURL(cfg, state, challenge)
	if err != nil {
		return err
	}

	// Force a fresh login prompt rather than silently reusing a stale
	// session for a different account.
	if err := m.authorizer.ClearCachedSessions(ctx); err != nil {
		logger.Warn("Clearing cached authorization sessions failed: %v", err)
	}

	launchCtx, cancel := context.WithTimeout(ctx, m.launchTimeout)
	defer cancel()

	logger.Info("Launching authorization for %s", platform)
	redirectURL, err := m.authorizer.Launch(launchCtx, authURL)
	if err != nil {
		// The pending record must not outlive an abandoned flow.
		if delErr := m.pendings.Delete(ctx, state); delErr != nil && !errors.Is(delErr, domain.ErrNotFound) {
			logger.Warn("Discarding pending auth failed: %v", delErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: timed out waiting for authorization", domain.ErrUserCancelled)
		}
		return err
	}

	return m.dispatchRedirect(ctx, cfg, redirectURL)
}

// HandleCallback completes the authorization-code flow.
func (m *FlowManager) HandleCallback(ctx context.Context, platform domain.Platform, code, state string) error {
	cfg, err := m.registry.Config(platform)
	if err != nil {
		return err
	}
	if code == "" || state == "" {
		return fmt.Errorf("%w: missing code or state", domain.ErrCallbackMalformed)
	}

	pending, err := m.consumeState(ctx, platform, state)
	if err != nil {
		return err
	}
	if cfg.RequiresPKCE && pending.Verifier == "" {
		return fmt.Errorf("%w: %s", domain.ErrVerifierMissing, platform)
	}

	verifier := ""
	if cfg.RequiresPKCE {
		verifier = pending.Verifier
	}
	token, err := m.exchanger.Exchange(ctx, *cfg, code, m.redirectURI, verifier)
	if err != nil {
		return fmt.Errorf("exchange code for %s: %w", platform, err)
	}

	token.Platform = platform
	if err := m.tokens.Store(ctx, *token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	m.runPostAuth(ctx, platform)
	return nil
}

// HandleImplicitCallback completes the implicit flow: the token arrived
// in the redirect fragment, so there is no exchange and never a refresh
// token.
func (m *FlowManager) HandleImplicitCallback(ctx context.Context, platform domain.Platform, accessToken, state string) error {
	if _, err := m.registry.Config(platform); err != nil {
		return err
	}
	if accessToken == "" || state == "" {
		return fmt.Errorf("%w: missing token or state", domain.ErrCallbackMalformed)
	}

	if _, err := m.consumeState(ctx, platform, state); err != nil {
		return err
	}

	token := domain.UserToken{
		Platform:    platform,
		AccessToken: accessToken,
	}
	if err := m.tokens.Store(ctx, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	m.runPostAuth(ctx, platform)
	return nil
}

// HandleExternalToken receives a token posted back by the delegated
// landing page. Correlation already happened via the caller id embedded
// in the landing URL, so there is no pending state to consume.
func (m *FlowManager) HandleExternalToken(ctx context.Context, platform domain.Platform, accessToken, refreshToken string, expiresIn int) error {
	cfg, err := m.registry.Config(platform)
	if err != nil {
		return err
	}
	if !cfg.IsExternal() {
		return fmt.Errorf("%w: %s does not use delegated authorization", domain.ErrInvalidInput, platform)
	}
	if accessToken == "" {
		return fmt.Errorf("%w: missing token", domain.ErrCallbackMalformed)
	}

	token := domain.UserToken{
		Platform:     platform,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if err := m.tokens.Store(ctx, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	m.runPostAuth(ctx, platform)
	return nil
}

// consumeState atomically consumes the pending authorization for a state
// token, failing closed on anything unknown, expired, consumed, or
// belonging to a different platform.
func (m *FlowManager) consumeState(ctx context.Context, platform domain.Platform, state string) (*domain.PendingAuth, error) {
	pending, err := m.pendings.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: state unknown or already consumed", domain.ErrInvalidState)
		}
		return nil, err
	}
	if pending.Platform != platform {
		return nil, fmt.Errorf("%w: state was issued for %s", domain.ErrInvalidState, pending.Platform)
	}
	return pending, nil
}

// buildAuthURL assembles the authorization URL from the platform config.
func (m *FlowManager) buildAuthURL(cfg *domain.PlatformConfig, state, challenge string) (string, error) {
	u, err := url.Parse(cfg.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parse auth URL: %w", err)
	}

	responseType := "code"
	if cfg.Flow == domain.FlowImplicit {
		responseType = "token"
	}

	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", m.redirectURI)
	q.Set("response_type", responseType)
	q.Set("scope", strings.Join(cfg.Scopes, " "))
	q.Set("state", state)
	if challenge != "" {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// landingURL builds the external landing page URL carrying this
// installation's caller id as the correlation parameter.
func (m *FlowManager) landingURL(cfg *domain.PlatformConfig) (string, error) {
	u, err := url.Parse(cfg.LandingURL)
	if err != nil {
		return "", fmt.Errorf("parse landing URL: %w", err)
	}
	q := u.Query()
	q.Set("caller_id", m.callerID)
	q.Set("platform", string(cfg.ID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// dispatchRedirect parses the captured redirect URL and routes it to the
// matching callback handler. Implicit flows carry token and state in the
// fragment; code flows carry code and state in the query. Missing values
// are a protocol violation, never guessed around.
func (m *FlowManager) dispatchRedirect(ctx context.Context, cfg *domain.PlatformConfig, redirectURL string) error {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCallbackMalformed, err)
	}

	if cfg.Flow == domain.FlowImplicit {
		fragment, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return fmt.Errorf("%w: bad fragment: %v", domain.ErrCallbackMalformed, err)
		}
		accessToken := fragment.Get("access_token")
		state := fragment.Get("state")
		if accessToken == "" || state == "" {
			return fmt.Errorf("%w: fragment missing access_token or state", domain.ErrCallbackMalformed)
		}
		return m.HandleImplicitCallback(ctx, cfg.ID, accessToken, state)
	}

	query := u.Query()
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		return fmt.Errorf("%w: query missing code or state", domain.ErrCallbackMalformed)
	}
	return m.HandleCallback(ctx, cfg.ID, code, state)
}

// runPostAuth invokes the registered hook. The authorization itself has
// already succeeded; hook failures are the hook's to report.
func (m *FlowManager) runPostAuth(ctx context.Context, platform domain.Platform) {
	if m.hook != nil {
		m.hook(ctx, platform)
	}
}
