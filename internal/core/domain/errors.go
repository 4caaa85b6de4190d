package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPlatformNotSupported indicates an unconfigured platform identifier.
	// This is a fatal input error, never retryable.
	ErrPlatformNotSupported = errors.New("platform not supported")

	// Authorization Errors.

	// ErrInvalidState indicates a callback presented a state token that is
	// unknown, expired, or already consumed. The flow must fail closed.
	ErrInvalidState = errors.New("invalid or expired state")

	// ErrCallbackMalformed indicates the redirect URL was missing the
	// code/token or the echoed state.
	ErrCallbackMalformed = errors.New("callback malformed")

	// ErrVerifierMissing indicates a PKCE platform's pending authorization
	// carried no code verifier. Internal-consistency failure; reconnect.
	ErrVerifierMissing = errors.New("PKCE verifier missing")

	// ErrTokenExchangeFailed indicates the code-for-token exchange failed.
	// Authorization codes are single-use, so this is never retried.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrUserCancelled indicates the user closed the authorization UI or
	// the interactive step timed out.
	ErrUserCancelled = errors.New("authorization cancelled")

	// ErrAuthInProgress indicates an authorization flow is already running
	// for the platform.
	ErrAuthInProgress = errors.New("authorization already in progress")

	// Credential Errors.

	// ErrNoCredential indicates no token is stored for the platform.
	ErrNoCredential = errors.New("no credential stored")

	// ErrRefreshFailed indicates the stored token is expired and could not
	// be refreshed. The caller must re-run the interactive flow.
	ErrRefreshFailed = errors.New("token refresh failed")

	// Sync Errors.

	// ErrSyncInProgress indicates a sync is already running for the platform.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrProfileFetchFailed indicates the identity endpoint failed.
	// Fatal for the whole sync attempt; no partial data is possible.
	ErrProfileFetchFailed = errors.New("profile fetch failed")
)
