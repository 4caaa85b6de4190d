package driven

import "context"

// Authorizer is the interactive authorization collaborator.
// It presents an authorization URL to the user and captures the final
// redirect URL once they complete or cancel.
type Authorizer interface {
	// Launch opens the authorization URL and blocks until the provider
	// redirects back, the user cancels, or ctx expires. It returns the
	// full final redirect URL, including any fragment.
	// Returns domain.ErrUserCancelled when the user declines.
	Launch(ctx context.Context, authURL string) (redirectURL string, err error)

	// Open opens a URL in a new top-level browsing context without
	// waiting for a redirect. Used by the external-delegated flow, whose
	// completion arrives out of band.
	Open(ctx context.Context, url string) error

	// ClearCachedSessions drops any cached authorization session so the
	// next Launch forces a fresh login prompt.
	ClearCachedSessions(ctx context.Context) error
}
