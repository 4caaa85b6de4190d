// Package oauth provides the interactive-authorization adapter: a
// loopback callback server plus browser launching.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// DefaultPort is the loopback port baked into the fixed redirect URI
// registered with every provider.
const DefaultPort = 8417

// Ensure BrowserAuthorizer implements the interface.
var _ driven.Authorizer = (*BrowserAuthorizer)(nil)

// BrowserAuthorizer drives authorization through the system browser.
// Launch starts a loopback HTTP server on the fixed redirect port,
// opens the authorization URL, and captures the final redirect.
// Implicit-flow fragments never reach the server directly, so a small
// hand-off page re-posts them to a capture endpoint.
type BrowserAuthorizer struct {
	port int
}

// NewBrowserAuthorizer creates an authorizer on the given loopback port.
// Zero selects DefaultPort.
func NewBrowserAuthorizer(port int) *BrowserAuthorizer {
	if port == 0 {
		port = DefaultPort
	}
	return &BrowserAuthorizer{port: port}
}

// RedirectURI returns the fixed redirect URI for this authorizer.
func (a *BrowserAuthorizer) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", a.port)
}

// Launch opens the authorization URL and blocks until the redirect is
// captured, the user cancels, or ctx expires.
func (a *BrowserAuthorizer) Launch(ctx context.Context, authURL string) (string, error) {
	srv := newCallbackServer(a.port, a.RedirectURI())
	if err := srv.start(); err != nil {
		return "", err
	}
	defer srv.stop()

	if err := OpenBrowser(authURL); err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}

	select {
	case redirectURL := <-srv.urlChan:
		return redirectURL, nil
	case err := <-srv.errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Open opens a URL without waiting for any redirect.
func (a *BrowserAuthorizer) Open(_ context.Context, url string) error {
	return OpenBrowser(url)
}

// ClearCachedSessions is a no-op for the system browser: its sessions
// belong to the user, so a fresh prompt is requested per flow instead
// of wiping browser state.
func (a *BrowserAuthorizer) ClearCachedSessions(context.Context) error {
	return nil
}

// callbackServer receives one OAuth redirect on the loopback interface.
type callbackServer struct {
	mu          sync.Mutex
	port        int
	redirectURI string
	urlChan     chan string
	errChan     chan error
	server      *http.Server
	listener    net.Listener
}

func newCallbackServer(port int, redirectURI string) *callbackServer {
	return &callbackServer{
		port:        port,
		redirectURI: redirectURI,
		urlChan:     make(chan string, 1),
		errChan:     make(chan error, 1),
	}
}

func (s *callbackServer) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/capture", s.handleCapture)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// handleCallback processes the provider's redirect. Query-carried
// responses (code flows) resolve immediately; an empty query means the
// response rode in the fragment, so the hand-off page is served to
// re-post it to /capture.
func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		errDesc := query.Get("error_description")
		if errParam == "access_denied" {
			s.deliverErr(domain.ErrUserCancelled)
		} else {
			s.deliverErr(fmt.Errorf("oauth error: %s - %s", errParam, errDesc))
		}
		writePage(w, fmt.Sprintf("Authorization failed: %s", html.EscapeString(errParam)), "")
		return
	}

	if len(query) == 0 {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, fragmentHandoffHTML)
		return
	}

	s.deliverURL(s.redirectURI + "?" + r.URL.RawQuery)
	writePage(w, "Authorization successful!", "You can close this window and return to the application.")
}

// handleCapture receives the fragment forwarded by the hand-off page and
// rebuilds the original fragment-carrying redirect URL.
func (s *callbackServer) handleCapture(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("fragment")
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		s.deliverErr(fmt.Errorf("no fragment received"))
		writePage(w, "Authorization failed: empty response", "")
		return
	}
	s.deliverURL(s.redirectURI + "#" + fragment)
	writePage(w, "Authorization successful!", "You can close this window and return to the application.")
}

func (s *callbackServer) deliverURL(u string) {
	select {
	case s.urlChan <- u:
	default:
	}
}

func (s *callbackServer) deliverErr(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

func (s *callbackServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}

// fragmentHandoffHTML forwards the URL fragment to /capture. Implicit
// flows put the token in the fragment, which browsers strip from
// requests, so a round trip through the page's script is required.
const fragmentHandoffHTML = `<!DOCTYPE html>
<html>
<head><title>Factsync - Completing authorization</title></head>
<body>
<p>Completing authorization...</p>
<script>
  window.location.replace("/capture?fragment=" + encodeURIComponent(window.location.hash));
</script>
</body>
</html>`

func writePage(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Factsync - OAuth Callback</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
            box-shadow: 0 4px 24px rgba(0,0,0,0.08);
        }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; font-weight: 600; }
        p  { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(rawURL string) error {
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
