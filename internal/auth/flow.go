package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/meteocli/wx/internal/hostutil"
	"github.com/meteocli/wx/internal/version"
)

// CodePrompt collects an authorization code from the user after they visit
// the authorization URL. Injected so commands can supply an interactive form
// and tests can supply a canned code.
type CodePrompt func(authURL string) (string, error)

// maxTokenBody bounds how much of a token response is read.
const maxTokenBody = 1 << 20

// tokenResponse is the token endpoint's success document.
type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	Scope        scopeValue `json:"scope"`
	TokenType    string     `json:"token_type"`
}

// scopeValue tolerates both the space-delimited string form and the JSON
// array form some providers return.
type scopeValue string

func (s *scopeValue) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scopeValue(v)
	case '[':
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		*s = scopeValue(strings.Join(vs, " "))
	default:
		return fmt.Errorf("unexpected scope value: %s", string(data))
	}
	return nil
}

func (s scopeValue) String() string { return string(s) }

// buildAuthURL assembles the authorization endpoint URL the user must visit.
func (m *Manager) buildAuthURL(scope, state string) (string, error) {
	u, err := url.Parse(m.cfg.Station.AuthURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", m.cfg.Station.ClientID)
	q.Set("redirect_uri", m.cfg.Station.RedirectURI)
	q.Set("state", state)
	if scope != "" {
		q.Set("scope", scope)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// obtainCode gets an authorization code: via a local callback listener when
// the redirect URI is loopback, otherwise by prompting for a paste.
func (m *Manager) obtainCode(ctx context.Context, state, authURL string, opts LoginOptions) (string, error) {
	if !opts.Manual && hostutil.IsLoopbackURL(m.cfg.Station.RedirectURI) {
		return m.waitForCallback(ctx, state, authURL, opts.NoBrowser)
	}

	prompt := m.CodePrompt
	if prompt == nil {
		prompt = stdinCodePrompt
	}
	return prompt(authURL)
}

// waitForCallback serves the redirect URI on a local listener and waits for
// the provider to deliver the code.
func (m *Manager) waitForCallback(ctx context.Context, expectedState, authURL string, noBrowser bool) (string, error) {
	redirect, err := url.Parse(m.cfg.Station.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect_uri: %w", err)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", redirect.Host, err)
	}
	defer func() { _ = listener.Close() }()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Browsers also fetch /favicon.ico; only the callback path counts.
			if r.URL.Path != callbackPath {
				http.NotFound(w, r)
				return
			}

			state := r.URL.Query().Get("state")
			code := r.URL.Query().Get("code")
			errParam := r.URL.Query().Get("error")

			if errParam != "" {
				errCh <- fmt.Errorf("provider returned %q", errParam)
				fmt.Fprint(w, "<html><body><h1>Authorization failed</h1><p>You can close this window.</p></body></html>")
				return
			}

			if state != expectedState {
				errCh <- fmt.Errorf("state mismatch: CSRF protection failed")
				fmt.Fprint(w, "<html><body><h1>Authorization failed</h1><p>State mismatch.</p></body></html>")
				return
			}

			codeCh <- code
			fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
		}),
	}

	go server.Serve(listener)

	// Progress goes to stderr: stdout carries the JSON envelope.
	if !noBrowser {
		if err := openBrowser(authURL); err != nil {
			fmt.Fprintf(os.Stderr, "\nCouldn't open browser automatically.\nOpen this URL in your browser:\n%s\n\nWaiting for authorization...\n", authURL)
		} else {
			fmt.Fprintf(os.Stderr, "\nOpening browser for authorization...\nIf the browser doesn't open, visit: %s\n\nWaiting for authorization...\n", authURL)
		}
	} else {
		fmt.Fprintf(os.Stderr, "\nOpen this URL in your browser:\n%s\n\nWaiting for authorization...\n", authURL)
	}

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Minute):
		return "", fmt.Errorf("authorization timeout")
	}
}

// stdinCodePrompt is the fallback prompt when no interactive form is wired.
func stdinCodePrompt(authURL string) (string, error) {
	fmt.Fprintf(os.Stderr, "\nOpen this URL in your browser and authorize access:\n\n  %s\n\nThen paste the authorization code here.\nCode: ", authURL)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty authorization code")
	}
	return code, nil
}

// exchangeCode trades an authorization code for tokens.
func (m *Manager) exchangeCode(ctx context.Context, code, scope string) (*Credentials, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", m.cfg.Station.ClientID)
	form.Set("client_secret", m.cfg.Station.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", m.cfg.Station.RedirectURI)
	if scope != "" {
		form.Set("scope", scope)
	}

	tr, err := m.doTokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope.String(),
	}
	if creds.Scope == "" {
		creds.Scope = scope
	}
	if tr.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Unix() + tr.ExpiresIn
	}
	return creds, nil
}

// doTokenRequest posts a form to the token endpoint and decodes the response.
// Non-success statuses become *RejectedError, network failures
// *TransportError; an undecodable success body is neither, it is fatal.
func (m *Manager) doTokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Station.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), 512),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tr, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// generateState produces the CSRF token tying the callback to this attempt.
func generateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return exec.Command(cmd, args...).Start() //nolint:gosec,noctx // G204: cmd is hardcoded per-platform; fire-and-forget
}
