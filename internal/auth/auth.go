// Package auth implements the OAuth credential lifecycle for the station
// API: load the stored grant, refresh it, and fall back to interactive
// authorization when the refresh cannot succeed.
//
// A stored access token is never reused as-is. Every run that needs a token
// refreshes first, so the token handed to callers is always freshly minted
// and the stored record tracks the provider's latest rotation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/trace"
)

// Manager drives the credential lifecycle.
type Manager struct {
	cfg        *config.Config
	store      *Store
	httpClient *http.Client
	log        *trace.Logger

	// CodePrompt collects the authorization code when the redirect URI is
	// not loopback. Commands wire an interactive form; nil falls back to a
	// plain stdin prompt.
	CodePrompt CodePrompt

	mu sync.Mutex
}

// NewManager creates an auth manager backed by the configured store.
func NewManager(cfg *config.Config, httpClient *http.Client, log *trace.Logger) *Manager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Manager{
		cfg:        cfg,
		store:      NewStore(cfg.Credentials),
		httpClient: httpClient,
		log:        log,
	}
}

// LoginOptions configures the interactive authorization flow.
type LoginOptions struct {
	Scope     string
	NoBrowser bool // Don't auto-open the browser, just print the URL
	Manual    bool // Force the paste prompt even for loopback redirect URIs
}

// AccessToken returns a usable access token, walking the full lifecycle:
//
//   - WX_ACCESS_TOKEN set: use it directly, no store involved.
//   - No stored record: run interactive authorization.
//   - Stored record: refresh it. On success the rotated grant is persisted
//     before the token is returned.
//   - Refresh unrecoverable by re-authorizing (undecodable response, store
//     failure): surface the error.
//   - Otherwise (no refresh token, refresh rejected, endpoint unreachable):
//     fall back to interactive authorization, once.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if token := os.Getenv("WX_ACCESS_TOKEN"); token != "" {
		return token, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.store.Load()
	if err != nil {
		return "", storeLoadError(err)
	}

	if creds == nil {
		m.log.Operationf("No stored credentials, starting authorization")
		return m.authorizeLocked(ctx)
	}

	token, err := m.refreshLocked(ctx, creds)
	if err == nil {
		return token, nil
	}
	if !recoverable(err) {
		return "", mapRefreshError(err)
	}

	m.log.Operationf("Refresh failed (%v), falling back to authorization", err)
	return m.authorizeLocked(ctx)
}

// IsAuthenticated reports whether a token source exists: the env override
// or a readable stored record.
func (m *Manager) IsAuthenticated() bool {
	if os.Getenv("WX_ACCESS_TOKEN") != "" {
		return true
	}
	creds, err := m.store.Load()
	return err == nil && creds != nil
}

// StoredCredentials returns the stored record for status display.
// Same contract as Store.Load: (nil, nil) means no record.
func (m *Manager) StoredCredentials() (*Credentials, error) {
	creds, err := m.store.Load()
	if err != nil {
		return nil, storeLoadError(err)
	}
	return creds, nil
}

// Login runs the interactive authorization flow and persists the grant.
func (m *Manager) Login(ctx context.Context, opts LoginOptions) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx, opts)
}

// Logout removes stored credentials.
func (m *Manager) Logout() error {
	return m.store.Delete()
}

// Refresh forces a refresh of the stored grant and surfaces any failure
// instead of falling back to authorization.
func (m *Manager) Refresh(ctx context.Context) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.store.Load()
	if err != nil {
		return nil, storeLoadError(err)
	}
	if creds == nil {
		return nil, output.ErrAuth("Not authenticated")
	}

	if _, err := m.refreshLocked(ctx, creds); err != nil {
		return nil, mapRefreshError(err)
	}
	return m.store.Load()
}

// GetStore returns the credential store.
func (m *Manager) GetStore() *Store {
	return m.store
}

// refreshLocked performs the refresh grant and persists the rotated record.
// The token is returned only after the record is safely on disk. Errors are
// the package's raw types so the caller can classify them.
func (m *Manager) refreshLocked(ctx context.Context, creds *Credentials) (string, error) {
	if creds.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	m.log.Operationf("Refreshing access token")

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", creds.RefreshToken)
	form.Set("client_id", m.cfg.Station.ClientID)
	form.Set("client_secret", m.cfg.Station.ClientSecret)

	tr, err := m.doTokenRequest(ctx, form)
	if err != nil {
		return "", err
	}

	next := &Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		ExpiresAt:    creds.ExpiresAt,
		Scope:        creds.Scope,
	}
	// Providers may rotate the refresh token and narrow the scope.
	if tr.RefreshToken != "" {
		next.RefreshToken = tr.RefreshToken
	}
	if tr.TokenType != "" {
		next.TokenType = tr.TokenType
	}
	if tr.ExpiresIn > 0 {
		next.ExpiresAt = time.Now().Unix() + tr.ExpiresIn
	}
	if s := tr.Scope.String(); s != "" {
		next.Scope = s
	}

	if err := m.store.Save(next); err != nil {
		return "", output.ErrStore("cannot persist refreshed credentials", err)
	}
	return next.AccessToken, nil
}

// authorizeLocked runs the interactive flow with the configured scope and
// returns the fresh access token.
func (m *Manager) authorizeLocked(ctx context.Context) (string, error) {
	creds, err := m.loginLocked(ctx, LoginOptions{Scope: m.cfg.Station.Scope})
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

func (m *Manager) loginLocked(ctx context.Context, opts LoginOptions) (*Credentials, error) {
	if err := m.cfg.Station.ValidateOAuth(); err != nil {
		return nil, err
	}

	scope := opts.Scope
	if scope == "" {
		scope = m.cfg.Station.Scope
	}

	state := generateState()
	authURL, err := m.buildAuthURL(scope, state)
	if err != nil {
		return nil, output.ErrConfig(fmt.Sprintf("invalid station.auth_url: %v", err))
	}

	m.log.Operationf("Starting interactive authorization")

	code, err := m.obtainCode(ctx, state, authURL, opts)
	if err != nil {
		return nil, output.ErrAuthHint(fmt.Sprintf("authorization failed: %v", err), "Run: wx auth login")
	}

	m.log.Operationf("Exchanging authorization code")

	creds, err := m.exchangeCode(ctx, code, scope)
	if err != nil {
		return nil, mapExchangeError(err)
	}

	if err := m.store.Save(creds); err != nil {
		return nil, output.ErrStore("cannot persist credentials", err)
	}
	m.log.Operationf("Credentials saved to %s", m.store.Location())
	return creds, nil
}

// Error mapping for the command boundary.

func storeLoadError(err error) error {
	var ce *CorruptError
	if errors.As(err, &ce) {
		return output.ErrStoreHint("stored credentials are corrupt", "Run: wx auth reset", ce)
	}
	return output.ErrStore("cannot read credential store", err)
}

func mapRefreshError(err error) error {
	if errors.Is(err, ErrNoRefreshToken) {
		return output.ErrAuthHint("stored credentials have no refresh token", "Run: wx auth login")
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		return output.ErrAuthHint(fmt.Sprintf("token refresh rejected: %v", rej), "Run: wx auth login")
	}
	var te *TransportError
	if errors.As(err, &te) {
		return output.ErrNetwork(te.Err)
	}
	var oe *output.Error
	if errors.As(err, &oe) {
		return oe
	}
	return output.ErrAPI(0, fmt.Sprintf("token refresh failed: %v", err))
}

func mapExchangeError(err error) error {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return output.ErrAuthHint(
			fmt.Sprintf("authorization code exchange failed: %v", rej),
			"Request a fresh code with wx auth login")
	}
	var te *TransportError
	if errors.As(err, &te) {
		return output.ErrNetwork(te.Err)
	}
	return output.ErrAuthHint(fmt.Sprintf("authorization failed: %v", err), "Run: wx auth login")
}
