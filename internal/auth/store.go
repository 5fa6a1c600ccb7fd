package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"

	"github.com/meteocli/wx/internal/config"
)

const (
	credentialsFile = "credentials.json"
	serviceName     = "wx"
	keyringItem     = "wx::station"
)

// Credentials holds the persisted OAuth grant. Fields beyond the tokens are
// kept as the server issued them so nothing is lost across rotations.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// CorruptError reports a credential record that exists but cannot be used.
// It is distinct from an absent record: absence starts a fresh authorization,
// corruption stops the run so the user can inspect what happened.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt credentials at %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Store handles credential persistence. The default backend is a JSON file
// with owner-only permissions; the system keychain is opt-in via
// credentials.backend: keyring.
type Store struct {
	useKeyring bool
	dir        string
}

// NewStore creates a credential store from the credentials config section.
func NewStore(cfg config.CredentialsConfig) *Store {
	dir := cfg.Dir
	if dir == "" {
		dir = config.Dir()
	}

	if cfg.Backend == "keyring" && os.Getenv("WX_NO_KEYRING") == "" {
		// Probe once: headless systems frequently have no usable keychain.
		if err := keyring.Set(serviceName, "wx::probe", "probe"); err == nil {
			_ = keyring.Delete(serviceName, "wx::probe") // Best-effort cleanup
			return &Store{useKeyring: true, dir: dir}
		}
		fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored at %s\n",
			filepath.Join(dir, credentialsFile))
	}

	return &Store{dir: dir}
}

// Path returns the credentials file path (meaningful for the file backend).
func (s *Store) Path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Location describes where credentials live, for status output.
func (s *Store) Location() string {
	if s.useKeyring {
		return "system keyring"
	}
	return s.Path()
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// Load retrieves the stored credentials. A missing record returns (nil, nil);
// a record that exists but cannot be decoded returns a *CorruptError.
func (s *Store) Load() (*Credentials, error) {
	if s.useKeyring {
		return s.loadFromKeyring()
	}
	return s.loadFromFile()
}

// Save persists credentials. The file backend writes atomically under an
// advisory lock so concurrent invocations never interleave partial records.
func (s *Store) Save(creds *Credentials) error {
	if s.useKeyring {
		data, err := json.Marshal(creds)
		if err != nil {
			return err
		}
		return keyring.Set(serviceName, keyringItem, string(data))
	}

	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	if lock != nil {
		defer func() { _ = lock.release() }()
	}

	return s.saveToFile(creds)
}

// Delete removes stored credentials. Removing an absent record is not an
// error: wx auth reset must work no matter what state the store is in.
func (s *Store) Delete() error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, keyringItem)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}

	err := os.Remove(s.Path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keyring backend

func (s *Store) loadFromKeyring() (*Credentials, error) {
	data, err := keyring.Get(serviceName, keyringItem)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, &CorruptError{Path: "keyring", Err: err}
	}
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, &CorruptError{Path: "keyring", Err: errors.New("record has no tokens")}
	}
	return &creds, nil
}

// File backend

func (s *Store) loadFromFile() (*Credentials, error) {
	path := s.Path()
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, &CorruptError{Path: path, Err: errors.New("record has no tokens")}
	}
	return &creds, nil
}

func (s *Store) saveToFile(creds *Credentials) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(s.dir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Unix: rename atomically replaces the destination.
	// Windows: rename fails when destination exists. Try rename first to
	// preserve the old file on unrelated errors; only remove+retry on failure.
	destPath := s.Path()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath) // Clean up stale temp on failure
		return err
	}
	return nil
}

// Locking

// lockTimeout is the maximum time to wait for the advisory lock. If exceeded,
// the write proceeds without locking (fail-open) to avoid CLI hangs when
// another process crashed while holding it. The write itself stays atomic.
const lockTimeout = 100 * time.Millisecond

type fileLock struct {
	flock *flock.Flock
}

func (s *Store) acquireLock() (*fileLock, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(s.dir, ".credentials.lock"))

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	// TryLockContext retries every 10ms until the context expires
	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		// Only fail-open on context deadline (timeout), not real errors
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}

	return &fileLock{flock: fl}, nil
}

func (fl *fileLock) release() error {
	if fl == nil || fl.flock == nil {
		return nil
	}
	return fl.flock.Unlock()
}
