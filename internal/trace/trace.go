// Package trace provides human-readable diagnostic output on stderr.
//
// Verbosity levels:
//   - 0: silent
//   - 1: operations only (-v)
//   - 2: operations + HTTP requests (-vv)
package trace

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// sensitiveParams are query parameter names that should be scrubbed from
// trace output. This list is intentionally specific to avoid hiding useful
// debug info.
var sensitiveParams = map[string]bool{
	"access_token":  true, // OAuth tokens
	"refresh_token": true, // OAuth refresh
	"token":         true, // Generic tokens
	"code":          true, // OAuth authorization codes
	"api_key":       true, // API keys
	"apikey":        true, // API keys (no underscore)
	"key":           true, // Speech API key
	"password":      true, // Passwords
	"secret":        true, // Generic secrets
	"client_secret": true, // OAuth client secret
}

// Logger outputs trace lines with timestamps relative to process start.
// A nil *Logger is valid and discards everything, so callers never need
// nil checks.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level int
	start time.Time
}

// New creates a Logger writing to stderr at the given verbosity level.
// Level 0 returns nil: tracing disabled.
func New(level int) *Logger {
	return NewTo(level, os.Stderr)
}

// NewTo creates a Logger writing to w at the given verbosity level.
func NewTo(level int, w io.Writer) *Logger {
	if level <= 0 {
		return nil
	}
	return &Logger{
		w:     w,
		level: level,
		start: time.Now(),
	}
}

// Level returns the verbosity level, 0 for a nil logger.
func (l *Logger) Level() int {
	if l == nil {
		return 0
	}
	return l.level
}

// Operationf writes an operation trace line at level >= 1.
// Format: [0.234s] Refreshing access token
func (l *Logger) Operationf(format string, args ...any) {
	if l == nil || l.level < 1 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%.3fs] %s\n", time.Since(l.start).Seconds(), fmt.Sprintf(format, args...))
}

// Request writes an outgoing request line at level >= 2.
// Format: [0.234s]   -> POST https://api.example.com/oauth2/token
// Sensitive query parameters are redacted.
func (l *Logger) Request(method, rawURL string) {
	if l == nil || l.level < 2 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%.3fs]   -> %s %s\n", time.Since(l.start).Seconds(), method, scrubURL(rawURL))
}

// Response writes a response line at level >= 2.
// Format: [0.234s]   <- 200 (45ms)
func (l *Logger) Response(status int, duration time.Duration) {
	if l == nil || l.level < 2 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%.3fs]   <- %d (%dms)\n", time.Since(l.start).Seconds(), status, duration.Milliseconds())
}

// RequestError writes a transport failure line at level >= 2.
// Format: [0.234s]   <- ERROR: connection refused
func (l *Logger) RequestError(err error) {
	if l == nil || l.level < 2 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%.3fs]   <- ERROR: %v\n", time.Since(l.start).Seconds(), err)
}

// scrubURL redacts sensitive query parameters from a URL for safe logging.
// Returns a safe placeholder if the URL cannot be parsed.
func scrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Don't leak potentially sensitive malformed URLs
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}

	if !modified {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}
