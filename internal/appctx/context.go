// Package appctx carries the shared per-run application state through the
// command context.
package appctx

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/meteocli/wx/internal/auth"
	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/trace"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Auth   *auth.Manager
	Output *output.Writer
	Log    *trace.Logger

	// HTTPClient is shared by every service client so the timeout and
	// request tracing are configured in one place.
	HTTPClient *http.Client

	// Flags holds the global flag values.
	Flags GlobalFlags
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON   bool
	Quiet  bool
	Styled bool   // Force styled output (even when piped)
	JQ     string // jq expression applied to the data document

	// Behavior flags
	Verbose    int // 0=off, 1=operations, 2=operations+requests (stacks with -v -v or -vv)
	ConfigPath string
	NoInput    bool // Fail instead of prompting
}

// NewApp creates the App from resolved configuration and flag values.
// Verbosity and output format are read from cfg, where the config layers
// (defaults, file, environment, flags) have already been merged.
func NewApp(cfg *config.Config, flags GlobalFlags) *App {
	log := trace.New(resolveVerbose(cfg.Verbose))

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: trace.NewTransport(nil, log),
	}

	format := output.FormatAuto
	switch cfg.Format {
	case "json":
		format = output.FormatJSON
	case "quiet":
		format = output.FormatQuiet
	case "styled":
		format = output.FormatStyled
	}

	return &App{
		Config:     cfg,
		Auth:       auth.NewManager(cfg, httpClient, log),
		Log:        log,
		HTTPClient: httpClient,
		Output: output.New(output.Options{
			Format: format,
			Writer: os.Stdout,
			Filter: flags.JQ,
		}),
		Flags: flags,
	}
}

// resolveVerbose merges the WX_DEBUG escape hatch into the configured level.
// WX_DEBUG=1, 2, or true works even when flags cannot be edited (wrappers,
// aliases, cron entries).
func resolveVerbose(level int) int {
	switch os.Getenv("WX_DEBUG") {
	case "1":
		if level < 1 {
			level = 1
		}
	case "2", "true":
		level = 2
	}
	return level
}

// Interactive reports whether prompting the operator is acceptable: stdin
// must be a terminal and --no-input must be off.
func (a *App) Interactive() bool {
	if a.Flags.NoInput {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
