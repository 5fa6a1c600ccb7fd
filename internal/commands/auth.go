package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/auth"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage station API credentials",
		Long:  "Manage station API authentication: login, logout, status, refresh.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
		newAuthTokenCmd(),
		newAuthResetCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var scope string
	var noBrowser, manual bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize with the station API",
		Long: `Run the OAuth authorization flow and store the resulting grant.

The browser opens on the provider's consent page. With a loopback
redirect URI the code is captured automatically; otherwise paste it at
the prompt. --manual forces the paste prompt, --no-browser only prints
the URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			fmt.Println("Starting station API authorization...")

			creds, err := app.Auth.Login(cmd.Context(), auth.LoginOptions{
				Scope:     scope,
				NoBrowser: noBrowser,
				Manual:    manual,
			})
			if err != nil {
				return err
			}

			data := map[string]any{"status": "authenticated"}
			if creds.Scope != "" {
				data["scope"] = creds.Scope
			}
			if creds.ExpiresAt > 0 {
				data["expires_at"] = time.Unix(creds.ExpiresAt, 0).UTC().Format(time.RFC3339)
			}

			return app.Output.OK(data, output.WithSummary("Authentication successful"))
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Override the configured OAuth scope")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open the browser, just print the URL")
	cmd.Flags().BoolVar(&manual, "manual", false, "Paste the authorization code by hand")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Auth.Logout(); err != nil {
				return output.ErrStore("cannot remove stored credentials", err)
			}

			return app.Output.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long: `Display the stored grant: scope, expiry, store location.

Expiry here is informational. Commands refresh the token on every run
regardless of what the clock says.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if os.Getenv("WX_ACCESS_TOKEN") != "" {
				return app.Output.OK(map[string]any{
					"authenticated": true,
					"source":        "WX_ACCESS_TOKEN",
				}, output.WithSummary("Authenticated via WX_ACCESS_TOKEN env var"))
			}

			creds, err := app.Auth.StoredCredentials()
			if err != nil {
				return err
			}

			store := app.Auth.GetStore()
			if creds == nil {
				return app.Output.OK(map[string]any{
					"authenticated": false,
					"store":         store.Location(),
				}, output.WithSummary("Not authenticated"))
			}

			status := map[string]any{
				"authenticated": true,
				"source":        "oauth",
				"store":         store.Location(),
				"refresh_token": creds.RefreshToken != "",
			}
			if creds.Scope != "" {
				status["scope"] = creds.Scope
			}

			summary := "Authenticated"
			if creds.ExpiresAt > 0 {
				expiresIn := time.Until(time.Unix(creds.ExpiresAt, 0))
				status["expires_in"] = expiresIn.Round(time.Second).String()
				status["expired"] = expiresIn < 0
				if expiresIn < 0 {
					summary = "Authenticated (access token expired; it will refresh on next use)"
				}
			}

			return app.Output.OK(status, output.WithSummary(summary))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token now",
		Long:  "Force a refresh grant. Failures surface directly; no re-authorization is attempted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			creds, err := app.Auth.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			data := map[string]any{"status": "refreshed"}
			if creds != nil && creds.ExpiresAt > 0 {
				data["expires_at"] = time.Unix(creds.ExpiresAt, 0).UTC().Format(time.RFC3339)
			}

			return app.Output.OK(data, output.WithSummary("Token refreshed"))
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a current access token",
		Long: `Print an access token to stdout for use with other tools.

This runs the full lifecycle: the stored grant is refreshed (or a new
authorization started) before anything is printed.

Examples:
  export TOKEN=$(wx auth token)
  curl -H "Authorization: Bearer $(wx auth token)" ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			token, err := app.Auth.AccessToken(cmd.Context())
			if err != nil {
				return err
			}

			// Raw output by default so shell substitution works; the JSON
			// envelope only on request.
			if app.Flags.JSON {
				return app.Output.OK(map[string]string{"token": token})
			}
			return app.Output.Plain(token)
		},
	}
}

func newAuthResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the credential store",
		Long: `Delete the stored record no matter what state it is in.

This is the way out when the store is corrupt and normal logout cannot
read it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store := app.Auth.GetStore()

			if !force {
				if !app.Interactive() {
					return output.ErrUsageHint("refusing to reset without confirmation",
						"Re-run with --force")
				}
				ok, err := tui.ConfirmDangerous(fmt.Sprintf("Delete credentials at %s?", store.Location()))
				if err != nil {
					return err
				}
				if !ok {
					return app.Output.OK(map[string]string{"status": "kept"},
						output.WithSummary("Nothing deleted"))
				}
			}

			if err := store.Delete(); err != nil {
				return output.ErrStore("cannot delete credential store", err)
			}

			return app.Output.OK(map[string]string{
				"status": "reset",
			}, output.WithSummary("Credential store deleted"))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}
