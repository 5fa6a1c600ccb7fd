// Package cli assembles the wx command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/appctx"
	"github.com/meteocli/wx/internal/commands"
	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/tui"
	"github.com/meteocli/wx/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:   "wx",
		Short: "Weather toolbox: almanac, station readings, forecasts, speech",
		Long: `wx is a set of one-shot weather utilities: the astronomical almanac,
readings from an OAuth-protected personal weather station, the
government zone text forecast, and text-to-speech for announcements.

Output is a JSON envelope on pipes and styled text on a terminal;
--json, --quiet, and --styled force a format, --jq filters the data.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Help and version need no configuration.
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			overrides := config.FlagOverrides{}
			switch {
			case flags.Quiet:
				overrides.Format = "quiet"
			case flags.Styled:
				overrides.Format = "styled"
			case flags.JSON:
				overrides.Format = "json"
			}
			if cmd.Flags().Changed("verbose") {
				overrides.Verbose = &flags.Verbose
			}

			cfg, err := config.Load(flags.ConfigPath, overrides)
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg, flags)
			if app.Interactive() {
				app.Auth.CodePrompt = authCodePrompt
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.SetVersionTemplate(version.Full() + "\n")

	// Allow flags anywhere in the command line.
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output the JSON envelope")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter the data document with a jq expression")
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Trace operations (-v) and HTTP traffic (-vv) on stderr")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/wx/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoInput, "no-input", false, "Never prompt; fail where input would be needed")

	return cmd
}

// authCodePrompt collects a pasted authorization code with an interactive
// form. Wired only when the run is interactive; otherwise the auth package
// falls back to its plain stdin prompt.
func authCodePrompt(authURL string) (string, error) {
	fmt.Fprintf(os.Stderr, "\nOpen this URL in your browser and authorize access:\n\n  %s\n\n", authURL)
	return tui.AuthCode()
}

// Execute runs the root command and exits the process on error.
func Execute(ctx context.Context) {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewAlmanacCmd())
	cmd.AddCommand(commands.NewStationCmd())
	cmd.AddCommand(commands.NewForecastCmd())
	cmd.AddCommand(commands.NewSpeakCmd())
	cmd.AddCommand(commands.NewConfigCmd())

	executed, err := cmd.ExecuteContextC(ctx)
	if err == nil {
		return
	}

	err = transformCobraError(err)
	e := output.AsError(err)

	// Render through the app writer when setup got far enough to build one,
	// so the error respects the chosen format.
	if app := appctx.FromContext(executed.Context()); app != nil {
		_ = app.Output.Err(err)
		os.Exit(e.ExitCode())
	}

	writer := output.New(output.Options{Format: output.FormatAuto, Writer: os.Stdout})
	_ = writer.Err(err)
	os.Exit(e.ExitCode())
}

var shorthandFlagPattern = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError reclassifies cobra's own parse failures as usage
// errors so they exit with the usage code instead of the generic one.
func transformCobraError(err error) error {
	var e *output.Error
	if errors.As(err, &e) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument: "):
		return output.ErrUsage(strings.TrimPrefix(msg, "flag needs an argument: ") + " requires a value")
	case strings.HasPrefix(msg, "unknown flag: "):
		return output.ErrUsage("unknown option: " + strings.TrimPrefix(msg, "unknown flag: "))
	case strings.HasPrefix(msg, "unknown shorthand flag: "):
		if m := shorthandFlagPattern.FindStringSubmatch(msg); len(m) > 1 {
			return output.ErrUsage("unknown option: " + m[1])
		}
		return output.ErrUsage(msg)
	case strings.HasPrefix(msg, "unknown command "):
		return output.ErrUsageHint(msg, "Run: wx --help")
	case strings.Contains(msg, "invalid argument"):
		return output.ErrUsage(msg)
	case strings.Contains(msg, "accepts at most") || strings.Contains(msg, "requires at least"):
		return output.ErrUsage(msg)
	}
	return err
}
