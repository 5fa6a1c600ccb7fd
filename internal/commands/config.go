package commands

import (
	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long: `Print the configuration after layering defaults, the config file,
WX_* environment variables, and flags. Secrets are masked. The sources
map records which layer set each value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			cfg := app.Config
			data := map[string]any{
				"config":  cfg.Redacted(),
				"sources": cfg.Sources,
			}

			summary := "Using built-in defaults (no config file)"
			if cfg.Path != "" {
				summary = "Loaded " + cfg.Path
			}
			return app.Output.OK(data, output.WithSummary(summary))
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			path := app.Flags.ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}

			if err := config.InitFile(path); err != nil {
				return err
			}

			return app.Output.OK(map[string]string{
				"path": path,
			}, output.WithSummary("Wrote "+path))
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			path := app.Config.Path
			if path == "" {
				path = config.DefaultPath()
			}
			return app.Output.Plain(path)
		},
	}
}
