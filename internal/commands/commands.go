// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/appctx"
)

// appFrom pulls the shared app out of the command context.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// writeOutput writes rendered text to path, or to stdout when path is "-"
// or empty.
func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(os.Stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}
