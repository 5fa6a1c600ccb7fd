package commands

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/station"
)

// NewStationCmd creates the station command.
func NewStationCmd() *cobra.Command {
	var deviceID, outPath, templatePath string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "station",
		Short: "Show current weather station readings",
		Long: `Fetch readings from the personal weather station API.

Requires authentication; run "wx auth login" first. The device defaults
to station.device_id from the config file; when empty the API returns
every station the account can see.

Examples:
  wx station
  wx station --jq '.data.devices[0].dashboard_data.Temperature'
  wx station --html -o readings.html
  wx station --html --template my.tmpl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if templatePath != "" && !asHTML {
				return output.ErrUsage("--template only makes sense with --html")
			}

			id := app.Config.Station.DeviceID
			if cmd.Flags().Changed("device") {
				id = deviceID
			}

			client := station.NewClient(app.Config.Station, app.Auth, app.HTTPClient, app.Log)
			data, err := client.GetStationData(cmd.Context(), id)
			if err != nil {
				return err
			}

			if asHTML {
				var buf bytes.Buffer
				if err := station.RenderHTML(&buf, data, templatePath); err != nil {
					return err
				}
				return writeOutput(outPath, buf.String())
			}

			return app.Output.OK(data, output.WithSummary(data.Summary()))
		},
	}

	cmd.Flags().StringVar(&deviceID, "device", "", "Station device ID (MAC) to query")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render a standalone HTML page")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().StringVar(&templatePath, "template", "", "Override the built-in HTML template")

	return cmd
}
