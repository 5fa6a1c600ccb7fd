package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meteocli/wx/internal/almanac"
	"github.com/meteocli/wx/internal/dateparse"
	"github.com/meteocli/wx/internal/output"
)

// dateFlag is a pflag.Value that resolves relaxed date forms (today,
// tomorrow, +N, friday, 2026-08-25) to YYYY-MM-DD at parse time, so a bad
// date fails before any network call.
type dateFlag struct {
	value string
}

var _ pflag.Value = (*dateFlag)(nil)

func (d *dateFlag) String() string { return d.value }
func (d *dateFlag) Type() string   { return "date" }

func (d *dateFlag) Set(s string) error {
	resolved, err := dateparse.Parse(s)
	if err != nil {
		return err
	}
	d.value = resolved
	return nil
}

// NewAlmanacCmd creates the almanac command.
func NewAlmanacCmd() *cobra.Command {
	var date dateFlag
	var lat, lon float64
	var tz string

	cmd := &cobra.Command{
		Use:   "almanac",
		Short: "Show sunrise, sunset, and twilight times",
		Long: `Fetch the astronomical almanac for a location and day.

Location defaults come from the config file; flags override them.
The date accepts today, tomorrow, yesterday, +N/-N days, weekday
names, or YYYY-MM-DD.

Examples:
  wx almanac
  wx almanac --date tomorrow
  wx almanac --date friday --lat 46.81 --lon -71.21 --tz America/Toronto
  wx almanac --jq .data.sunrise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			p := almanac.Params{
				Latitude:  app.Config.Almanac.Latitude,
				Longitude: app.Config.Almanac.Longitude,
				Timezone:  app.Config.Almanac.Timezone,
				Date:      date.value,
			}
			if cmd.Flags().Changed("lat") {
				p.Latitude = lat
			}
			if cmd.Flags().Changed("lon") {
				p.Longitude = lon
			}
			if cmd.Flags().Changed("tz") {
				p.Timezone = tz
			}

			if p.Latitude < -90 || p.Latitude > 90 {
				return output.ErrUsage("latitude must be between -90 and 90")
			}
			if p.Longitude < -180 || p.Longitude > 180 {
				return output.ErrUsage("longitude must be between -180 and 180")
			}

			client := almanac.NewClient(app.Config.Almanac, app.HTTPClient, app.Log)
			day, err := client.Get(cmd.Context(), p)
			if err != nil {
				return err
			}

			opts := []output.ResponseOption{output.WithSummary(day.Summary())}
			if p.Date != "" {
				opts = append(opts, output.WithMeta("date", p.Date))
			}
			return app.Output.OK(day, opts...)
		},
	}

	cmd.Flags().Var(&date, "date", "Day to query (today, tomorrow, +N, weekday, YYYY-MM-DD)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone for returned times (default UTC)")

	_ = cmd.RegisterFlagCompletionFunc("date", dateCompletions)

	return cmd
}
