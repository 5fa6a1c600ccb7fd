package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/forecast"
	"github.com/meteocli/wx/internal/output"
)

// NewForecastCmd creates the forecast command.
func NewForecastCmd() *cobra.Command {
	var section, outPath string
	var asPlain, asHTML bool

	cmd := &cobra.Command{
		Use:   "forecast [zone]",
		Short: "Show the zone text forecast",
		Long: `Fetch the zone forecast feed, split it into sections, and render it.

The zone argument overrides the configured feed: a zone code like
FLZ063 resolves against the standard feed tree, and a full feed URL
pasted from the browser works too.

On a terminal sections come out styled; with --json the document is a
sections array; --plain keeps the original text layout. --section
selects one section by name, matching case-insensitively on a prefix
("tue" finds TUESDAY).

Examples:
  wx forecast
  wx forecast flz063
  wx forecast --section tonight
  wx forecast --json --jq '.data.sections[].title'
  wx forecast --html -o forecast.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			fcfg := app.Config.Forecast
			switch {
			case len(args) == 1:
				feedURL, code, err := forecast.ResolveZone(args[0])
				if err != nil {
					return err
				}
				fcfg.URL = feedURL
				if code != "" {
					fcfg.Zone = code
				}
			case fcfg.URL == "" && fcfg.Zone != "":
				// A configured zone works like the argument form.
				feedURL, code, err := forecast.ResolveZone(fcfg.Zone)
				if err != nil {
					return err
				}
				fcfg.URL = feedURL
				if code != "" {
					fcfg.Zone = code
				}
			}

			client := forecast.NewClient(fcfg, app.HTTPClient, app.Log)
			text, err := client.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			doc := forecast.Split(text)

			if section != "" {
				sec := doc.Find(section)
				if sec == nil {
					titles := doc.Titles()
					if len(titles) == 0 {
						return output.ErrUsage(fmt.Sprintf("no section matching %q (feed has no sections)", section))
					}
					return output.ErrUsageHint(
						fmt.Sprintf("no section matching %q", section),
						"Sections: "+strings.Join(titles, ", "))
				}
				doc = &forecast.Document{Sections: []forecast.Section{*sec}}
			}

			title := forecastTitle(fcfg.Zone)

			switch {
			case asHTML:
				page, err := forecast.HTML(doc, title)
				if err != nil {
					return err
				}
				return writeOutput(outPath, page)
			case asPlain:
				return app.Output.Plain(forecast.Plain(doc))
			}

			switch app.Output.Resolved() {
			case output.FormatStyled:
				rendered, err := output.RenderMarkdown(forecast.Markdown(doc, title))
				if err != nil {
					// Styled rendering is cosmetic; fall back to the raw text.
					return app.Output.Plain(forecast.Plain(doc))
				}
				return app.Output.Plain(rendered)
			case output.FormatJSON, output.FormatQuiet:
				return app.Output.OK(doc, output.WithSummary(title))
			default:
				return app.Output.Plain(forecast.Plain(doc))
			}
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "Show only the named section (prefix match)")
	cmd.Flags().BoolVar(&asPlain, "plain", false, "Print the feed text without styling")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render a standalone HTML page")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write HTML to this file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("section", sectionCompletions)

	return cmd
}

func forecastTitle(zone string) string {
	if zone == "" {
		return "Zone Forecast"
	}
	return "Zone Forecast (" + zone + ")"
}
