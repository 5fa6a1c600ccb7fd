package station

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/meteocli/wx/internal/output"
)

//go:embed station.html.tmpl
var defaultTemplate string

// templateFuncs are the helpers available to the readings template.
var templateFuncs = template.FuncMap{
	"ts": func(unix int64) string {
		if unix == 0 {
			return "n/a"
		}
		return time.Unix(unix, 0).Format("2006-01-02 15:04")
	},
	"deg": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f °C", *v)
	},
	"pct": func(v *int) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%d %%", *v)
	},
	"hpa": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f hPa", *v)
	},
	"ppm": func(v *int) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%d ppm", *v)
	},
	"mm": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f mm", *v)
	},
	"kmh": func(v *int) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%d km/h", *v)
	},
}

// RenderHTML writes the readings as a standalone HTML page. A non-empty
// templatePath overrides the embedded template.
func RenderHTML(w io.Writer, data *Data, templatePath string) error {
	text := defaultTemplate
	if templatePath != "" {
		raw, err := os.ReadFile(templatePath) //nolint:gosec // G304: user-supplied template path
		if err != nil {
			return output.ErrUsageHint(
				fmt.Sprintf("cannot read template %s: %v", templatePath, err),
				"Pass --template with a readable file or omit it for the built-in page")
		}
		text = string(raw)
	}

	tmpl, err := template.New("station").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return output.ErrUsage(fmt.Sprintf("invalid station template: %v", err))
	}

	page := struct {
		*Data
		Generated time.Time
	}{Data: data, Generated: time.Now()}

	return tmpl.Execute(w, page)
}
