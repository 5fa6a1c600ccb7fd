package station

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteocli/wx/internal/output"
)

func sampleData() *Data {
	temp := 21.7
	outTemp := 17.2
	hum := 55
	outHum := 68
	co2 := 492
	press := 1015.1
	rain24 := 4.8
	batt := 73
	return &Data{Devices: []Device{{
		ID:          "70:ee:50:00:00:14",
		StationName: "Attic",
		ModuleName:  "Indoor",
		Dashboard: &Dashboard{
			TimeUTC:     1756100000,
			Temperature: &temp,
			Humidity:    &hum,
			CO2:         &co2,
			Pressure:    &press,
		},
		Modules: []Module{
			{
				Name:           "Garden",
				Type:           "NAModule1",
				BatteryPercent: &batt,
				Dashboard:      &Dashboard{TimeUTC: 1756099970, Temperature: &outTemp, Humidity: &outHum},
			},
			{
				Name:      "Roof",
				Type:      "NAModule3",
				Dashboard: &Dashboard{TimeUTC: 1756099970, SumRain24h: &rain24},
			},
		},
	}}}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleData(), ""))

	html := buf.String()
	assert.Contains(t, html, "<title>Attic - station readings</title>")
	assert.Contains(t, html, "Garden")
	assert.Contains(t, html, "21.7 °C")
	assert.Contains(t, html, "17.2 °C")
	assert.Contains(t, html, "68 %")
	assert.Contains(t, html, "492 ppm")
	assert.Contains(t, html, "1015.1 hPa")
	assert.Contains(t, html, "4.8 mm")
	assert.Contains(t, html, "Battery 73 %")
}

func TestRenderHTMLEscapesNames(t *testing.T) {
	data := sampleData()
	data.Devices[0].StationName = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, data, ""))
	assert.NotContains(t, buf.String(), "<script>alert")
}

func TestRenderHTMLModuleWithoutReadings(t *testing.T) {
	data := sampleData()
	data.Devices[0].Modules[1].Dashboard = nil

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, data, ""))
	assert.Contains(t, buf.String(), "No readings reported.")
}

func TestRenderHTMLCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{range .Devices}}{{.StationName}}{{end}}`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleData(), path))
	assert.Equal(t, "Attic", buf.String())
}

func TestRenderHTMLMissingTemplate(t *testing.T) {
	err := RenderHTML(&bytes.Buffer{}, sampleData(), "/nonexistent.tmpl")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestRenderHTMLInvalidTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{range`), 0o644))

	err := RenderHTML(&bytes.Buffer{}, sampleData(), path)
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}
