package commands

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteocli/wx/internal/output"
)

const stationBody = `{
  "body": {
    "devices": [
      {
        "_id": "70:ee:50:00:00:14",
        "station_name": "Rooftop",
        "module_name": "Indoor",
        "type": "NAMain",
        "dashboard_data": {"time_utc": 1756100000, "Temperature": 22.4, "Humidity": 48, "Pressure": 1013.2, "CO2": 512},
        "modules": [
          {
            "_id": "02:00:00:00:00:33",
            "module_name": "Outdoor",
            "type": "NAModule1",
            "battery_percent": 77,
            "reachable": true,
            "dashboard_data": {"time_utc": 1756100000, "Temperature": 17.9, "Humidity": 81}
          }
        ]
      }
    ]
  },
  "status": "ok"
}`

func newStationServer(t *testing.T, gotAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(stationBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStationCommand(t *testing.T) {
	var gotAuth string
	srv := newStationServer(t, &gotAuth)

	app, buf := setupTestApp(t)
	t.Setenv("WX_ACCESS_TOKEN", "env-token")
	app.HTTPClient = srv.Client()
	app.Config.Station.BaseURL = srv.URL

	err := executeCommand(NewStationCmd(), app)
	require.NoError(t, err)

	assert.Equal(t, "Bearer env-token", gotAuth)

	resp := decodeEnvelope(t, buf)
	data := resp["data"].(map[string]any)
	devices := data["devices"].([]any)
	require.Len(t, devices, 1)
	device := devices[0].(map[string]any)
	assert.Equal(t, "Rooftop", device["station_name"])
	assert.Contains(t, resp["summary"], "Rooftop")
}

func TestStationDeviceFlagOverridesConfig(t *testing.T) {
	var gotDevice string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDevice = r.URL.Query().Get("device_id")
		_, _ = w.Write([]byte(stationBody))
	}))
	defer srv.Close()

	app, _ := setupTestApp(t)
	t.Setenv("WX_ACCESS_TOKEN", "env-token")
	app.HTTPClient = srv.Client()
	app.Config.Station.BaseURL = srv.URL
	app.Config.Station.DeviceID = "aa:bb"

	err := executeCommand(NewStationCmd(), app, "--device", "cc:dd")
	require.NoError(t, err)
	assert.Equal(t, "cc:dd", gotDevice)
}

func TestStationHTMLToFile(t *testing.T) {
	srv := newStationServer(t, nil)

	app, buf := setupTestApp(t)
	t.Setenv("WX_ACCESS_TOKEN", "env-token")
	app.HTTPClient = srv.Client()
	app.Config.Station.BaseURL = srv.URL

	path := filepath.Join(t.TempDir(), "readings.html")
	err := executeCommand(NewStationCmd(), app, "--html", "-o", path)
	require.NoError(t, err)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Rooftop")
	assert.Contains(t, string(page), "22.4")
	assert.Empty(t, buf.String())
}

func TestStationTemplateWithoutHTML(t *testing.T) {
	app, _ := setupTestApp(t)

	err := executeCommand(NewStationCmd(), app, "--template", "x.tmpl")
	require.Error(t, err)

	var e *output.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, output.CodeUsage, e.Code)
}

func TestStationAuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	app, _ := setupTestApp(t)
	t.Setenv("WX_ACCESS_TOKEN", "stale-token")
	app.HTTPClient = srv.Client()
	app.Config.Station.BaseURL = srv.URL

	err := executeCommand(NewStationCmd(), app)
	require.Error(t, err)

	var e *output.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, output.CodeAuth, e.Code)
}
