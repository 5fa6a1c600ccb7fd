// Package station fetches readings from a personal weather station API.
// Requests carry a bearer token minted by the credential lifecycle manager;
// a token the API still rejects after that is an authentication failure,
// not something this client retries.
package station

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/trace"
	"github.com/meteocli/wx/internal/version"
)

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// TokenSource supplies a current access token. *auth.Manager satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the station API.
type Client struct {
	cfg        config.StationConfig
	tokens     TokenSource
	httpClient *http.Client
	log        *trace.Logger
}

// NewClient creates a station client.
func NewClient(cfg config.StationConfig, tokens TokenSource, httpClient *http.Client, log *trace.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: httpClient,
		log:        log,
	}
}

// Dashboard holds one measurement snapshot. Field presence depends on the
// module type: an outdoor module reports temperature and humidity, a rain
// gauge rain sums, an anemometer wind. Pointers distinguish "not measured"
// from zero.
type Dashboard struct {
	TimeUTC      int64    `json:"time_utc"`
	Temperature  *float64 `json:"Temperature,omitempty"`
	Humidity     *int     `json:"Humidity,omitempty"`
	Pressure     *float64 `json:"Pressure,omitempty"`
	CO2          *int     `json:"CO2,omitempty"`
	Noise        *int     `json:"Noise,omitempty"`
	Rain         *float64 `json:"Rain,omitempty"`
	SumRain1h    *float64 `json:"sum_rain_1,omitempty"`
	SumRain24h   *float64 `json:"sum_rain_24,omitempty"`
	WindStrength *int     `json:"WindStrength,omitempty"`
	WindAngle    *int     `json:"WindAngle,omitempty"`
	GustStrength *int     `json:"GustStrength,omitempty"`
	GustAngle    *int     `json:"GustAngle,omitempty"`
	MinTemp      *float64 `json:"min_temp,omitempty"`
	MaxTemp      *float64 `json:"max_temp,omitempty"`
}

// Module is an attached sensor unit.
type Module struct {
	ID             string     `json:"_id"`
	Name           string     `json:"module_name"`
	Type           string     `json:"type"`
	BatteryPercent *int       `json:"battery_percent,omitempty"`
	Reachable      *bool      `json:"reachable,omitempty"`
	Dashboard      *Dashboard `json:"dashboard_data,omitempty"`
}

// Device is the base station with its own sensors and attached modules.
type Device struct {
	ID          string     `json:"_id"`
	StationName string     `json:"station_name"`
	ModuleName  string     `json:"module_name"`
	Type        string     `json:"type"`
	Dashboard   *Dashboard `json:"dashboard_data,omitempty"`
	Modules     []Module   `json:"modules"`
}

// Data is the decoded station readings document.
type Data struct {
	Devices []Device `json:"devices"`
}

// stationEnvelope is the API's response wrapper.
type stationEnvelope struct {
	Body   Data   `json:"body"`
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetStationData fetches readings for the configured device. An empty
// deviceID asks the API for every station the account can see.
func (c *Client) GetStationData(ctx context.Context, deviceID string) (*Data, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	reqURL := c.cfg.BaseURL + "/api/getstationsdata"
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	c.log.Operationf("Fetching station data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, output.ErrNetwork(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The lifecycle manager already did its one refresh-or-reauthorize
		// cycle for this run. A rejection here is terminal.
		return nil, output.ErrAuth("station API rejected the access token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, output.ErrRateLimit(0)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var env stationEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil && env.Error.Message != "" {
			return nil, output.ErrAPI(resp.StatusCode, env.Error.Message)
		}
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("station request failed (HTTP %d)", resp.StatusCode))
	}

	var env stationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("cannot decode station response: %v", err))
	}
	if len(env.Body.Devices) == 0 {
		return nil, output.ErrAPI(resp.StatusCode, "station response contains no devices")
	}
	return &env.Body, nil
}

// Summary renders a one-line description of the first device's readings.
func (d *Data) Summary() string {
	if len(d.Devices) == 0 {
		return "No station data"
	}
	dev := d.Devices[0]
	s := dev.StationName
	if s == "" {
		s = dev.ID
	}
	if dev.Dashboard != nil && dev.Dashboard.Temperature != nil {
		s += fmt.Sprintf(": %.1f°C", *dev.Dashboard.Temperature)
	}
	if n := len(dev.Modules); n == 1 {
		s += " (1 module)"
	} else if n > 1 {
		s += fmt.Sprintf(" (%d modules)", n)
	}
	return s
}
