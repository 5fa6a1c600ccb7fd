// Package almanac fetches astronomical day data (sunrise, sunset, twilight
// bounds) from a sunrise-sunset JSON service.
package almanac

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/trace"
	"github.com/meteocli/wx/internal/version"
)

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

// Client talks to the almanac service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *trace.Logger
}

// NewClient creates an almanac client. A nil httpClient gets a default with
// a 30 second timeout.
func NewClient(cfg config.AlmanacConfig, httpClient *http.Client, log *trace.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    config.NormalizeBaseURL(cfg.BaseURL),
		httpClient: httpClient,
		log:        log,
	}
}

// Params select the location and day to query.
type Params struct {
	Latitude  float64
	Longitude float64
	Date      string // YYYY-MM-DD; empty means today
	Timezone  string // IANA name; empty means UTC
}

// Day holds one day's astronomical data. Timestamps stay in the provider's
// ISO 8601 form; DayLength is seconds.
type Day struct {
	Sunrise                   string `json:"sunrise"`
	Sunset                    string `json:"sunset"`
	SolarNoon                 string `json:"solar_noon"`
	DayLength                 int64  `json:"day_length"`
	CivilTwilightBegin        string `json:"civil_twilight_begin"`
	CivilTwilightEnd          string `json:"civil_twilight_end"`
	NauticalTwilightBegin     string `json:"nautical_twilight_begin"`
	NauticalTwilightEnd       string `json:"nautical_twilight_end"`
	AstronomicalTwilightBegin string `json:"astronomical_twilight_begin"`
	AstronomicalTwilightEnd   string `json:"astronomical_twilight_end"`
}

// envelope is the service's response document. Results stays raw until the
// status check passes: error responses carry an empty string there, not an
// object.
type envelope struct {
	Results json.RawMessage `json:"results"`
	Status  string          `json:"status"`
}

// Get fetches the almanac for the given location and date.
func (c *Client) Get(ctx context.Context, p Params) (*Day, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	q.Set("formatted", "0")
	if p.Date != "" {
		q.Set("date", p.Date)
	}
	if p.Timezone != "" {
		q.Set("tzid", p.Timezone)
	}

	reqURL := c.baseURL + "/json?" + q.Encode()
	c.log.Operationf("Fetching almanac for %.4f,%.4f", p.Latitude, p.Longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
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

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, output.ErrRateLimit(0)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("almanac request failed (HTTP %d)", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("cannot decode almanac response: %v", err))
	}
	// The service reports its own errors (bad date, bad tzid) inside a 200.
	if !strings.EqualFold(env.Status, "OK") {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("almanac service returned %q", env.Status))
	}

	var day Day
	if err := json.Unmarshal(env.Results, &day); err != nil {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("cannot decode almanac results: %v", err))
	}
	return &day, nil
}

// Summary renders a one-line human description, falling back to the raw
// provider strings when they don't parse.
func (d *Day) Summary() string {
	sunrise := clockTime(d.Sunrise)
	sunset := clockTime(d.Sunset)
	length := time.Duration(d.DayLength) * time.Second
	return fmt.Sprintf("Sunrise %s, sunset %s, day length %s", sunrise, sunset, formatDayLength(length))
}

func clockTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("15:04")
}

func formatDayLength(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}
