// Package forecast fetches a plain-text zone forecast feed and splits it
// into titled sections. Government feeds commonly arrive as Latin-1 bytes,
// so the fetch path decodes to UTF-8 before any splitting happens.
package forecast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/trace"
	"github.com/meteocli/wx/internal/version"
)

// maxBody bounds how much of a feed is read.
const maxBody = 2 << 20

// Client fetches the forecast feed.
type Client struct {
	cfg        config.ForecastConfig
	httpClient *http.Client
	log        *trace.Logger
}

// NewClient creates a forecast client.
func NewClient(cfg config.ForecastConfig, httpClient *http.Client, log *trace.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

// Fetch retrieves the feed and returns its text decoded to UTF-8.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	if c.cfg.URL == "" {
		return "", output.ErrConfigHint("no forecast feed configured",
			"Set forecast.url in the config file or WX_FORECAST_URL")
	}

	dec, err := decoderFor(c.cfg.Charset)
	if err != nil {
		return "", output.ErrConfig(err.Error())
	}

	c.log.Operationf("Fetching forecast feed")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", output.ErrAPI(resp.StatusCode, fmt.Sprintf("forecast feed returned HTTP %d", resp.StatusCode))
	}

	var r io.Reader = io.LimitReader(resp.Body, maxBody)
	if dec != nil {
		r = transform.NewReader(r, dec)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", output.ErrNetwork(err)
	}
	return string(body), nil
}

// decoderFor maps a configured charset name to a byte decoder. UTF-8 input
// needs none.
func decoderFor(charset string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported forecast charset %q", charset)
	}
}
