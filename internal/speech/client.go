// Package speech turns text into an audio file through an HTTP
// text-to-speech service.
package speech

import (
	"context"
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

// maxAudio bounds how much audio is read from a single response.
const maxAudio = 32 << 20

// Client talks to the text-to-speech service.
type Client struct {
	cfg        config.SpeechConfig
	httpClient *http.Client
	log        *trace.Logger
}

// NewClient creates a speech client.
func NewClient(cfg config.SpeechConfig, httpClient *http.Client, log *trace.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

// Synthesize converts text to audio bytes.
//
// The service reports failures two ways: a non-2xx status, or a 200 whose
// body is a text/plain error message instead of audio. Both become api
// errors carrying the server's message.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.cfg.Key == "" {
		return nil, output.ErrConfigHint("no speech API key configured",
			"Set speech.key in the config file or WX_SPEECH_KEY")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, output.ErrUsage("no text to speak")
	}

	form := url.Values{}
	form.Set("key", c.cfg.Key)
	form.Set("hl", c.cfg.Language)
	form.Set("c", c.cfg.Codec)
	form.Set("f", c.cfg.Quality)
	form.Set("src", text)
	if c.cfg.Voice != "" {
		form.Set("v", c.cfg.Voice)
	}
	if c.cfg.Rate != 0 {
		form.Set("r", strconv.Itoa(c.cfg.Rate))
	}

	c.log.Operationf("Synthesizing %d characters of speech", len(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAudio))
	if err != nil {
		return nil, output.ErrNetwork(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, output.ErrRateLimit(0)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, output.ErrAPI(resp.StatusCode, fmt.Sprintf("speech request failed (HTTP %d)", resp.StatusCode))
	}

	// Error-in-200: the body is a message, not audio.
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/") {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "speech service returned no audio"
		}
		return nil, output.ErrAPI(resp.StatusCode, msg)
	}
	if len(body) == 0 {
		return nil, output.ErrAPI(resp.StatusCode, "speech service returned an empty body")
	}
	return body, nil
}
