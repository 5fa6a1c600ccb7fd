package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
)

func testConfig(url string) config.SpeechConfig {
	return config.SpeechConfig{
		URL:      url,
		Key:      "k123",
		Language: "en-us",
		Codec:    "mp3",
		Quality:  "16khz_16bit_mono",
	}
}

func newTestClient(t *testing.T, cfg config.SpeechConfig, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.URL = srv.URL
	return NewClient(cfg, srv.Client(), nil)
}

func TestSynthesize(t *testing.T) {
	var form map[string]string
	c := newTestClient(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"key": r.PostForm.Get("key"),
			"hl":  r.PostForm.Get("hl"),
			"c":   r.PostForm.Get("c"),
			"f":   r.PostForm.Get("f"),
			"src": r.PostForm.Get("src"),
			"v":   r.PostForm.Get("v"),
			"r":   r.PostForm.Get("r"),
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	})

	audio, err := c.Synthesize(context.Background(), "Sunny today, highs near 90.")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFB, 0x90, 0x00}, audio)

	assert.Equal(t, "k123", form["key"])
	assert.Equal(t, "en-us", form["hl"])
	assert.Equal(t, "mp3", form["c"])
	assert.Equal(t, "16khz_16bit_mono", form["f"])
	assert.Equal(t, "Sunny today, highs near 90.", form["src"])
	// Voice and rate stay off the wire unless configured.
	assert.Empty(t, form["v"])
	assert.Empty(t, form["r"])
}

func TestSynthesizeSendsVoiceAndRate(t *testing.T) {
	cfg := testConfig("")
	cfg.Voice = "Mary"
	cfg.Rate = -2

	var voice, rate string
	c := newTestClient(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		voice = r.PostForm.Get("v")
		rate = r.PostForm.Get("r")
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0x01})
	})

	_, err := c.Synthesize(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Mary", voice)
	assert.Equal(t, "-2", rate)
}

// The service reports bad requests as a 200 whose body is the error text.
func TestSynthesizeErrorInOKBody(t *testing.T) {
	c := newTestClient(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ERROR: The API key is not available!\n"))
	})

	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	e := output.AsError(err)
	assert.Equal(t, output.CodeAPI, e.Code)
	assert.Contains(t, e.Message, "API key is not available")
}

func TestSynthesizeMissingKey(t *testing.T) {
	c := NewClient(config.SpeechConfig{URL: "http://tts.example"}, nil, nil)

	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, output.CodeConfig, output.AsError(err).Code)
	assert.Contains(t, err.Error(), "WX_SPEECH_KEY")
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := NewClient(testConfig("http://tts.example"), nil, nil)

	for _, text := range []string{"", "   \n\t"} {
		_, err := c.Synthesize(context.Background(), text)
		require.Error(t, err)
		assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	c := newTestClient(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	e := output.AsError(err)
	assert.Equal(t, output.CodeAPI, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus)
}

func TestSynthesizeRateLimited(t *testing.T) {
	c := newTestClient(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, output.CodeRateLimit, output.AsError(err).Code)
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	c := newTestClient(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
	})

	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, output.CodeAPI, output.AsError(err).Code)
}
