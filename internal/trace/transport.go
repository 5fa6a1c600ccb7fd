package trace

import (
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that traces every request and response
// at verbosity level 2. With a nil Log it is pass-through.
type Transport struct {
	Base http.RoundTripper
	Log  *Logger
}

// NewTransport wraps base with request tracing. A nil base means
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, log *Logger) *Transport {
	return &Transport{Base: base, Log: log}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	t.Log.Request(req.Method, req.URL.String())

	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Log.RequestError(err)
		return nil, err
	}

	t.Log.Response(resp.StatusCode, time.Since(start))
	return resp, nil
}
