package almanac

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteocli/wx/internal/config"
	"github.com/meteocli/wx/internal/output"
)

const fixture = `{
  "results": {
    "sunrise": "2026-08-25T04:48:07+00:00",
    "sunset": "2026-08-25T18:17:13+00:00",
    "solar_noon": "2026-08-25T11:32:40+00:00",
    "day_length": 48546,
    "civil_twilight_begin": "2026-08-25T04:08:21+00:00",
    "civil_twilight_end": "2026-08-25T18:56:59+00:00",
    "nautical_twilight_begin": "2026-08-25T03:18:11+00:00",
    "nautical_twilight_end": "2026-08-25T19:47:09+00:00",
    "astronomical_twilight_begin": "2026-08-25T02:14:31+00:00",
    "astronomical_twilight_end": "2026-08-25T20:50:49+00:00"
  },
  "status": "OK"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AlmanacConfig{BaseURL: srv.URL}, srv.Client(), nil)
}

func TestGet(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"lat":       q.Get("lat"),
			"lng":       q.Get("lng"),
			"date":      q.Get("date"),
			"tzid":      q.Get("tzid"),
			"formatted": q.Get("formatted"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, fixture)
	})

	day, err := c.Get(context.Background(), Params{
		Latitude:  59.9127,
		Longitude: 10.7461,
		Date:      "2026-08-25",
		Timezone:  "Europe/Oslo",
	})
	require.NoError(t, err)

	assert.Equal(t, "59.9127", gotQuery["lat"])
	assert.Equal(t, "10.7461", gotQuery["lng"])
	assert.Equal(t, "2026-08-25", gotQuery["date"])
	assert.Equal(t, "Europe/Oslo", gotQuery["tzid"])
	assert.Equal(t, "0", gotQuery["formatted"], "unformatted mode for machine-readable timestamps")

	assert.Equal(t, "2026-08-25T04:48:07+00:00", day.Sunrise)
	assert.Equal(t, "2026-08-25T18:17:13+00:00", day.Sunset)
	assert.Equal(t, int64(48546), day.DayLength)
}

func TestGetOmitsEmptyParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		_, hasDate := q["date"]
		_, hasTzid := q["tzid"]
		assert.False(t, hasDate, "empty date must not be sent")
		assert.False(t, hasTzid, "empty tzid must not be sent")
		fmt.Fprint(w, fixture)
	})

	_, err := c.Get(context.Background(), Params{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
}

func TestGetServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":"","status":"INVALID_DATE"}`)
	})

	_, err := c.Get(context.Background(), Params{Latitude: 1, Longitude: 2, Date: "never"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_DATE")
	assert.Equal(t, output.CodeAPI, output.AsError(err).Code)
}

func TestGetHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := c.Get(context.Background(), Params{})
	require.Error(t, err)

	oe := output.AsError(err)
	assert.Equal(t, output.CodeAPI, oe.Code)
	assert.Equal(t, http.StatusBadGateway, oe.HTTPStatus)
}

func TestGetRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), Params{})
	require.Error(t, err)
	assert.Equal(t, output.CodeRateLimit, output.AsError(err).Code)
}

func TestGetUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>surprise</html>")
	})

	_, err := c.Get(context.Background(), Params{})
	require.Error(t, err)
	assert.Equal(t, output.CodeAPI, output.AsError(err).Code)
}

func TestDaySummary(t *testing.T) {
	day := &Day{
		Sunrise:   "2026-08-25T04:48:07+00:00",
		Sunset:    "2026-08-25T18:17:13+00:00",
		DayLength: 48546,
	}
	assert.Equal(t, "Sunrise 04:48, sunset 18:17, day length 13h29m", day.Summary())
}

func TestDaySummaryUnparseableFallsBack(t *testing.T) {
	day := &Day{Sunrise: "dawn", Sunset: "dusk"}
	assert.Contains(t, day.Summary(), "dawn")
	assert.Contains(t, day.Summary(), "dusk")
}
