package forecast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteocli/wx/internal/output"
)

func TestResolveZoneCode(t *testing.T) {
	tests := []struct {
		in       string
		wantURL  string
		wantCode string
	}{
		{"FLZ063", "https://tgftp.nws.noaa.gov/data/forecasts/zone/fl/flz063.txt", "FLZ063"},
		{"flz063", "https://tgftp.nws.noaa.gov/data/forecasts/zone/fl/flz063.txt", "FLZ063"},
		{"gAz001", "https://tgftp.nws.noaa.gov/data/forecasts/zone/ga/gaz001.txt", "GAZ001"},
		{" miz014 ", "https://tgftp.nws.noaa.gov/data/forecasts/zone/mi/miz014.txt", "MIZ014"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			gotURL, gotCode, err := ResolveZone(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, gotURL)
			assert.Equal(t, tt.wantCode, gotCode)
		})
	}
}

func TestResolveZonePastedURL(t *testing.T) {
	in := "https://tgftp.nws.noaa.gov/data/forecasts/zone/ga/gaz001.txt"

	gotURL, gotCode, err := ResolveZone(in)
	require.NoError(t, err)
	assert.Equal(t, in, gotURL)
	assert.Equal(t, "GAZ001", gotCode)
}

func TestResolveZoneURLWithoutZoneFilename(t *testing.T) {
	in := "https://example.com/feeds/coastal.txt"

	gotURL, gotCode, err := ResolveZone(in)
	require.NoError(t, err)
	assert.Equal(t, in, gotURL)
	assert.Empty(t, gotCode)
}

func TestResolveZoneRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "FL", "FLZ63", "FLZ0634", "063FLZ", "FL-063"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := ResolveZone(in)
			require.Error(t, err)

			var e *output.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, output.CodeUsage, e.Code)
		})
	}
}
