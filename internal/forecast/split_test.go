package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zoneFeed = `FLZ063-252115-
Okeechobee-
Including the city of Okeechobee
442 AM EDT Mon Aug 25 2026

.TODAY...Sunny early, then scattered showers. Highs in the
lower 90s. East winds 5 to 10 mph.
.TONIGHT...Partly cloudy. Lows around 70.
.TUESDAY...Mostly sunny. Highs in the lower 90s.

&&

SYNOPSIS

High pressure builds over the region through midweek.

$$
`

func TestSplitDotHeaders(t *testing.T) {
	doc := Split(zoneFeed)

	assert.Equal(t, "FLZ063-252115-\nOkeechobee-\nIncluding the city of Okeechobee\n442 AM EDT Mon Aug 25 2026", doc.Preamble)
	require.Len(t, doc.Sections, 4)

	assert.Equal(t, []string{"TODAY", "TONIGHT", "TUESDAY", "SYNOPSIS"}, doc.Titles())
	assert.Equal(t, "Sunny early, then scattered showers. Highs in the\nlower 90s. East winds 5 to 10 mph.", doc.Sections[0].Body)
	assert.Equal(t, "Partly cloudy. Lows around 70.", doc.Sections[1].Body)
	assert.Equal(t, "High pressure builds over the region through midweek.", doc.Sections[3].Body)
}

func TestSplitUnderlinedHeading(t *testing.T) {
	doc := Split("EXTENDED FORECAST\n-----------------\nWednesday through Friday: dry.\n")

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "EXTENDED FORECAST", doc.Sections[0].Title)
	assert.Equal(t, "Wednesday through Friday: dry.", doc.Sections[0].Body)
	assert.Empty(t, doc.Preamble)
}

func TestSplitEmptyFeed(t *testing.T) {
	doc := Split("")

	assert.Empty(t, doc.Preamble)
	assert.Empty(t, doc.Sections)
}

func TestSplitNoHeadersIsAllPreamble(t *testing.T) {
	text := "Marine conditions remain favorable.\nSeas 2 to 3 feet."
	doc := Split(text)

	assert.Equal(t, text, doc.Preamble)
	assert.Empty(t, doc.Sections)
}

func TestSplitNormalizesCRLF(t *testing.T) {
	doc := Split(".TODAY...Sunny.\r\nHighs near 90.\r\n$$\r\n")

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Sunny.\nHighs near 90.", doc.Sections[0].Body)
}

func TestSplitBareDotHeaderHasEmptyBodyStart(t *testing.T) {
	doc := Split(".OUTLOOK...\nDry weather expected.\n$$\n")

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "OUTLOOK", doc.Sections[0].Title)
	assert.Equal(t, "Dry weather expected.", doc.Sections[0].Body)
}

// Headline rows like "...HEAT ADVISORY IN EFFECT..." are body text in the
// dot-header convention, not section starts.
func TestSplitKeepsHeadlineRowsInBody(t *testing.T) {
	doc := Split("...HEAT ADVISORY IN EFFECT UNTIL 7 PM EDT...\n\n.TODAY...Hot.\n$$\n")

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "TODAY", doc.Sections[0].Title)
	assert.Equal(t, "...HEAT ADVISORY IN EFFECT UNTIL 7 PM EDT...", doc.Preamble)
}

func TestIsStandaloneHeading(t *testing.T) {
	tests := []struct {
		name string
		line string
		next string
		want bool
	}{
		{"capitals before blank", "SYNOPSIS", "", true},
		{"capitals before underline", "EXTENDED FORECAST", "---", true},
		{"multi word", "DAY ONE OUTLOOK", "", true},
		{"mixed case", "Synopsis", "", false},
		{"followed by text", "SYNOPSIS", "High pressure builds.", false},
		{"issuance timestamp", "442 AM EDT MON AUG 25 2026", "", false},
		{"zone code row", "FLZ063-252115-", "", false},
		{"headline ellipsis", "...HEAT ADVISORY...", "", false},
		{"single letter", "A", "", false},
		{"too long", "THIS HEADING RUNS ON AND ON WELL PAST ANY SANE WIDTH", "", false},
		{"stray punctuation", "WHAT?", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStandaloneHeading(tt.line, tt.next))
		})
	}
}

func TestFind(t *testing.T) {
	doc := Split(zoneFeed)

	require.NotNil(t, doc.Find("tonight"))
	assert.Equal(t, "TONIGHT", doc.Find("tonight").Title)

	// Prefix match picks the first section in document order.
	require.NotNil(t, doc.Find("tue"))
	assert.Equal(t, "TUESDAY", doc.Find("tue").Title)

	// Exact match wins over an earlier prefix match.
	d2 := Split(".TODAY EXTRA...One.\n.TODAY...Two.\n$$\n")
	require.NotNil(t, d2.Find("today"))
	assert.Equal(t, "TODAY", d2.Find("today").Title)

	assert.Nil(t, doc.Find("nope"))
	assert.Nil(t, doc.Find(""))
}
