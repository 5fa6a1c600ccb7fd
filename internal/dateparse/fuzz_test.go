package dateparse

import (
	"regexp"
	"testing"
	"time"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FuzzParseFrom checks two properties over arbitrary input: ParseFrom never
// panics, and a nil error always comes with a YYYY-MM-DD result.
func FuzzParseFrom(f *testing.F) {
	seeds := []string{
		"today", "tomorrow", "yesterday",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"next monday", "last friday",
		"next week", "last week", "next month", "last month",
		"eow", "end of week", "eom", "end of month",
		"+1", "+7", "+365", "-1", "-30", "+0", "+-1", "+99999999", "-99999999",
		"in 1 day", "in 3 days", "in 2 weeks",
		"1 day ago", "3 days ago", "2 weeks ago",
		"2024-01-15", "2024-02-29", "2024-13-45",
		"", " ", "invalid", "next year",
		"MONDAY", "Tomorrow",
		"+", "in days", "ago", "last",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	ref := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)

	f.Fuzz(func(t *testing.T, input string) {
		result, err := ParseFrom(input, ref)
		if err == nil && !isoDate.MatchString(result) {
			t.Errorf("ParseFrom(%q) = %q without error, want YYYY-MM-DD", input, result)
		}
	})
}
