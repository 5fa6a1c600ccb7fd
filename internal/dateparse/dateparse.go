// Package dateparse resolves relative date expressions to calendar dates.
//
// Almanac queries reach both directions: "yesterday", "-3" and "2 days ago"
// look back, while "tomorrow", "+3" and "next friday" look ahead.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse resolves input to a YYYY-MM-DD date relative to the current time.
//
// Supported forms:
//   - today, tomorrow, yesterday
//   - +N, -N (days from today)
//   - in N days, in N weeks / N days ago, N weeks ago
//   - monday..sunday (nearest future occurrence; same day means next week)
//   - next <weekday> (the occurrence after this week's)
//   - last <weekday> (nearest past occurrence; same day means last week)
//   - next week, next month, last week, last month
//   - eow (Friday of this week), eom (last day of this month)
//   - YYYY-MM-DD (validated passthrough)
func Parse(input string) (string, error) {
	return ParseFrom(input, time.Now())
}

// ParseFrom resolves input relative to a reference time.
func ParseFrom(input string, now time.Time) (string, error) {
	in := strings.ToLower(strings.TrimSpace(input))

	switch in {
	case "today":
		return formatDate(now), nil
	case "tomorrow":
		return formatDate(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return formatDate(now.AddDate(0, 0, -1)), nil
	case "next week", "nextweek":
		return formatDate(now.AddDate(0, 0, 7)), nil
	case "last week", "lastweek":
		return formatDate(now.AddDate(0, 0, -7)), nil
	case "next month", "nextmonth":
		return formatDate(now.AddDate(0, 1, 0)), nil
	case "last month", "lastmonth":
		return formatDate(now.AddDate(0, -1, 0)), nil
	case "end of week", "eow":
		return formatDate(weekdayAfter(now, time.Friday, false)), nil
	case "end of month", "eom":
		return formatDate(endOfMonth(now)), nil
	}

	if day, ok := parseWeekday(in); ok {
		if strings.HasPrefix(in, "last ") {
			return formatDate(weekdayBefore(now, day)), nil
		}
		return formatDate(weekdayAfter(now, day, strings.HasPrefix(in, "next "))), nil
	}

	// Signed day offsets: +3, -3.
	if len(in) > 1 && (in[0] == '+' || in[0] == '-') {
		if days, err := strconv.Atoi(in); err == nil {
			if days < -maxSpanDays || days > maxSpanDays {
				return "", fmt.Errorf("date offset %q out of range", input)
			}
			return formatDate(now.AddDate(0, 0, days)), nil
		}
	}

	if m := inPattern.FindStringSubmatch(in); m != nil {
		days, ok := spanDays(m)
		if !ok {
			return "", fmt.Errorf("date span %q out of range", input)
		}
		return formatDate(now.AddDate(0, 0, days)), nil
	}
	if m := agoPattern.FindStringSubmatch(in); m != nil {
		days, ok := spanDays(m)
		if !ok {
			return "", fmt.Errorf("date span %q out of range", input)
		}
		return formatDate(now.AddDate(0, 0, -days)), nil
	}

	// Calendar date passthrough, validated so 2024-13-45 cannot sneak
	// through to the service.
	if t, err := time.Parse("2006-01-02", in); err == nil {
		return formatDate(t), nil
	}

	return "", fmt.Errorf("unrecognized date %q", input)
}

var (
	inPattern  = regexp.MustCompile(`^in (\d+) (days?|weeks?)$`)
	agoPattern = regexp.MustCompile(`^(\d+) (days?|weeks?) ago$`)
)

// maxSpanDays bounds relative offsets to a century in either direction,
// which keeps every result inside the four-digit-year range.
const maxSpanDays = 36500

// spanDays converts an in/ago pattern match to a day count.
func spanDays(m []string) (int, bool) {
	n, err := strconv.Atoi(m[1])
	if err != nil || n > maxSpanDays {
		return 0, false
	}
	if strings.HasPrefix(m[2], "week") {
		n *= 7
	}
	return n, n <= maxSpanDays
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseWeekday(input string) (time.Weekday, bool) {
	input = strings.TrimPrefix(input, "next ")
	input = strings.TrimPrefix(input, "last ")

	switch input {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

// weekdayAfter returns the next occurrence of target. A bare weekday name
// means the nearest future one, with the same day rolling to next week; the
// "next" form skips this week's occurrence entirely.
func weekdayAfter(now time.Time, target time.Weekday, forceNext bool) time.Time {
	current := now.Weekday()
	daysUntil := int(target - current)
	sameDay := daysUntil == 0

	if daysUntil <= 0 {
		daysUntil += 7
	}
	if forceNext && !sameDay {
		daysUntil += 7
	}

	return now.AddDate(0, 0, daysUntil)
}

// weekdayBefore returns the most recent past occurrence of target; the same
// day rolls back a full week.
func weekdayBefore(now time.Time, target time.Weekday) time.Time {
	daysSince := int(now.Weekday() - target)
	if daysSince <= 0 {
		daysSince += 7
	}
	return now.AddDate(0, 0, -daysSince)
}

// endOfMonth returns the last day of the current month.
func endOfMonth(now time.Time) time.Time {
	year, month, _ := now.Date()
	firstOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location())
	return firstOfNextMonth.AddDate(0, 0, -1)
}
