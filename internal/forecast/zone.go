package forecast

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/meteocli/wx/internal/output"
)

// zoneFeedBase is where the standard zone feed tree lives.
const zoneFeedBase = "https://tgftp.nws.noaa.gov/data/forecasts/zone"

// zonePattern matches a zone code: two-letter state, Z, three-digit number.
var zonePattern = regexp.MustCompile(`^([A-Za-z]{2})[Zz](\d{3})$`)

// ResolveZone turns a zone argument into a feed URL and canonical zone code.
// Two forms are accepted: a zone code ("flz063") resolves against the
// standard feed tree, and a full feed URL pasted from the browser is used
// as-is, with the code recovered from the filename when it is recognizable.
func ResolveZone(arg string) (feedURL, code string, err error) {
	arg = strings.TrimSpace(arg)

	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		u, err := url.Parse(arg)
		if err != nil {
			return "", "", output.ErrUsage(fmt.Sprintf("invalid forecast URL %q: %v", arg, err))
		}
		name := strings.TrimSuffix(path.Base(u.Path), ".txt")
		if m := zonePattern.FindStringSubmatch(name); m != nil {
			code = canonicalZone(m)
		}
		return arg, code, nil
	}

	m := zonePattern.FindStringSubmatch(arg)
	if m == nil {
		return "", "", output.ErrUsageHint(
			fmt.Sprintf("unrecognized forecast zone %q", arg),
			"Pass a zone code like FLZ063 or a full feed URL")
	}

	code = canonicalZone(m)
	state := strings.ToLower(m[1])
	feedURL = fmt.Sprintf("%s/%s/%s.txt", zoneFeedBase, state, strings.ToLower(code))
	return feedURL, code, nil
}

func canonicalZone(m []string) string {
	return strings.ToUpper(m[1]) + "Z" + m[2]
}
