package forecast

import (
	"regexp"
	"strings"
)

// Section is one titled block of forecast text.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Document is a split forecast: the issuance preamble (zone codes, cities,
// timestamp) followed by the titled sections.
type Document struct {
	Preamble string    `json:"preamble,omitempty"`
	Sections []Section `json:"sections"`
}

var (
	// dotHeader matches period-style section starts: ".TONIGHT...Clear."
	dotHeader = regexp.MustCompile(`^\.([A-Z][A-Z0-9 ./&'-]*?)\.\.\.(.*)$`)

	// underline matches a separator row under a standalone heading.
	underline = regexp.MustCompile(`^[-=_]{3,}\s*$`)

	// terminator ends the product ($$) or a segment (&&).
	terminator = regexp.MustCompile(`^[$&]{2}\s*$`)
)

// Split divides forecast text into a preamble and titled sections.
//
// Two deterministic header rules, checked in order on each line:
//  1. a dot header (".TODAY...Sunny."): the title is the text between the
//     leading period and the ellipsis, the remainder opens the body;
//  2. a standalone heading: a short line in capitals followed by a blank
//     line or an underline row.
//
// A "$$" or "&&" row closes the current section. Text before the first
// header becomes the preamble. A feed with no headers at all is returned
// whole as the preamble.
func Split(text string) *Document {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	doc := &Document{}
	var preamble []string
	var current *Section
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		doc.Sections = append(doc.Sections, *current)
		current = nil
		body = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")

		if terminator.MatchString(line) {
			flush()
			continue
		}

		if m := dotHeader.FindStringSubmatch(line); m != nil {
			flush()
			current = &Section{Title: strings.TrimSpace(m[1])}
			if rest := strings.TrimSpace(m[2]); rest != "" {
				body = append(body, rest)
			}
			continue
		}

		if isStandaloneHeading(line, lineAt(lines, i+1)) {
			flush()
			current = &Section{Title: strings.TrimSpace(line)}
			// Swallow an underline row so it never lands in the body.
			if underline.MatchString(lineAt(lines, i+1)) {
				i++
			}
			continue
		}

		if current != nil {
			body = append(body, line)
		} else {
			preamble = append(preamble, line)
		}
	}
	flush()

	doc.Preamble = strings.TrimSpace(strings.Join(preamble, "\n"))
	return doc
}

func lineAt(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[i], " \t")
}

// isStandaloneHeading reports whether line is a heading on its own row:
// short, all capitals, mostly letters, and set off by a blank line or an
// underline row. Issuance lines ("442 AM EDT MON AUG 25 2026") fail the
// letter-ratio rule; zone code rows ("GAZ001-252100-") fail it too; lines
// carrying an ellipsis belong to the dot-header style and are never
// standalone headings.
func isStandaloneHeading(line, next string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 2 || len(t) > 48 {
		return false
	}
	if strings.Contains(t, "...") {
		return false
	}
	if t[0] < 'A' || t[0] > 'Z' {
		return false
	}
	if strings.TrimSpace(next) != "" && !underline.MatchString(next) {
		return false
	}

	letters, nonspace := 0, 0
	for _, r := range t {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			nonspace++
		case r >= 'a' && r <= 'z':
			return false
		case r == ' ':
		case r >= '0' && r <= '9', r == '.', r == ',',
			r == '\'', r == '-', r == '/', r == '&':
			nonspace++
		default:
			return false
		}
	}
	return letters >= 2 && letters*5 >= nonspace*3
}

// Find returns the section whose title matches name, trying a
// case-insensitive exact match first and a prefix match second.
func (d *Document) Find(name string) *Section {
	needle := strings.ToUpper(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range d.Sections {
		if strings.ToUpper(d.Sections[i].Title) == needle {
			return &d.Sections[i]
		}
	}
	for i := range d.Sections {
		if strings.HasPrefix(strings.ToUpper(d.Sections[i].Title), needle) {
			return &d.Sections[i]
		}
	}
	return nil
}

// Titles lists the section titles in document order.
func (d *Document) Titles() []string {
	titles := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		titles[i] = s.Title
	}
	return titles
}
