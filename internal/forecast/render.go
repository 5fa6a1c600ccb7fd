package forecast

import (
	"bytes"
	"html/template"
	"strings"
)

// Markdown renders the document as Markdown, one heading per section.
// The preamble stays a preformatted block so zone codes and timestamps
// keep their alignment.
func Markdown(doc *Document, title string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	if doc.Preamble != "" {
		b.WriteString("```\n" + doc.Preamble + "\n```\n\n")
	}
	for _, s := range doc.Sections {
		b.WriteString("## " + s.Title + "\n\n")
		if s.Body != "" {
			b.WriteString(reflow(s.Body) + "\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Plain renders the document as plain text with original line breaks.
func Plain(doc *Document) string {
	var b strings.Builder
	if doc.Preamble != "" {
		b.WriteString(doc.Preamble + "\n\n")
	}
	for _, s := range doc.Sections {
		b.WriteString(s.Title + "\n")
		if s.Body != "" {
			b.WriteString(s.Body + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

var htmlTemplate = template.Must(template.New("forecast").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 42rem; color: #222; }
  h1 { font-size: 1.4rem; }
  h2 { font-size: 1.1rem; border-bottom: 1px solid #ddd; padding-bottom: .25rem; }
  pre { background: #f6f6f6; padding: .75rem; overflow-x: auto; }
</style>
</head>
<body>
{{if .Title}}<h1>{{.Title}}</h1>{{end}}
{{if .Doc.Preamble}}<pre>{{.Doc.Preamble}}</pre>{{end}}
{{range .Doc.Sections}}<h2>{{.Title}}</h2>
<p>{{.Body}}</p>
{{end}}</body>
</html>
`))

// HTML renders the document as a standalone HTML page.
func HTML(doc *Document, title string) (string, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Title string
		Doc   *Document
	}{Title: title, Doc: doc})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// reflow joins hard-wrapped lines into paragraphs: feeds wrap at ~66
// columns, which reads poorly after Markdown rendering. Blank lines keep
// their paragraph-break meaning.
func reflow(body string) string {
	paragraphs := strings.Split(body, "\n\n")
	for i, p := range paragraphs {
		lines := strings.Split(p, "\n")
		for j, l := range lines {
			lines[j] = strings.TrimSpace(l)
		}
		paragraphs[i] = strings.Join(lines, " ")
	}
	return strings.Join(paragraphs, "\n\n")
}
