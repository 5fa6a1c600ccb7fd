package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Styles for human-readable terminal output.
var (
	styleSummary = lipgloss.NewStyle().Bold(true)
	styleMuted   = lipgloss.NewStyle().Faint(true)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleHint    = lipgloss.NewStyle().Faint(true).Italic(true)
)

// writeStyled renders a response for humans: summary first, then the data
// document pretty-printed. Falls back to plain text when the writer is not
// a terminal (e.g. --styled piped into a file).
func (w *Writer) writeStyled(v any) error {
	switch resp := v.(type) {
	case *Response:
		if resp.Summary != "" {
			fmt.Fprintln(w.opts.Writer, styleSummary.Render(resp.Summary))
		}
		if resp.Data != nil {
			data, err := json.MarshalIndent(resp.Data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w.opts.Writer, styleMuted.Render(string(data)))
		}
		return nil
	case *ErrorResponse:
		fmt.Fprintln(w.opts.Writer, styleError.Render("Error: "+resp.Error))
		if resp.Hint != "" {
			fmt.Fprintln(w.opts.Writer, styleHint.Render(resp.Hint))
		}
		return nil
	default:
		return w.writeJSON(v)
	}
}

// RenderMarkdown renders Markdown for terminal display using glamour.
// It returns styled output suitable for CLI display.
func RenderMarkdown(md string) (string, error) {
	return RenderMarkdownWithWidth(md, TerminalWidth(os.Stdout))
}

// RenderMarkdownWithWidth renders Markdown for terminal display with a
// custom word-wrap width.
func RenderMarkdownWithWidth(md string, width int) (string, error) {
	if md == "" {
		return "", nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(md)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// TerminalWidth returns the column width of the terminal behind w, or 80
// when w is not a terminal or the size cannot be determined.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	if !term.IsTerminal(f.Fd()) {
		return 80
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
