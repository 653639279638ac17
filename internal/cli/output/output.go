// Package output handles terminal and markdown rendering for CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Mode selects how command output is rendered.
type Mode string

const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

// Renderer writes command output in the resolved mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer, resolving ModeAuto against the output
// writer: text for a terminal, markdown for pipes and files.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeMarkdown
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			mode = ModeText
		}
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// Out returns the output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// ErrOut returns the error writer.
func (r *Renderer) ErrOut() io.Writer { return r.errOut }

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// IsJSON reports whether JSON output was requested.
func (r *Renderer) IsJSON() bool { return r.mode == ModeJSON }

// Header prints a section heading.
func (r *Renderer) Header(text string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "\n## %s\n\n", text)
	default:
		fmt.Fprintln(r.out, headerStyle.Render(text))
	}
}

// KeyValue prints a labeled value.
func (r *Renderer) KeyValue(key, value string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "- **%s:** %s\n", key, value)
	default:
		fmt.Fprintf(r.out, "%s %s\n", keyStyle.Render(key+":"), value)
	}
}

// Success prints a success message.
func (r *Renderer) Success(text string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "%s\n", text)
	default:
		fmt.Fprintln(r.out, successStyle.Render(text))
	}
}

// Warning prints a warning to the error writer.
func (r *Renderer) Warning(text string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.errOut, "> **Warning:** %s\n", text)
	default:
		fmt.Fprintln(r.errOut, warningStyle.Render("Warning: "+text))
	}
}

// Error prints an error message to the error writer.
func (r *Renderer) Error(text string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.errOut, "> **Error:** %s\n", text)
	default:
		fmt.Fprintln(r.errOut, errorStyle.Render("Error: "+text))
	}
}

// JSON writes v as indented JSON to the output writer.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatCodeBlock wraps code in a fenced markdown block.
func FormatCodeBlock(lang, code string) string {
	return fmt.Sprintf("```%s\n%s\n```\n", lang, code)
}
