// Package style renders operator-facing output: tagged status lines, step
// headers and key/value rows.
package style

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary = lipgloss.Color("#7C3AED")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Cyan    = lipgloss.Color("#06B6D4")
	Dim     = lipgloss.Color("#6B7280")
)

// Console writes tagged lines to one writer. Colors are chosen for that
// writer, so a pipe or a buffer gets plain text.
type Console struct {
	w io.Writer

	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	step    lipgloss.Style
	key     lipgloss.Style
	dim     lipgloss.Style
}

// NewConsole creates a console that renders for w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		info:    r.NewStyle().Foreground(Cyan).Bold(true),
		success: r.NewStyle().Foreground(Green).Bold(true),
		warn:    r.NewStyle().Foreground(Yellow).Bold(true),
		err:     r.NewStyle().Foreground(Red).Bold(true),
		step:    r.NewStyle().Foreground(Primary).Bold(true),
		key:     r.NewStyle().Foreground(Dim),
		dim:     r.NewStyle().Foreground(Dim),
	}
}

// Writer returns the underlying writer for streamed subprocess output.
func (c *Console) Writer() io.Writer {
	return c.w
}

func (c *Console) Info(format string, args ...any) {
	c.tagged(c.info, "[INFO]", format, args...)
}

func (c *Console) Success(format string, args ...any) {
	c.tagged(c.success, "[OK]", format, args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.tagged(c.warn, "[WARN]", format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.tagged(c.err, "[ERROR]", format, args...)
}

// Step prints a section header.
func (c *Console) Step(title string) {
	fmt.Fprintf(c.w, "\n%s\n", c.step.Render("==> "+title))
}

// KeyValue prints an indented, aligned row.
func (c *Console) KeyValue(key, value string) {
	fmt.Fprintf(c.w, "  %s %s\n", c.key.Render(fmt.Sprintf("%-14s", key+":")), value)
}

// Line prints text as is.
func (c *Console) Line(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Block prints multi-line text indented and dimmed.
func (c *Console) Block(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(c.w, "  %s\n", c.dim.Render(line))
	}
}

func (c *Console) tagged(s lipgloss.Style, tag, format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", s.Render(tag), fmt.Sprintf(format, args...))
}
