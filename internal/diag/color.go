package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ColorWriter formats Diagnostics against their originating source text
// in the boxed, Rust-like style: a colored header, a `-->` location
// line, a line-numbered source gutter, and a caret marker under the
// offending span.
type ColorWriter struct {
	source string
	lines  []string
}

// NewColorWriter builds a ColorWriter over a single file's source text.
// Diagnostics reported against other filenames are still printed, just
// without surrounding source context.
func NewColorWriter(source string) *ColorWriter {
	return &ColorWriter{source: source, lines: strings.Split(source, "\n")}
}

// Format renders a single Diagnostic as a multi-line colored report.
func (w *ColorWriter) Format(filename string, d Diagnostic) string {
	var b strings.Builder

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	levelColor := w.severityColor(d.Severity)

	b.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(d.Severity.String()), d.Code, d.Message))

	line := d.Span.Start.Line
	col := d.Span.Start.Column
	width := lineNumberWidth(line)
	indent := strings.Repeat(" ", width)

	b.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), filename, line, col))
	b.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if line > 1 && line-1 <= len(w.lines) {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, line-1)), dim("│"), w.safeLine(line-2)))
	}

	if line > 0 && line <= len(w.lines) {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, line)), dim("│"), w.safeLine(line-1)))

		length := d.Span.End.Column - d.Span.Start.Column
		b.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), w.marker(col, length, d.Severity)))
	}

	if line < len(w.lines) {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, line+1)), dim("│"), w.safeLine(line)))
	}

	b.WriteString("\n")
	return b.String()
}

func (w *ColorWriter) safeLine(i int) string {
	if i < 0 || i >= len(w.lines) {
		return ""
	}
	return w.lines[i]
}

func (w *ColorWriter) severityColor(s Severity) func(...interface{}) string {
	switch s {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}

func (w *ColorWriter) marker(column, length int, sev Severity) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))
	markerColor := w.severityColor(sev)
	return spaces + markerColor(strings.Repeat("^", length))
}

func lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
