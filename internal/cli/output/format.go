// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Format is an output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a --output flag value
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// ColorSupported reports whether f is a terminal and NO_COLOR is unset
func ColorSupported(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Printer writes formatted output
type Printer struct {
	out    io.Writer
	format Format
	color  bool
	styles Styles
}

// NewPrinter creates a Printer. Color only applies to table output.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{
		out:    out,
		format: format,
		color:  color,
		styles: NewStyles(lipgloss.NewRenderer(out)),
	}
}

// DefaultPrinter writes tables to stdout, colored when stdout is a terminal
func DefaultPrinter() *Printer {
	return NewPrinter(os.Stdout, FormatTable, ColorSupported(os.Stdout))
}

func (p *Printer) Format() Format { return p.format }

func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) ColorEnabled() bool { return p.color }

// Print outputs data in the configured format. Table output requires data to
// implement TableRenderer and falls back to JSON otherwise.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Render prints table for table output and data for JSON or YAML
func (p *Printer) Render(data any, table TableRenderer) error {
	if p.format == FormatTable {
		return PrintTable(p.out, table)
	}
	return p.Print(data)
}

func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Success(msg string) { p.styled(p.styles.Success, msg) }

func (p *Printer) Error(msg string) { p.styled(p.styles.Error, msg) }

func (p *Printer) Warning(msg string) { p.styled(p.styles.Warning, msg) }

// Visit renders a bucket list visit marker
func (p *Printer) Visit(visited bool) string {
	if visited {
		return p.paint(p.styles.Visited, VisitedChar)
	}
	return p.paint(p.styles.Planned, PlannedChar)
}

func (p *Printer) styled(style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintln(p.out, p.paint(style, msg))
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}
