package report

import (
	"fmt"
	"io"
	"strings"

	"minipy/internal/semantic"
)

// ---------------------------------------------------------------------------
// Line numbering
// ---------------------------------------------------------------------------

// LineMode selects how diagnostic lines are numbered.
type LineMode string

const (
	// LineSource prints the true 1-based source line for every rule.
	LineSource LineMode = "source"
	// LineLegacy counts every '\r' and '\n' as a break and prints
	// floor(raw/2)+1 for the rules reported from the declaration and
	// variable passes, and the raw line for the type rules.
	LineLegacy LineMode = "legacy"
)

// ParseLineMode converts a configuration value into a LineMode.
func ParseLineMode(s string) (LineMode, error) {
	switch LineMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", LineSource:
		return LineSource, nil
	case LineLegacy:
		return LineLegacy, nil
	}
	return "", fmt.Errorf("unknown line mode %q (expected %q or %q)", s, LineSource, LineLegacy)
}

// LegacyLines reports whether the lexer should count lines the legacy way.
func (m LineMode) LegacyLines() bool { return m == LineLegacy }

// DisplayLine returns the line number printed for a diagnostic of rule r
// found on raw line raw.
func DisplayLine(mode LineMode, r semantic.Rule, raw int) int {
	if mode == LineLegacy && r.HalvesLine() {
		return raw/2 + 1
	}
	return raw
}

// SplitLines splits program text into 1-indexed display lines. "\r\n" and a
// lone '\r' both end a line.
func SplitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

// ---------------------------------------------------------------------------
// Printer
// ---------------------------------------------------------------------------

// Printer writes diagnostics as "Line <n> [Rule <k>]: <message>", each
// optionally followed by the offending source line indented by two spaces.
type Printer struct {
	w     io.Writer
	lines []string
	Mode  LineMode
	Echo  bool
}

// NewPrinter returns a printer with source line numbering and echo enabled.
func NewPrinter(w io.Writer, lines []string) *Printer {
	return &Printer{w: w, lines: lines, Mode: LineSource, Echo: true}
}

// Format renders the diagnostic line without the echo.
func (p *Printer) Format(d semantic.Diagnostic) string {
	return fmt.Sprintf("Line %d [Rule %d]: %s", DisplayLine(p.Mode, d.Rule, d.Line), d.Rule.Code(), d.Message)
}

// SourceLine returns the trimmed text of a 1-indexed line, or false if the
// line is out of range or blank.
func (p *Printer) SourceLine(line int) (string, bool) {
	if line < 1 || line > len(p.lines) {
		return "", false
	}
	text := strings.TrimSpace(p.lines[line-1])
	return text, text != ""
}

// Print writes one diagnostic.
func (p *Printer) Print(d semantic.Diagnostic) {
	fmt.Fprintln(p.w, p.Format(d))
	if !p.Echo {
		return
	}
	if text, ok := p.SourceLine(DisplayLine(p.Mode, d.Rule, d.Line)); ok {
		fmt.Fprintf(p.w, "  %s\n", text)
	}
}

// PrintAll writes the diagnostics in order.
func (p *Printer) PrintAll(diags []semantic.Diagnostic) {
	for _, d := range diags {
		p.Print(d)
	}
}
