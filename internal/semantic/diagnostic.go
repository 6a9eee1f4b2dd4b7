package semantic

import (
	"fmt"
	"sort"
)

// Diagnostic represents a single message produced by the semantic analyser.
// Line is the raw token line; display transforms are applied by the report
// package.
type Diagnostic struct {
	Rule    Rule
	Line    int
	Message string
	Pass    Pass
	Scope   string // scope the diagnostic was found in ("global" or a function name)
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("Line %d [Rule %d]: %s", d.Line, d.Rule.Code(), d.Message)
}

// ByPass returns the diagnostics produced by one pass, preserving order.
func ByPass(diags []Diagnostic, p Pass) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Pass == p {
			out = append(out, d)
		}
	}
	return out
}

// CountByRule tallies diagnostics per rule.
func CountByRule(diags []Diagnostic) map[Rule]int {
	counts := make(map[Rule]int)
	for _, d := range diags {
		counts[d.Rule]++
	}
	return counts
}

// sortByLine stably orders a diagnostic batch by raw line.
func sortByLine(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})
}
