package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// diagnosticLine matches "origin:line[:column]: [severity:] message".
var diagnosticLine = regexp.MustCompile(
	`^(\S[^:]*):(\d+)(?::(\d+))?:\s*(?:((?i:error|warning|warn|note|info|hint))\s*:\s*)?(.*)$`)

// parseDiagnostics splits compiler output into diagnostics and the remaining
// non-empty lines. Lines without a severity are errors.
func parseDiagnostics(output string) ([]domain.Diagnostic, []string) {
	var diags []domain.Diagnostic
	var rest []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := diagnosticLine.FindStringSubmatch(line)
		if m == nil {
			rest = append(rest, line)
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		diags = append(diags, domain.Diagnostic{
			Severity: domain.ParseSeverity(m[4]),
			Origin:   m[1],
			Line:     lineNo,
			Column:   col,
			Message:  m[5],
		})
	}

	return diags, rest
}
