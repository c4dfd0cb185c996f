package domain

import (
	"fmt"
	"strings"
)

// Severity classifies a compiler diagnostic.
type Severity uint8

const (
	// SeverityNote is informational output from the compiler.
	SeverityNote Severity = iota
	// SeverityWarning does not fail a compilation.
	SeverityWarning
	// SeverityError fails a compilation.
	SeverityError
)

// String returns the upper-case label used when formatting diagnostics.
func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "NOTE"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a compiler severity label to a Severity.
// Unknown labels are treated as errors so that nothing fails silently.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note", "info", "hint":
		return SeverityNote
	case "warning", "warn":
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Diagnostic is a single message reported by the compiler.
type Diagnostic struct {
	Severity Severity
	// Origin is the file the diagnostic refers to.
	Origin  string
	Line    int
	Column  int
	Message string
}

// String formats the diagnostic as "SEVERITY origin:line:column: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s:%d:%d: %s", d.Severity, d.Origin, d.Line, d.Column, d.Message)
}

// FormatDiagnostics renders diagnostics one per line.
func FormatDiagnostics(diags []Diagnostic) string {
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
