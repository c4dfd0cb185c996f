package domain

import "strings"

// CompileError reports a problem in the user's source. It is always user-facing
// and never leaves the load-context cache modified.
type CompileError struct {
	Source      string
	Diagnostics []Diagnostic
}

// Error returns a header line followed by every diagnostic, one per line.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compilation of ")
	b.WriteString(e.Source)
	b.WriteString(" failed")
	if len(e.Diagnostics) > 0 {
		b.WriteString(":\n")
		b.WriteString(FormatDiagnostics(e.Diagnostics))
	}
	return b.String()
}

// Is matches ErrCompileFailed.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompileFailed
}

// ResolutionError reports that the external dependency resolver failed.
type ResolutionError struct {
	Source string
	Err    error
}

// Error returns the resolver failure prefixed with the source it was resolving for.
func (e *ResolutionError) Error() string {
	return "resolving dependencies for " + e.Source + ": " + e.Err.Error()
}

// Unwrap returns the resolver's error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrResolutionFailed.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// ReloadError is an internal failure: a missing symbol after a successful compile,
// a missing entry function, or a load context that could not be built.
type ReloadError struct {
	// Op names the reload step that failed.
	Op  string
	Err error
}

// Error returns the failing step and its cause.
func (e *ReloadError) Error() string {
	return "reload " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Err
}

// Is matches ErrReloadFailed.
func (e *ReloadError) Is(target error) bool {
	return target == ErrReloadFailed
}

// UserMessage is what end users see for internal failures.
func (e *ReloadError) UserMessage() string {
	return "internal reload failure during " + e.Op + ", please report this"
}
