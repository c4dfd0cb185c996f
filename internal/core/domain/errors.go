package domain

import "go.trai.ch/zerr"

var (
	// ErrCompileFailed is matched by every *CompileError.
	ErrCompileFailed = zerr.New("compilation failed")

	// ErrUnparseableSource is returned by a compiler when the source file cannot be parsed at all.
	ErrUnparseableSource = zerr.New("source could not be parsed")

	// ErrResolutionFailed is matched by every *ResolutionError.
	ErrResolutionFailed = zerr.New("dependency resolution failed")

	// ErrReloadFailed is matched by every *ReloadError.
	ErrReloadFailed = zerr.New("internal reload failure")

	// ErrEntryNotFound is returned when no compiled unit qualifies as the entry unit.
	ErrEntryNotFound = zerr.New("entry unit not found")

	// ErrEntryFunctionMissing is returned when the entry unit lacks the entry function
	// or exports it with the wrong signature.
	ErrEntryFunctionMissing = zerr.New("entry function missing")

	// ErrSymbolNotFound is returned when a load context cannot resolve a qualified name.
	ErrSymbolNotFound = zerr.New("symbol not found")

	// ErrContextBuildFailed is returned when a load context cannot be created or populated.
	ErrContextBuildFailed = zerr.New("failed to build load context")

	// ErrContextReleased is returned when a released load context is used.
	ErrContextReleased = zerr.New("load context already released")

	// ErrDuplicateSymbol is returned when a unit is defined twice in the same load context.
	ErrDuplicateSymbol = zerr.New("symbol already defined in load context")

	// ErrForeignContext is returned when a context factory is handed a parent it did not create.
	ErrForeignContext = zerr.New("parent load context belongs to another runtime")

	// ErrStaleGeneration is returned when an object from an older dependency generation is used.
	ErrStaleGeneration = zerr.New("object belongs to a stale dependency generation")

	// ErrNoCompiledUnits is returned when a successful compilation produced nothing to load.
	ErrNoCompiledUnits = zerr.New("compiler produced no units")

	// ErrCompilerNotConfigured is returned when no compiler command is configured.
	ErrCompilerNotConfigured = zerr.New("no compiler command configured")

	// ErrCompilerOutputRead is returned when emitted units cannot be read back.
	ErrCompilerOutputRead = zerr.New("failed to read compiler output")

	// ErrOutputDirCreate is returned when the per-cycle output directory cannot be created.
	ErrOutputDirCreate = zerr.New("failed to create compiler output directory")

	// ErrSearchPathEntry is returned when a search path entry cannot be read.
	ErrSearchPathEntry = zerr.New("failed to read search path entry")

	// ErrInvalidSearchPattern is returned when a dependency search pattern is malformed.
	ErrInvalidSearchPattern = zerr.New("invalid dependency search pattern")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no config file exists between cwd and the filesystem root.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml")

	// ErrInvalidTelemetryBackend is returned for an unknown telemetry backend name.
	ErrInvalidTelemetryBackend = zerr.New("invalid telemetry backend, expected 'otel', 'progrock' or 'none'")

	// ErrInvalidDebounce is returned when the watch debounce window cannot be parsed.
	ErrInvalidDebounce = zerr.New("invalid watch debounce duration")

	// ErrNoSourceSpecified is returned when a command is run without a source file.
	ErrNoSourceSpecified = zerr.New("no source file specified")

	// ErrNoActiveEntry is returned when the entry is invoked before any cycle succeeded.
	ErrNoActiveEntry = zerr.New("no entry handle loaded")

	// ErrEntryInvocationFailed is returned when the entry function traps or fails.
	ErrEntryInvocationFailed = zerr.New("entry invocation failed")

	// ErrReloadCycleFailed marks a cycle failure that has already been reported to the user.
	ErrReloadCycleFailed = zerr.New("reload cycle failed")
)
