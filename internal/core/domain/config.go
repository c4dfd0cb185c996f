package domain

import "time"

// TelemetryBackend selects the tracer used for reload cycles.
type TelemetryBackend string

const (
	// TelemetryOTel traces reload cycles with OpenTelemetry spans.
	TelemetryOTel TelemetryBackend = "otel"
	// TelemetryProgrock records reload cycles as progrock vertices.
	TelemetryProgrock TelemetryBackend = "progrock"
	// TelemetryNone disables tracing.
	TelemetryNone TelemetryBackend = "none"
)

const (
	// DefaultEntryFunction is the exported function invoked on the entry unit.
	DefaultEntryFunction = "run"
	// DefaultUnitExtension is the file extension of emitted units.
	DefaultUnitExtension = ".wasm"
	// DefaultDebounce is the default watch debounce window.
	DefaultDebounce = 100 * time.Millisecond
)

// CompilerConfig describes the external compiler command.
type CompilerConfig struct {
	// Command is an argv template. Placeholders: {source}, {searchpath}, {outdir}, {name}.
	Command     []string
	Environment map[string]string
	Extension   string
}

// DependencyConfig describes how the dependency search path is assembled.
type DependencyConfig struct {
	// Classpath is the caller-provided search path fragment.
	Classpath string
	// Search holds doublestar patterns resolved relative to the project root.
	Search []string
}

// Config is the loaded kiln configuration.
type Config struct {
	Root          string
	Compiler      CompilerConfig
	Dependencies  DependencyConfig
	EntryFunction string
	WASI          bool
	Telemetry     TelemetryBackend
	Debounce      time.Duration
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig(root string) *Config {
	return &Config{
		Root: root,
		Compiler: CompilerConfig{
			Extension: DefaultUnitExtension,
		},
		EntryFunction: DefaultEntryFunction,
		WASI:          true,
		Telemetry:     TelemetryOTel,
		Debounce:      DefaultDebounce,
	}
}
