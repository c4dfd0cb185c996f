package config

// Kilnfile represents the structure of the kiln.yaml configuration file.
type Kilnfile struct {
	Version      string        `yaml:"version"`
	Compiler     CompilerDTO   `yaml:"compiler"`
	Dependencies DependencyDTO `yaml:"dependencies"`
	Entry        EntryDTO      `yaml:"entry"`
	Runtime      RuntimeDTO    `yaml:"runtime"`
	Telemetry    string        `yaml:"telemetry"`
	Watch        WatchDTO      `yaml:"watch"`
}

// CompilerDTO describes the external compiler command.
type CompilerDTO struct {
	Cmd       []string          `yaml:"cmd"`
	Env       map[string]string `yaml:"env"`
	Extension string            `yaml:"extension"`
}

// DependencyDTO describes how the dependency search path is assembled.
type DependencyDTO struct {
	Classpath string   `yaml:"classpath"`
	Search    []string `yaml:"search"`
}

// EntryDTO names the entry function.
type EntryDTO struct {
	Function string `yaml:"function"`
}

// RuntimeDTO configures the wasm runtime.
type RuntimeDTO struct {
	// WASI is a pointer so that an explicit false can be told apart from unset.
	WASI *bool `yaml:"wasi"`
}

// WatchDTO configures the watch host.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
