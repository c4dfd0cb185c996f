// Package config provides the configuration loader for kiln.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the kiln.yaml schema version this loader understands.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds kiln.yaml from cwd upwards and returns the parsed configuration.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var kilnfile Kilnfile
	if err := readAndUnmarshalYAML(configPath, &kilnfile); err != nil {
		return nil, err
	}

	if kilnfile.Version != "" && kilnfile.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, only %q is supported",
			domain.ConfigFileName, kilnfile.Version, SupportedVersion))
	}

	cfg, err := toDomain(filepath.Dir(configPath), &kilnfile)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

// DiscoverRoot walks up from cwd to find the directory containing kiln.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}

	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "config discovery"), "cwd", cwd)
}

func readAndUnmarshalYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "read config"), "path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "parse config"), "path", path)
	}
	return nil
}

func toDomain(root string, k *Kilnfile) (*domain.Config, error) {
	cfg := domain.DefaultConfig(root)

	cfg.Compiler.Command = k.Compiler.Cmd
	cfg.Compiler.Environment = k.Compiler.Env
	if ext := k.Compiler.Extension; ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Compiler.Extension = ext
	}

	for _, pattern := range k.Dependencies.Search {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidSearchPattern, "dependencies.search"), "pattern", pattern)
		}
	}
	cfg.Dependencies = domain.DependencyConfig{
		Classpath: k.Dependencies.Classpath,
		Search:    k.Dependencies.Search,
	}

	if k.Entry.Function != "" {
		cfg.EntryFunction = k.Entry.Function
	}
	if k.Runtime.WASI != nil {
		cfg.WASI = *k.Runtime.WASI
	}

	if k.Telemetry != "" {
		backend, err := ParseTelemetryBackend(k.Telemetry)
		if err != nil {
			return nil, err
		}
		cfg.Telemetry = backend
	}

	if k.Watch.Debounce != "" {
		d, err := time.ParseDuration(k.Watch.Debounce)
		if err != nil || d < 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidDebounce, "watch.debounce"), "value", k.Watch.Debounce)
		}
		cfg.Debounce = d
	}

	return cfg, nil
}

// ParseTelemetryBackend validates a telemetry backend name.
func ParseTelemetryBackend(name string) (domain.TelemetryBackend, error) {
	switch b := domain.TelemetryBackend(strings.ToLower(strings.TrimSpace(name))); b {
	case domain.TelemetryOTel, domain.TelemetryProgrock, domain.TelemetryNone:
		return b, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidTelemetryBackend, "telemetry"), "value", name)
	}
}
