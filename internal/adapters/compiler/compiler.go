// Package compiler runs an external compiler command and reads back the units
// it emits.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Placeholders substituted in every argument of the command template.
const (
	PlaceholderSource     = "{source}"
	PlaceholderSearchPath = "{searchpath}"
	PlaceholderOutDir     = "{outdir}"
	PlaceholderName       = "{name}"
)

// Command implements ports.Compiler by running a configured argv template.
type Command struct {
	cfg    domain.CompilerConfig
	logger ports.Logger
}

var _ ports.Compiler = (*Command)(nil)

// New creates a Command compiler.
func New(cfg domain.CompilerConfig, logger ports.Logger) *Command {
	if cfg.Extension == "" {
		cfg.Extension = domain.DefaultUnitExtension
	}
	return &Command{cfg: cfg, logger: logger}
}

// Compile runs the compiler for sourcePath and returns the emitted units in
// emission order along with every parsed diagnostic.
//
// A non-zero exit with at least one parsed diagnostic is reported through the
// diagnostics. A non-zero exit without any is reported as an unparseable source.
func (c *Command) Compile(
	ctx context.Context,
	sourcePath, searchPath, outputDir string,
) (domain.CompileOutput, error) {
	if len(c.cfg.Command) == 0 {
		return domain.CompileOutput{}, domain.ErrCompilerNotConfigured
	}

	name := stem(sourcePath)
	replacer := strings.NewReplacer(
		PlaceholderSource, sourcePath,
		PlaceholderSearchPath, searchPath,
		PlaceholderOutDir, outputDir,
		PlaceholderName, name,
	)
	argv := make([]string, len(c.cfg.Command))
	for i, a := range c.cfg.Command {
		argv[i] = replacer.Replace(a)
	}

	cmdEnv := resolveEnvironment(os.Environ(), c.cfg.Environment)

	executable := argv[0]
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = argv[0]
	}
	cmd.Env = cmdEnv

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()
	diags, rest := parseDiagnostics(output.String())
	for _, line := range rest {
		c.logger.Info(line)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return domain.CompileOutput{}, zerr.With(zerr.Wrap(runErr, "failed to run compiler"), "command", argv[0])
		}
		if len(diags) == 0 {
			detail := strings.TrimSpace(strings.Join(rest, "\n"))
			if detail == "" {
				detail = exitErr.Error()
			}
			return domain.CompileOutput{}, zerr.With(
				zerr.Wrap(errors.Join(domain.ErrUnparseableSource, errors.New(detail)), "compiler rejected source"),
				"exit_code", exitErr.ExitCode())
		}
		if !domain.HasErrors(diags) {
			diags = append(diags, domain.Diagnostic{
				Severity: domain.SeverityError,
				Origin:   sourcePath,
				Message:  exitErr.Error(),
			})
		}
		return domain.CompileOutput{Diagnostics: diags}, nil
	}

	units, err := readUnits(outputDir, name, c.cfg.Extension)
	if err != nil {
		return domain.CompileOutput{Diagnostics: diags}, err
	}
	return domain.CompileOutput{Units: units, Diagnostics: diags}, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
