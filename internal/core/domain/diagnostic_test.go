package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Severity
	}{
		{"error", domain.SeverityError},
		{"ERROR", domain.SeverityError},
		{"warning", domain.SeverityWarning},
		{" Warn ", domain.SeverityWarning},
		{"note", domain.SeverityNote},
		{"info", domain.SeverityNote},
		{"fatal", domain.SeverityError},
		{"", domain.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.ParseSeverity(tt.input))
		})
	}
}

func TestDiagnostics(t *testing.T) {
	diags := []domain.Diagnostic{
		{Severity: domain.SeverityWarning, Origin: "App.src", Line: 3, Column: 1, Message: "unused value"},
		{Severity: domain.SeverityError, Origin: "App.src", Line: 7, Column: 12, Message: "expected ';'"},
	}

	assert.True(t, domain.HasErrors(diags))
	assert.False(t, domain.HasErrors(diags[:1]))
	assert.Equal(t,
		"WARNING App.src:3:1: unused value\nERROR App.src:7:12: expected ';'",
		domain.FormatDiagnostics(diags),
	)
}

func TestCompileError(t *testing.T) {
	err := &domain.CompileError{
		Source: "App.src",
		Diagnostics: []domain.Diagnostic{
			{Severity: domain.SeverityError, Origin: "App.src", Line: 1, Column: 2, Message: "boom"},
		},
	}

	assert.Equal(t, "compilation of App.src failed:\nERROR App.src:1:2: boom", err.Error())
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.NotErrorIs(t, err, domain.ErrReloadFailed)
}

func TestResolutionError(t *testing.T) {
	cause := errors.New("resolver offline")
	err := &domain.ResolutionError{Source: "App.src", Err: cause}

	assert.ErrorIs(t, err, domain.ErrResolutionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "resolver offline")
}

func TestReloadError(t *testing.T) {
	err := &domain.ReloadError{Op: "resolve entry", Err: errors.Join(domain.ErrEntryNotFound, errors.New("no top-level unit"))}

	assert.ErrorIs(t, err, domain.ErrReloadFailed)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.NotErrorIs(t, err, domain.ErrCompileFailed)
	assert.Contains(t, err.UserMessage(), "resolve entry")
}
