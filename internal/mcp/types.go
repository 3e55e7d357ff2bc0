// Package mcp provides Model Context Protocol server implementation for dartcov.
package mcp

import (
	"context"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
)

// Service defines the application operations needed by MCP.
// This interface allows for easy mocking in tests.
type Service interface {
	// Tools (actions that may have side effects)
	Report(ctx context.Context, opts application.ReportOptions) (domain.Result, error)
	Badge(ctx context.Context, opts application.BadgeOptions) (application.BadgeResult, error)
	Record(ctx context.Context, opts application.RecordOptions, store application.HistoryStore) error
}

// Config holds MCP server configuration.
type Config struct {
	PkgRoot     string // Dart package root (default: ".")
	ConfigPath  string // Path to .dartcov.yaml (default: ".dartcov.yaml")
	HistoryPath string // Path to history file (default: "coverage/history.json")
	ProfilePath string // Path to coverage report (default: "coverage/lcov.info")
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		PkgRoot:     ".",
		ConfigPath:  ".dartcov.yaml",
		HistoryPath: "coverage/history.json",
		ProfilePath: "coverage/lcov.info",
	}
}

// ReportInput defines the input parameters for the report tool.
type ReportInput struct {
	PkgRoot     string  `json:"pkgRoot,omitempty" jsonschema:"description=Dart package root directory"`
	Profile     string  `json:"profile,omitempty" jsonschema:"description=Path to existing lcov report"`
	MinCoverage float64 `json:"minCoverage,omitempty" jsonschema:"description=Fail if coverage below this percentage"`
}

// BadgeInput defines the input parameters for the badge tool.
type BadgeInput struct {
	PkgRoot string `json:"pkgRoot,omitempty" jsonschema:"description=Dart package root directory"`
	Profile string `json:"profile,omitempty" jsonschema:"description=Path to existing lcov report"`
}

// RecordInput defines the input parameters for the record tool.
type RecordInput struct {
	PkgRoot     string `json:"pkgRoot,omitempty" jsonschema:"description=Dart package root directory"`
	Profile     string `json:"profile,omitempty" jsonschema:"description=Path to existing lcov report"`
	HistoryPath string `json:"historyPath,omitempty" jsonschema:"description=Path to history file"`
	Commit      string `json:"commit,omitempty" jsonschema:"description=Git commit SHA"`
	Branch      string `json:"branch,omitempty" jsonschema:"description=Git branch name"`
}

// ToolOutput represents the common output structure for tools.
type ToolOutput struct {
	Passed  bool           `json:"passed"`
	Summary string         `json:"summary,omitempty"`
	Result  *domain.Result `json:"result,omitempty"`
	Badge   string         `json:"badge,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
