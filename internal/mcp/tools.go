package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
	"github.com/dartcov/dartcov/internal/infrastructure/history"
)

// handleReport implements the report tool.
func (s *Server) handleReport(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	opts := application.ReportOptions{
		ConfigPath:  s.config.ConfigPath,
		PkgRoot:     coalesce(input.PkgRoot, s.config.PkgRoot),
		Profile:     coalesce(input.Profile, s.config.ProfilePath),
		MinCoverage: input.MinCoverage,
		Output:      application.OutputJSON,
	}

	result, err := s.svc.Report(ctx, opts)

	output := ToolOutput{
		Passed:  result.Passed(),
		Result:  &result,
		Summary: generateSummary(result),
	}
	if err != nil && !errors.Is(err, application.ErrBelowMinimum) {
		output.Passed = false
		output.Error = err.Error()
	}

	return nil, output, nil
}

// handleBadge implements the badge tool.
func (s *Server) handleBadge(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input BadgeInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	opts := application.BadgeOptions{
		PkgRoot: coalesce(input.PkgRoot, s.config.PkgRoot),
		Profile: coalesce(input.Profile, s.config.ProfilePath),
	}

	res, err := s.svc.Badge(ctx, opts)

	output := ToolOutput{Passed: err == nil}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to render badge"
	} else {
		output.Badge = res.Path
		output.Summary = fmt.Sprintf("Badge rendered at %.1f%%", res.Percent)
	}

	return nil, output, nil
}

// handleRecord implements the record tool.
func (s *Server) handleRecord(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecordInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	pkgRoot := coalesce(input.PkgRoot, s.config.PkgRoot)
	opts := application.RecordOptions{
		PkgRoot: pkgRoot,
		Profile: coalesce(input.Profile, s.config.ProfilePath),
		Commit:  input.Commit,
		Branch:  input.Branch,
	}

	historyPath := coalesce(input.HistoryPath, s.config.HistoryPath)
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(pkgRoot, historyPath)
	}
	store := &history.FileStore{Path: historyPath}

	err := s.svc.Record(ctx, opts, store)

	output := ToolOutput{
		Passed: err == nil,
	}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to record coverage"
	} else {
		output.Summary = "Coverage recorded to history"
	}

	return nil, output, nil
}

// generateSummary creates a human-readable summary from the result.
func generateSummary(result domain.Result) string {
	if result.Total == 0 {
		return "No tracked lines"
	}
	status := "PASS"
	if !result.Passed() {
		status = "FAIL"
	}
	return fmt.Sprintf("%s | %.1f%% | %d/%d lines covered", status, result.Percent, result.Covered, result.Total)
}
