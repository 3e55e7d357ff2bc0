// Package summary renders the result of a coverage run for humans or
// machines.
package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
)

type Writer struct{}

func (Writer) Write(w io.Writer, result domain.Result, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case application.OutputText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, result domain.Result) error {
	colorize := colorEnabled(w)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	deltaUpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	deltaDownStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))

	line := fmt.Sprintf("Coverage: %.1f%% (%d of %d lines)", result.Percent, result.Covered, result.Total)

	if result.Delta != nil {
		deltaStr := fmt.Sprintf("%+.1f%%", *result.Delta)
		if colorize {
			if *result.Delta > 0 {
				deltaStr = deltaUpStyle.Render(deltaStr)
			} else if *result.Delta < 0 {
				deltaStr = deltaDownStyle.Render(deltaStr)
			}
		}
		line += fmt.Sprintf(" [%s]", deltaStr)
	}

	if result.Required > 0 {
		status := string(result.Status)
		if colorize {
			if result.Passed() {
				status = passStyle.Render(status)
			} else {
				status = failStyle.Render(status)
			}
		}
		line += fmt.Sprintf(" required %.1f%% %s", result.Required, status)
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if !result.Passed() {
		_, err := fmt.Fprintf(w, "Coverage is %.1f points below the required minimum.\n", result.Shortfall())
		return err
	}
	return nil
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
