// Package config loads and writes the optional .dartcov.yaml file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dartcov/dartcov/internal/application"
)

type Loader struct{}

type fileConfig struct {
	Port            int     `yaml:"port,omitempty"`
	Exclude         string  `yaml:"exclude,omitempty"`
	ReportOn        string  `yaml:"report_on,omitempty"`
	MinCoverage     float64 `yaml:"min_coverage,omitempty"`
	Badge           *bool   `yaml:"badge,omitempty"`
	PrintTestOutput bool    `yaml:"print_test_output,omitempty"`
	Timeout         string  `yaml:"timeout,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - user-supplied config path
	if err != nil {
		return application.Config{}, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return application.Config{}, err
	}

	out := application.DefaultConfig()
	if cfg.Port != 0 {
		out.Port = cfg.Port
	}
	if cfg.Exclude != "" {
		out.Exclude = cfg.Exclude
	}
	if cfg.ReportOn != "" {
		out.ReportOn = cfg.ReportOn
	}
	if cfg.MinCoverage != 0 {
		if cfg.MinCoverage < 0 || cfg.MinCoverage > 100 {
			return application.Config{}, fmt.Errorf("min_coverage must be between 0 and 100, got %v", cfg.MinCoverage)
		}
		out.MinCoverage = cfg.MinCoverage
	}
	if cfg.Badge != nil {
		out.Badge = *cfg.Badge
	}
	out.PrintTestOutput = cfg.PrintTestOutput
	if cfg.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return application.Config{}, fmt.Errorf("invalid timeout: %w", err)
		}
		out.Timeout = timeout
	}
	return out, nil
}

func Write(w io.Writer, cfg application.Config) error {
	badge := cfg.Badge
	out := fileConfig{
		Port:            cfg.Port,
		Exclude:         cfg.Exclude,
		ReportOn:        cfg.ReportOn,
		MinCoverage:     cfg.MinCoverage,
		Badge:           &badge,
		PrintTestOutput: cfg.PrintTestOutput,
	}
	if cfg.Timeout != 0 {
		out.Timeout = cfg.Timeout.String()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
