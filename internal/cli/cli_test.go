package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
	"github.com/dartcov/dartcov/internal/infrastructure/vmservice"
)

func TestOutputValueSet(t *testing.T) {
	val := outputValue(application.OutputText)
	if err := val.Set("json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if string(val) != "json" {
		t.Fatalf("expected json")
	}
	if err := val.Set("bad"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriteConfigFile(t *testing.T) {
	cfg := application.DefaultConfig()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeConfigFile(path, cfg, os.Stdout, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}
	// Refuses to overwrite without force
	if err := writeConfigFile(path, cfg, os.Stdout, false); err == nil {
		t.Fatalf("expected error on existing file")
	}
	if err := writeConfigFile(path, cfg, os.Stdout, true); err != nil {
		t.Fatalf("force write: %v", err)
	}
}

type fakeService struct {
	runResult    domain.Result
	runErr       error
	runOpts      application.RunOptions
	reportResult domain.Result
	reportErr    error
	badgeResult  application.BadgeResult
	badgeErr     error
	recordErr    error
	recordOpts   application.RecordOptions
}

func (f *fakeService) Run(_ context.Context, opts application.RunOptions) (domain.Result, error) {
	f.runOpts = opts
	return f.runResult, f.runErr
}

func (f *fakeService) Report(_ context.Context, _ application.ReportOptions) (domain.Result, error) {
	return f.reportResult, f.reportErr
}

func (f *fakeService) Badge(_ context.Context, _ application.BadgeOptions) (application.BadgeResult, error) {
	return f.badgeResult, f.badgeErr
}

func (f *fakeService) Record(_ context.Context, opts application.RecordOptions, _ application.HistoryStore) error {
	f.recordOpts = opts
	return f.recordErr
}

func (f *fakeService) Watch(_ context.Context, _ application.WatchOptions, _ application.FileWatcher, _ application.WatchCallback) error {
	return nil
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"dartcov"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunUnknown(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"dartcov", "nope"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"dartcov", "run", "-port", "9000", "-min-coverage", "85"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.runOpts.Port != 9000 {
		t.Fatalf("expected port flag propagated, got %d", svc.runOpts.Port)
	}
	if svc.runOpts.MinCoverage != 85 {
		t.Fatalf("expected min coverage flag propagated, got %v", svc.runOpts.MinCoverage)
	}
}

func TestRunBelowMinimumExitsOne(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{runErr: application.ErrBelowMinimum}
	code := Run([]string{"dartcov", "run"}, &out, &out, svc)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunTestFailureExitsOne(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{runErr: &vmservice.ExitError{Code: 1}}
	code := Run([]string{"dartcov", "run"}, &out, &out, svc)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunPipelineFailureExitsThree(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{runErr: errors.New("no tests found")}
	code := Run([]string{"dartcov", "run"}, &out, &out, svc)
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
}

func TestReportCommand(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"dartcov", "report", "-profile", "other/lcov.info"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
}

func TestBadgeCommand(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{badgeResult: application.BadgeResult{Path: "coverage_badge.svg", Percent: 92.5}}
	code := Run([]string{"dartcov", "badge"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "92.5%") {
		t.Fatalf("expected percentage in output, got %q", out.String())
	}
}

func TestBadgeCommandFailure(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{badgeErr: errors.New("no report")}
	code := Run([]string{"dartcov", "badge"}, &out, &out, svc)
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
}

func TestRecordCommand(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"dartcov", "record", "-commit", "abc123"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.recordOpts.Commit != "abc123" {
		t.Fatalf("expected commit flag propagated, got %q", svc.recordOpts.Commit)
	}
	if !strings.Contains(out.String(), "recorded") {
		t.Fatalf("expected confirmation, got %q", out.String())
	}
}

func TestInitNonInteractive(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".dartcov.yaml")
	code := Run([]string{"dartcov", "init", "-config", path, "-no-interactive"}, &out, &out, &fakeService{})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if !strings.Contains(string(raw), "port: 8787") {
		t.Fatalf("expected defaults in config, got %q", raw)
	}
}

func TestInitRefusesExisting(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".dartcov.yaml")
	if err := os.WriteFile(path, []byte("port: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	code := Run([]string{"dartcov", "init", "-config", path, "-no-interactive"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"dartcov", "version"}, &out, &out, &fakeService{})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "dartcov") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestHistoryStoreDefaultPath(t *testing.T) {
	store := historyStore("/pkg", "")
	if store.Path != filepath.Join("/pkg", "coverage", "history.json") {
		t.Fatalf("unexpected default path %q", store.Path)
	}
	store = historyStore("/pkg", "custom.json")
	if store.Path != filepath.Join("/pkg", "custom.json") {
		t.Fatalf("unexpected relative path %q", store.Path)
	}
}
