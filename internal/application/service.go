package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dartcov/dartcov/internal/domain"
)

// ErrBelowMinimum is returned by Run when the aggregate coverage is under
// the configured minimum. The summary has already been written when this
// is returned.
var ErrBelowMinimum = fmt.Errorf("coverage below configured minimum")

// Service orchestrates the pipeline: discovery, script synthesis,
// instrumented collection, report formatting, percentage computation,
// and badge rendering.
type Service struct {
	ConfigLoader ConfigLoader
	Discoverer   Discoverer
	ScriptWriter ScriptWriter
	Collector    Collector
	Resolver     ResolverLoader
	ReportWriter ReportWriter
	ReportParser ReportParser
	BadgeWriter  BadgeWriter
	Summarizer   Summarizer
	Out          io.Writer
}

// Run executes the full pipeline for one package and returns the run
// result. The returned error distinguishes pipeline failures from a
// below-minimum result (ErrBelowMinimum).
func (s *Service) Run(ctx context.Context, opts RunOptions) (domain.Result, error) {
	cfg, err := s.loadConfig(opts.ConfigPath)
	if err != nil {
		return domain.Result{}, err
	}
	cfg = applyOverrides(cfg, opts)

	pkgRoot, err := resolvePkgRoot(opts.PkgRoot)
	if err != nil {
		return domain.Result{}, err
	}

	files, err := s.Discoverer.List(pkgRoot, cfg.Exclude)
	if err != nil {
		return domain.Result{}, fmt.Errorf("discover tests: %w", err)
	}
	fmt.Fprintf(s.Out, "Found %d test files.\n", len(files))

	scriptPath, err := s.ScriptWriter.Write(pkgRoot, files)
	if err != nil {
		return domain.Result{}, err
	}

	resolver, err := s.Resolver.Load(pkgRoot)
	if err != nil {
		return domain.Result{}, err
	}

	var testOutput io.Writer
	if cfg.PrintTestOutput {
		testOutput = s.Out
	}
	fmt.Fprintln(s.Out, "Running tests with coverage...")
	hits, err := s.Collector.Collect(ctx, CollectRequest{
		PkgRoot:    pkgRoot,
		ScriptPath: scriptPath,
		Port:       cfg.Port,
		Timeout:    cfg.Timeout,
		TestOutput: testOutput,
	})
	if err != nil {
		return domain.Result{}, err
	}

	resolved := domain.HitMap{}
	for uri, lines := range hits {
		if path, ok := resolver.Resolve(uri); ok {
			resolved.AddHits(path, lines)
		}
	}

	reportPath, err := s.ReportWriter.Write(pkgRoot, resolved, cfg.ReportOn)
	if err != nil {
		return domain.Result{}, err
	}
	fmt.Fprintf(s.Out, "Wrote %s\n", reportPath)

	result, err := s.evaluate(reportPath, cfg.MinCoverage, opts.ShowDelta, opts.HistoryStore)
	if err != nil {
		return domain.Result{}, err
	}

	if err := s.Summarizer.Write(s.Out, result, opts.Output); err != nil {
		return domain.Result{}, err
	}

	if cfg.Badge {
		badgePath, err := s.BadgeWriter.Write(pkgRoot, result.Fraction)
		if err != nil {
			return domain.Result{}, err
		}
		fmt.Fprintf(s.Out, "Wrote %s\n", badgePath)
	}

	if opts.Record && opts.HistoryStore != nil {
		entry := domain.HistoryEntry{
			Timestamp: time.Now(),
			Commit:    opts.Commit,
			Branch:    opts.Branch,
			Percent:   result.Percent,
			Covered:   result.Covered,
			Total:     result.Total,
		}
		if err := opts.HistoryStore.Append(entry); err != nil {
			return domain.Result{}, fmt.Errorf("record history: %w", err)
		}
	}

	if !result.Passed() {
		return result, ErrBelowMinimum
	}
	return result, nil
}

// Report computes and prints the result from an existing report file.
func (s *Service) Report(ctx context.Context, opts ReportOptions) (domain.Result, error) {
	cfg, err := s.loadConfig(opts.ConfigPath)
	if err != nil {
		return domain.Result{}, err
	}
	if opts.MinCoverage != 0 {
		cfg.MinCoverage = opts.MinCoverage
	}

	profile, err := s.profilePath(opts.PkgRoot, opts.Profile)
	if err != nil {
		return domain.Result{}, err
	}
	result, err := s.evaluate(profile, cfg.MinCoverage, opts.ShowDelta, opts.HistoryStore)
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.Summarizer.Write(s.Out, result, opts.Output); err != nil {
		return domain.Result{}, err
	}
	if !result.Passed() {
		return result, ErrBelowMinimum
	}
	return result, nil
}

// Badge renders the badge from an existing report file.
func (s *Service) Badge(ctx context.Context, opts BadgeOptions) (BadgeResult, error) {
	pkgRoot, err := resolvePkgRoot(opts.PkgRoot)
	if err != nil {
		return BadgeResult{}, err
	}
	profile, err := s.profilePath(opts.PkgRoot, opts.Profile)
	if err != nil {
		return BadgeResult{}, err
	}
	fraction, _, err := s.ReportParser.Fraction(profile)
	if err != nil {
		return BadgeResult{}, err
	}
	path, err := s.BadgeWriter.Write(pkgRoot, fraction)
	if err != nil {
		return BadgeResult{}, err
	}
	return BadgeResult{Path: path, Percent: domain.Round1(fraction * 100)}, nil
}

// Record appends the result of an existing report to the history store.
func (s *Service) Record(ctx context.Context, opts RecordOptions, store HistoryStore) error {
	profile, err := s.profilePath(opts.PkgRoot, opts.Profile)
	if err != nil {
		return err
	}
	fraction, stat, err := s.ReportParser.Fraction(profile)
	if err != nil {
		return err
	}
	return store.Append(domain.HistoryEntry{
		Timestamp: time.Now(),
		Commit:    opts.Commit,
		Branch:    opts.Branch,
		Percent:   domain.Round1(fraction * 100),
		Covered:   stat.Covered,
		Total:     stat.Total,
	})
}

// Watch re-runs the pipeline whenever the watcher reports a change.
// The callback observes every run; Watch returns when the context ends.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	pkgRoot, err := resolvePkgRoot(opts.Run.PkgRoot)
	if err != nil {
		return err
	}
	if err := watcher.WatchDir(pkgRoot); err != nil {
		return fmt.Errorf("watch %s: %w", pkgRoot, err)
	}
	defer watcher.Close()

	result, err := s.Run(ctx, opts.Run)
	if callback != nil {
		callback(result, err)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			result, err := s.Run(ctx, opts.Run)
			if callback != nil {
				callback(result, err)
			}
		}
	}
}

func (s *Service) evaluate(reportPath string, minCoverage float64, showDelta bool, store HistoryStore) (domain.Result, error) {
	fraction, stat, err := s.ReportParser.Fraction(reportPath)
	if err != nil {
		return domain.Result{}, err
	}
	result := domain.NewResult(fraction, stat, minCoverage)
	if showDelta && store != nil {
		history, err := store.Load()
		if err != nil {
			return domain.Result{}, err
		}
		result.ApplyDelta(history)
	}
	return result, nil
}

func (s *Service) loadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	exists, err := s.ConfigLoader.Exists(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return DefaultConfig(), nil
	}
	return s.ConfigLoader.Load(path)
}

func (s *Service) profilePath(pkgRoot, profile string) (string, error) {
	root, err := resolvePkgRoot(pkgRoot)
	if err != nil {
		return "", err
	}
	if profile == "" {
		return filepath.Join(root, "coverage", "lcov.info"), nil
	}
	if filepath.IsAbs(profile) {
		return profile, nil
	}
	return filepath.Join(root, profile), nil
}

func resolvePkgRoot(pkgRoot string) (string, error) {
	if pkgRoot == "" {
		pkgRoot = "."
	}
	return filepath.Abs(pkgRoot)
}

func applyOverrides(cfg Config, opts RunOptions) Config {
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.Exclude != "" {
		cfg.Exclude = opts.Exclude
	}
	if opts.MinCoverage != 0 {
		cfg.MinCoverage = opts.MinCoverage
	}
	if opts.NoBadge {
		cfg.Badge = false
	}
	if opts.PrintOutput {
		cfg.PrintTestOutput = true
	}
	return cfg
}
