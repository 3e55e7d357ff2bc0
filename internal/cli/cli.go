// Package cli wires the subcommands to the application service.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
	"github.com/dartcov/dartcov/internal/infrastructure/badge"
	"github.com/dartcov/dartcov/internal/infrastructure/config"
	"github.com/dartcov/dartcov/internal/infrastructure/discover"
	"github.com/dartcov/dartcov/internal/infrastructure/history"
	"github.com/dartcov/dartcov/internal/infrastructure/lcov"
	"github.com/dartcov/dartcov/internal/infrastructure/resolver"
	"github.com/dartcov/dartcov/internal/infrastructure/script"
	"github.com/dartcov/dartcov/internal/infrastructure/summary"
	"github.com/dartcov/dartcov/internal/infrastructure/vmservice"
	"github.com/dartcov/dartcov/internal/infrastructure/watcher"
	"github.com/dartcov/dartcov/internal/infrastructure/wizard"
	"github.com/dartcov/dartcov/internal/mcp"
)

type Service interface {
	Run(ctx context.Context, opts application.RunOptions) (domain.Result, error)
	Report(ctx context.Context, opts application.ReportOptions) (domain.Result, error)
	Badge(ctx context.Context, opts application.BadgeOptions) (application.BadgeResult, error)
	Record(ctx context.Context, opts application.RecordOptions, store application.HistoryStore) error
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

var initWizard = wizard.Run

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx := context.Background()

	switch args[1] {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := fs.String("config", ".dartcov.yaml", "Config file path")
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		port := fs.Int("port", 0, "VM service port (default from config)")
		exclude := fs.String("exclude", "", "Glob excluding test files")
		minCoverage := fs.Float64("min-coverage", 0, "Fail if coverage below this percentage")
		noBadge := fs.Bool("no-badge", false, "Skip badge generation")
		printOutput := fs.Bool("print-output", false, "Print test process output")
		output := outputFlags(fs)
		showDelta := fs.Bool("show-delta", false, "Show coverage change from previous run")
		historyPath := fs.String("history", "", "History file path")
		record := fs.Bool("record", false, "Record the result to history")
		commit := fs.String("commit", "", "Git commit SHA (optional)")
		branch := fs.String("branch", "", "Git branch name (optional)")
		watchMode := fs.Bool("watch", false, "Watch for file changes and re-run coverage")
		_ = fs.Parse(args[2:])

		opts := application.RunOptions{
			ConfigPath:  *configPath,
			PkgRoot:     *pkgRoot,
			Port:        *port,
			Exclude:     *exclude,
			MinCoverage: *minCoverage,
			NoBadge:     *noBadge,
			PrintOutput: *printOutput,
			Output:      *output,
			ShowDelta:   *showDelta,
			Record:      *record,
			Commit:      *commit,
			Branch:      *branch,
		}
		if *showDelta || *record {
			opts.HistoryStore = historyStore(*pkgRoot, *historyPath)
		}

		if *watchMode {
			return runWatch(ctx, stdout, stderr, svc, opts)
		}
		_, err := svc.Run(ctx, opts)
		return runExitCode(err, stderr)
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		configPath := fs.String("config", ".dartcov.yaml", "Config file path")
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		port := fs.Int("port", 0, "VM service port (default from config)")
		exclude := fs.String("exclude", "", "Glob excluding test files")
		minCoverage := fs.Float64("min-coverage", 0, "Fail if coverage below this percentage")
		noBadge := fs.Bool("no-badge", false, "Skip badge generation")
		_ = fs.Parse(args[2:])

		return runWatch(ctx, stdout, stderr, svc, application.RunOptions{
			ConfigPath:  *configPath,
			PkgRoot:     *pkgRoot,
			Port:        *port,
			Exclude:     *exclude,
			MinCoverage: *minCoverage,
			NoBadge:     *noBadge,
		})
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		configPath := fs.String("config", ".dartcov.yaml", "Config file path")
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		profile := fs.String("profile", "", "Coverage report path (default coverage/lcov.info)")
		minCoverage := fs.Float64("min-coverage", 0, "Fail if coverage below this percentage")
		output := outputFlags(fs)
		showDelta := fs.Bool("show-delta", false, "Show coverage change from previous run")
		historyPath := fs.String("history", "", "History file path")
		_ = fs.Parse(args[2:])

		opts := application.ReportOptions{
			ConfigPath:  *configPath,
			PkgRoot:     *pkgRoot,
			Profile:     *profile,
			MinCoverage: *minCoverage,
			Output:      *output,
		}
		if *showDelta {
			opts.ShowDelta = true
			opts.HistoryStore = historyStore(*pkgRoot, *historyPath)
		}
		_, err := svc.Report(ctx, opts)
		return runExitCode(err, stderr)
	case "badge":
		fs := flag.NewFlagSet("badge", flag.ExitOnError)
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		profile := fs.String("profile", "", "Coverage report path (default coverage/lcov.info)")
		_ = fs.Parse(args[2:])

		result, err := svc.Badge(ctx, application.BadgeOptions{PkgRoot: *pkgRoot, Profile: *profile})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		fmt.Fprintf(stdout, "Badge written to %s (%.1f%%)\n", result.Path, result.Percent)
		return 0
	case "record":
		fs := flag.NewFlagSet("record", flag.ExitOnError)
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		profile := fs.String("profile", "", "Coverage report path (default coverage/lcov.info)")
		historyPath := fs.String("history", "", "History file path")
		commit := fs.String("commit", "", "Git commit SHA (optional)")
		branch := fs.String("branch", "", "Git branch name (optional)")
		_ = fs.Parse(args[2:])

		err := svc.Record(ctx, application.RecordOptions{
			PkgRoot: *pkgRoot,
			Profile: *profile,
			Commit:  *commit,
			Branch:  *branch,
		}, historyStore(*pkgRoot, *historyPath))
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		fmt.Fprintln(stdout, "Coverage recorded to history")
		return 0
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		configPath := fs.String("config", ".dartcov.yaml", "Config file path")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
		_ = fs.Parse(args[2:])

		cfg := application.DefaultConfig()
		if !*noInteractive {
			var confirmed bool
			var err error
			cfg, confirmed, err = initWizard(cfg, stdout, os.Stdin)
			if err != nil {
				return exitCode(err, 2, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", *configPath)
		return 0
	case "mcp":
		fs := flag.NewFlagSet("mcp", flag.ExitOnError)
		pkgRoot := fs.String("pkg-root", ".", "Dart package root")
		configPath := fs.String("config", ".dartcov.yaml", "Config file path")
		historyPath := fs.String("history", history.DefaultFileName, "History file path")
		profile := fs.String("profile", "", "Coverage report path")
		_ = fs.Parse(args[2:])

		server := mcp.New(svc, mcp.Config{
			PkgRoot:     *pkgRoot,
			ConfigPath:  *configPath,
			HistoryPath: *historyPath,
			ProfilePath: *profile,
		})
		if err := server.Run(ctx); err != nil {
			return exitCode(err, 3, stderr)
		}
		return 0
	case "version":
		fmt.Fprintf(stdout, "dartcov %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

// BuildService assembles the production service graph.
func BuildService(out *os.File) *application.Service {
	return &application.Service{
		ConfigLoader: config.Loader{},
		Discoverer:   discover.Lister{},
		ScriptWriter: script.Writer{},
		Collector:    vmservice.Runner{},
		Resolver:     resolver.Loader{},
		ReportWriter: lcov.Writer{},
		ReportParser: lcov.Parser{},
		BadgeWriter:  badge.Writer{},
		Summarizer:   summary.Writer{},
		Out:          out,
	}
}

func outputFlags(fs *flag.FlagSet) *application.OutputFormat {
	output := application.OutputText
	fs.Var((*outputValue)(&output), "output", "Output format: text|json")
	fs.Var((*outputValue)(&output), "o", "Output format: text|json")
	return &output
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputText), string(application.OutputJSON):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

func historyStore(pkgRoot, historyPath string) *history.FileStore {
	if historyPath == "" {
		return history.NewFileStore(pkgRoot)
	}
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(pkgRoot, historyPath)
	}
	return &history.FileStore{Path: historyPath}
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `dartcov <command>

Commands:
  run     Run tests with coverage, write coverage/lcov.info and the badge
  watch   Re-run coverage whenever Dart sources change
  report  Analyze an existing lcov report
  badge   Render coverage_badge.svg from an existing report
  record  Record current coverage to history
  init    Write a .dartcov.yaml via the interactive wizard
  mcp     Run the Model Context Protocol server over stdio
  version Print version information

Run "dartcov run -watch" to re-run coverage on file changes.`)
}

// runExitCode maps run/report failures: exit 1 for a failed gate or
// failing tests, exit 3 for everything else.
func runExitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	var exitErr *vmservice.ExitError
	if errors.Is(err, application.ErrBelowMinimum) || errors.As(err, &exitErr) {
		return 1
	}
	return 3
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, opts application.RunOptions) int {
	w, err := watcher.New(watcher.WithDebounce(500 * time.Millisecond))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 3
	}
	defer w.Close()

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stdout, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(stdout, "Watching for file changes... (Ctrl+C to stop)")
	fmt.Fprintln(stdout, "")

	callback := func(result domain.Result, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run at %s ---\n", time.Now().Format("15:04:05"))
		if runErr != nil && !errors.Is(runErr, application.ErrBelowMinimum) {
			fmt.Fprintf(stderr, "Coverage run failed: %v\n", runErr)
		}
	}

	if err := svc.Watch(ctx, application.WatchOptions{Run: opts}, w, callback); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0 // Normal exit on Ctrl+C
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return 3
	}
	return 0
}
