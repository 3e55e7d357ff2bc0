package application

import (
	"context"
	"io"
	"time"

	"github.com/dartcov/dartcov/internal/domain"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config represents validated, application-ready configuration.
// Flag values override file values; zero values mean "use the default".
type Config struct {
	Port            int           // requested VM service port
	Exclude         string        // glob excluding test files (relative to pkg root)
	ReportOn        string        // source prefix included in the report
	MinCoverage     float64       // fail the run below this percentage (0 disables)
	Badge           bool          // render coverage_badge.svg after a run
	PrintTestOutput bool          // echo child test output
	Timeout         time.Duration // coverage collection bound
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Port:     8787,
		ReportOn: "lib",
		Badge:    true,
		Timeout:  15 * time.Minute,
	}
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// Discoverer lists a package's test entry points.
type Discoverer interface {
	List(pkgRoot, exclude string) ([]string, error)
}

// ScriptWriter persists the generated all-tests entry point and returns
// its path.
type ScriptWriter interface {
	Write(pkgRoot string, testFiles []string) (string, error)
}

// CollectRequest parameterizes one instrumented test run.
type CollectRequest struct {
	PkgRoot    string
	ScriptPath string
	Port       int
	Timeout    time.Duration
	TestOutput io.Writer // nil discards the child's output
}

// Collector runs the generated script under an instrumented runtime and
// returns raw hit counts keyed by script URI.
type Collector interface {
	Collect(ctx context.Context, req CollectRequest) (domain.HitMap, error)
}

// SourceResolver maps script URIs to package-root-relative paths.
type SourceResolver interface {
	Resolve(uri string) (string, bool)
}

// ResolverLoader builds a SourceResolver from a package's dependency
// resolution files.
type ResolverLoader interface {
	Load(pkgRoot string) (SourceResolver, error)
}

// ReportWriter serializes a hit map to the on-disk coverage report.
type ReportWriter interface {
	Write(pkgRoot string, hits domain.HitMap, reportOn string) (string, error)
}

// ReportParser reads a coverage report back for percentage computation.
type ReportParser interface {
	Parse(path string) ([]domain.FileRecord, error)
	Fraction(path string) (float64, domain.CoverageStat, error)
}

// BadgeWriter renders the badge for a coverage fraction.
type BadgeWriter interface {
	Write(pkgRoot string, fraction float64) (string, error)
}

// Summarizer writes the run result for humans or machines.
type Summarizer interface {
	Write(w io.Writer, result domain.Result, format OutputFormat) error
}

type HistoryStore interface {
	Load() (domain.History, error)
	Save(h domain.History) error
	Append(entry domain.HistoryEntry) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback runs after every triggered re-run in watch mode.
type WatchCallback func(result domain.Result, err error)

// RunOptions configures a full coverage run.
type RunOptions struct {
	ConfigPath   string
	PkgRoot      string
	Port         int     // overrides config when non-zero
	Exclude      string  // overrides config when non-empty
	MinCoverage  float64 // overrides config when non-zero
	NoBadge      bool
	PrintOutput  bool
	Output       OutputFormat
	ShowDelta    bool
	HistoryStore HistoryStore // optional; enables delta display and Record
	Record       bool
	Commit       string
	Branch       string
}

// ReportOptions configures analysis of an existing report.
type ReportOptions struct {
	ConfigPath   string
	PkgRoot      string
	Profile      string // report path; defaults to coverage/lcov.info
	MinCoverage  float64
	Output       OutputFormat
	ShowDelta    bool
	HistoryStore HistoryStore
}

// BadgeOptions configures badge rendering from an existing report.
type BadgeOptions struct {
	PkgRoot string
	Profile string
}

// BadgeResult reports what was rendered.
type BadgeResult struct {
	Path    string  `json:"path"`
	Percent float64 `json:"percent"`
}

// RecordOptions configures appending a run to the history store.
type RecordOptions struct {
	PkgRoot string
	Profile string
	Commit  string
	Branch  string
}

// WatchOptions configures watch mode.
type WatchOptions struct {
	Run   RunOptions
	Clear bool // clear terminal before each run
}
