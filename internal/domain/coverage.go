package domain

import (
	"errors"
	"math"
	"sort"
)

// ErrNoTrackedLines is returned when a report contains no executable lines.
// Callers must surface this rather than coercing the fraction to 0 or 1.
var ErrNoTrackedLines = errors.New("no tracked lines in coverage data")

// HitMap holds raw per-line execution counts keyed by source file,
// as collected from a running VM service session.
type HitMap map[string]map[int]int

// AddHits merges counts for a single file into the map.
func (h HitMap) AddHits(file string, hits map[int]int) {
	lines, ok := h[file]
	if !ok {
		lines = make(map[int]int, len(hits))
		h[file] = lines
	}
	for line, count := range hits {
		lines[line] += count
	}
}

// Files returns the tracked file names in sorted order.
func (h HitMap) Files() []string {
	files := make([]string, 0, len(h))
	for file := range h {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// LineHit is a single (line, execution count) pair.
type LineHit struct {
	Line  int
	Count int
}

// FileRecord is the ordered per-file section of a coverage report.
// A record with no line data is valid and contributes nothing to totals.
type FileRecord struct {
	File  string
	Lines []LineHit
}

// Stat returns the covered/total line counts for this record.
func (r FileRecord) Stat() CoverageStat {
	var stat CoverageStat
	for _, l := range r.Lines {
		stat.Total++
		if l.Count > 0 {
			stat.Covered++
		}
	}
	return stat
}

// Records converts a hit map into sorted file records with ascending lines.
func (h HitMap) Records() []FileRecord {
	records := make([]FileRecord, 0, len(h))
	for _, file := range h.Files() {
		hits := h[file]
		lines := make([]LineHit, 0, len(hits))
		for line, count := range hits {
			lines = append(lines, LineHit{Line: line, Count: count})
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].Line < lines[j].Line })
		records = append(records, FileRecord{File: file, Lines: lines})
	}
	return records
}

// CoverageStat summarizes covered vs total lines.
type CoverageStat struct {
	Covered int
	Total   int
}

// Percent returns the coverage percentage as a raw float64.
func (c CoverageStat) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return (float64(c.Covered) / float64(c.Total)) * 100
}

// PercentRounded returns the coverage percentage rounded to one decimal place.
func (c CoverageStat) PercentRounded() float64 {
	return Round1(c.Percent())
}

// Uncovered returns the number of uncovered lines.
func (c CoverageStat) Uncovered() int {
	return c.Total - c.Covered
}

// IsEmpty returns true if there are no lines to cover.
func (c CoverageStat) IsEmpty() bool {
	return c.Total == 0
}

// Add accumulates another stat into this one.
func (c CoverageStat) Add(other CoverageStat) CoverageStat {
	return CoverageStat{Covered: c.Covered + other.Covered, Total: c.Total + other.Total}
}

// Fraction computes executed lines over total tracked lines across all
// records, in [0.0, 1.0]. Records without line data are skipped.
// Returns ErrNoTrackedLines when nothing was tracked at all.
func Fraction(records []FileRecord) (float64, error) {
	var stat CoverageStat
	for _, r := range records {
		if len(r.Lines) == 0 {
			continue
		}
		stat = stat.Add(r.Stat())
	}
	if stat.Total == 0 {
		return 0, ErrNoTrackedLines
	}
	return float64(stat.Covered) / float64(stat.Total), nil
}

// Aggregate sums the stats of every record that carries line data.
func Aggregate(records []FileRecord) CoverageStat {
	var stat CoverageStat
	for _, r := range records {
		stat = stat.Add(r.Stat())
	}
	return stat
}

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Result is the outcome of one coverage run.
type Result struct {
	Covered  int     `json:"covered"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Percent  float64 `json:"percent"`
	Required float64 `json:"required,omitempty"`
	Status   Status  `json:"status"`
	Delta    *float64 `json:"delta,omitempty"` // Change from previous run
}

// NewResult builds a Result from a fraction and its underlying stat,
// evaluating it against the required minimum percentage (0 disables the gate).
func NewResult(fraction float64, stat CoverageStat, requiredMin float64) Result {
	percent := Round1(fraction * 100)
	status := StatusPass
	if requiredMin > 0 && percent < requiredMin {
		status = StatusFail
	}
	return Result{
		Covered:  stat.Covered,
		Total:    stat.Total,
		Fraction: fraction,
		Percent:  percent,
		Required: requiredMin,
		Status:   status,
	}
}

// Passed returns true if the run met its required minimum.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// Shortfall returns how many percentage points below the requirement
// the run is. Returns 0 when passing.
func (r Result) Shortfall() float64 {
	if r.Percent >= r.Required {
		return 0
	}
	return Round1(r.Required - r.Percent)
}

// Round1 rounds a float64 to one decimal place.
// This is the standard rounding function used for coverage percentages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
