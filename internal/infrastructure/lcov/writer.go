package lcov

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dartcov/dartcov/internal/domain"
)

// ReportFileName is the fixed report location inside the coverage directory.
const ReportFileName = "lcov.info"

// Writer serializes hit maps into LCOV reports under <pkgRoot>/coverage.
type Writer struct{}

// Encode writes the records as LCOV text: one SF/DA.../LF/LH/end_of_record
// section per record, files and lines in the order given.
func Encode(w io.Writer, records []domain.FileRecord) error {
	for _, r := range records {
		stat := r.Stat()
		if _, err := fmt.Fprintf(w, "SF:%s\n", r.File); err != nil {
			return err
		}
		for _, l := range r.Lines {
			if _, err := fmt.Fprintf(w, "DA:%d,%d\n", l.Line, l.Count); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "LF:%d\nLH:%d\nend_of_record\n", stat.Total, stat.Covered); err != nil {
			return err
		}
	}
	return nil
}

// Write filters the hit map to files under the reportOn prefix (slash form,
// relative to the package root), serializes it, and writes
// <pkgRoot>/coverage/lcov.info, creating the directory if absent.
// Returns the written path.
func (Writer) Write(pkgRoot string, hits domain.HitMap, reportOn string) (string, error) {
	filtered := domain.HitMap{}
	prefix := strings.TrimSuffix(filepath.ToSlash(reportOn), "/")
	for file, lines := range hits {
		slashed := filepath.ToSlash(file)
		if prefix != "" && slashed != prefix && !strings.HasPrefix(slashed, prefix+"/") {
			continue
		}
		filtered.AddHits(slashed, lines)
	}

	dir := filepath.Join(pkgRoot, "coverage")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create coverage dir: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	file, err := os.Create(path) // #nosec G304 - fixed path under pkg root
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	if err := Encode(file, filtered.Records()); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return path, nil
}
