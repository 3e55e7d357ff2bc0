// Package lcov reads and writes the LCOV line-coverage text format,
// the interchange format the rest of the pipeline works from.
package lcov

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dartcov/dartcov/internal/domain"
	"github.com/dartcov/dartcov/internal/pathutil"
)

// Parser reads LCOV files back into per-file line records.
type Parser struct{}

// Parse reads an LCOV report and returns its file records in file order.
// Only line data (DA:) is consumed; branch and function sections are skipped.
func (Parser) Parse(path string) ([]domain.FileRecord, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("open lcov file: %w", err)
	}
	defer file.Close()

	var records []domain.FileRecord
	var current *domain.FileRecord

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "SF:"):
			records = append(records, domain.FileRecord{File: strings.TrimPrefix(line, "SF:")})
			current = &records[len(records)-1]

		case strings.HasPrefix(line, "DA:"):
			if current == nil {
				continue
			}
			// DA:line_number,execution_count[,checksum]
			parts := strings.Split(strings.TrimPrefix(line, "DA:"), ",")
			if len(parts) < 2 {
				continue
			}
			lineNo, err := strconv.Atoi(parts[0])
			if err != nil || lineNo <= 0 {
				continue
			}
			count, err := strconv.Atoi(parts[1])
			if err != nil || count < 0 {
				continue
			}
			current.Lines = append(current.Lines, domain.LineHit{Line: lineNo, Count: count})

		case line == "end_of_record":
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lcov file: %w", err)
	}

	return records, nil
}

// Fraction is a convenience wrapper: parse a report and compute the
// aggregate executed/total line fraction.
func (p Parser) Fraction(path string) (float64, domain.CoverageStat, error) {
	records, err := p.Parse(path)
	if err != nil {
		return 0, domain.CoverageStat{}, err
	}
	fraction, err := domain.Fraction(records)
	if err != nil {
		return 0, domain.CoverageStat{}, err
	}
	return fraction, domain.Aggregate(records), nil
}
