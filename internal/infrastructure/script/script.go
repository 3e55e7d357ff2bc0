// Package script synthesizes the single entry point that runs every
// discovered test under one instrumented VM.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GeneratedFileName is the fixed name of the synthesized entry point,
// written into the package's test directory. It is a disposable artifact
// and is fully rewritten before every run.
const GeneratedFileName = ".test_coverage.dart"

// ErrNoTestSegment indicates a test file path that does not live under a
// `test` directory. The discoverer's contract guarantees the segment
// exists, so hitting this means a caller bypassed discovery.
var ErrNoTestSegment = errors.New("test file path has no \"test\" segment")

// TestFileInfo carries the import metadata derived from one test file.
type TestFileInfo struct {
	Alias      string // unique Dart identifier for the import
	ImportPath string // path relative to the test directory, slash-separated
}

// ImportStatement renders the Dart import directive for this file.
func (i TestFileInfo) ImportStatement() string {
	return fmt.Sprintf("import '%s' as %s;", i.ImportPath, i.Alias)
}

// SegmentsFromTestRoot walks the path backward from the file name until
// (and excluding) the segment literally equal to "test", returning the
// segments in test-root-to-file order.
func SegmentsFromTestRoot(path string) ([]string, error) {
	var segments []string
	rest := filepath.Clean(path)
	for {
		dir, base := filepath.Split(rest)
		if base == "test" {
			break
		}
		if dir == "" || base == "" || base == rest {
			return nil, fmt.Errorf("%w: %s", ErrNoTestSegment, path)
		}
		segments = append(segments, base)
		rest = filepath.Clean(dir)
	}
	// Collected deepest-first; reverse into path order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments, nil
}

// DeriveInfo turns path segments into import metadata. The alias joins
// the segments with underscores (extension stripped), which yields a valid
// identifier unique per relative path; the import path joins them with
// forward slashes.
func DeriveInfo(segments []string) TestFileInfo {
	stripped := make([]string, len(segments))
	copy(stripped, segments)
	last := len(stripped) - 1
	stripped[last] = strings.TrimSuffix(stripped[last], ".dart")
	return TestFileInfo{
		Alias:      strings.Join(stripped, "_"),
		ImportPath: strings.Join(segments, "/"),
	}
}

// Generate produces the script text for the given test files: a header,
// the import statements sorted lexicographically, and a main() invoking
// every test's entry point in the same order. Output is byte-identical
// for the same input set regardless of input ordering.
func Generate(testFiles []string) (string, error) {
	infos := make([]TestFileInfo, 0, len(testFiles))
	for _, file := range testFiles {
		segments, err := SegmentsFromTestRoot(file)
		if err != nil {
			return "", err
		}
		infos = append(infos, DeriveInfo(segments))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ImportStatement() < infos[j].ImportStatement()
	})

	var b strings.Builder
	b.WriteString("// Auto-generated by dartcov. Do not edit.\n")
	for _, info := range infos {
		b.WriteString(info.ImportStatement())
		b.WriteByte('\n')
	}
	b.WriteString("\nvoid main() {\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "  %s.main();\n", info.Alias)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// Writer persists the generated script inside a package's test directory.
type Writer struct{}

// Write generates the script and overwrites <pkgRoot>/test/.test_coverage.dart,
// returning the written path.
func (Writer) Write(pkgRoot string, testFiles []string) (string, error) {
	content, err := Generate(testFiles)
	if err != nil {
		return "", err
	}
	path := filepath.Join(pkgRoot, "test", GeneratedFileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write generated script: %w", err)
	}
	return path, nil
}
