// Package discover locates the test entry points of a Dart package.
package discover

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// TestFileSuffix is the file name suffix the Dart test runner recognizes.
const TestFileSuffix = "_test.dart"

// Lister walks a package's test directory.
type Lister struct{}

// List returns the absolute paths of every regular *_test.dart file under
// <pkgRoot>/test whose path relative to pkgRoot does not match the exclusion
// glob. Filesystem errors (including a missing test directory) propagate
// verbatim to the caller.
func (Lister) List(pkgRoot, exclude string) ([]string, error) {
	testDir := filepath.Join(pkgRoot, "test")

	var files []string
	err := filepath.WalkDir(testDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), TestFileSuffix) {
			return nil
		}
		if exclude != "" {
			rel, err := filepath.Rel(pkgRoot, path)
			if err != nil {
				return err
			}
			if ok, _ := filepath.Match(exclude, filepath.ToSlash(rel)); ok {
				return nil
			}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
