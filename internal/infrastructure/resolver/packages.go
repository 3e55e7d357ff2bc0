// Package resolver maps Dart script URIs reported by the VM service back
// to on-disk source paths using the package's dependency resolution files.
package resolver

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Resolution file locations, fixed relative to the package root.
const (
	packageConfigPath = ".dart_tool/package_config.json"
	legacyPackages    = ".packages"
)

// PackageResolver resolves package: and file: URIs to paths relative to
// the package root.
type PackageResolver struct {
	pkgRoot string
	// package name -> absolute directory its package URIs resolve under
	roots map[string]string
}

type packageConfig struct {
	ConfigVersion int `json:"configVersion"`
	Packages      []struct {
		Name       string `json:"name"`
		RootURI    string `json:"rootUri"`
		PackageURI string `json:"packageUri"`
	} `json:"packages"`
}

// Load reads .dart_tool/package_config.json, falling back to the legacy
// .packages file when the config is absent.
func Load(pkgRoot string) (*PackageResolver, error) {
	abs, err := filepath.Abs(pkgRoot)
	if err != nil {
		return nil, err
	}
	r := &PackageResolver{pkgRoot: abs, roots: make(map[string]string)}

	configPath := filepath.Join(abs, filepath.FromSlash(packageConfigPath))
	if raw, err := os.ReadFile(configPath); err == nil { // #nosec G304 - fixed path under pkg root
		var cfg packageConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", packageConfigPath, err)
		}
		configDir := filepath.Dir(configPath)
		for _, p := range cfg.Packages {
			root, err := resolveURI(configDir, p.RootURI)
			if err != nil {
				return nil, fmt.Errorf("package %s: %w", p.Name, err)
			}
			pkgURI := p.PackageURI
			if pkgURI == "" {
				pkgURI = "lib/"
			}
			r.roots[p.Name] = filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(pkgURI, "/")))
		}
		return r, nil
	}

	raw, err := os.ReadFile(filepath.Join(abs, legacyPackages)) // #nosec G304 - fixed path under pkg root
	if err != nil {
		return nil, fmt.Errorf("no package resolution file (ran `dart pub get`?): %w", err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, uri, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		root, err := resolveURI(abs, uri)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", name, err)
		}
		r.roots[name] = root
	}
	return r, nil
}

// Resolve maps a script URI to a slash-separated path relative to the
// package root. Returns false for URIs that cannot be resolved or that
// fall outside the package root (SDK libraries, external packages).
func (r *PackageResolver) Resolve(uri string) (string, bool) {
	var abs string
	switch {
	case strings.HasPrefix(uri, "package:"):
		rest := strings.TrimPrefix(uri, "package:")
		name, tail, ok := strings.Cut(rest, "/")
		if !ok {
			return "", false
		}
		root, ok := r.roots[name]
		if !ok {
			return "", false
		}
		abs = filepath.Join(root, filepath.FromSlash(tail))
	case strings.HasPrefix(uri, "file://"):
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", false
		}
		abs = filepath.FromSlash(parsed.Path)
	case strings.HasPrefix(uri, "dart:"):
		return "", false
	default:
		// Already a bare path.
		abs = filepath.FromSlash(uri)
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(r.pkgRoot, abs)
		}
	}

	rel, err := filepath.Rel(r.pkgRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// resolveURI turns a (possibly relative) file URI into an absolute path
// anchored at base.
func resolveURI(base, uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.FromSlash(parsed.Path), nil
	}
	path := filepath.FromSlash(strings.TrimSuffix(uri, "/"))
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(base, path), nil
}
