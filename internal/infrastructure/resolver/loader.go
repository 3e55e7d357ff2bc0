package resolver

import "github.com/dartcov/dartcov/internal/application"

// Loader adapts Load to the application's ResolverLoader interface.
type Loader struct{}

func (Loader) Load(pkgRoot string) (application.SourceResolver, error) {
	return Load(pkgRoot)
}
