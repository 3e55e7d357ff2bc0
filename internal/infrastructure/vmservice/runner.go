package vmservice

import (
	"context"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/domain"
)

// Runner adapts Controller to the application's Collector interface.
type Runner struct {
	DartBin string // defaults to "dart"
}

func (r Runner) Collect(ctx context.Context, req application.CollectRequest) (domain.HitMap, error) {
	controller := &Controller{
		DartBin:    r.DartBin,
		Port:       req.Port,
		Timeout:    req.Timeout,
		TestOutput: req.TestOutput,
	}
	return controller.Run(ctx, req.PkgRoot, req.ScriptPath)
}
