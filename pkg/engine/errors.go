package engine

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrEngineDisposed is returned by Execute after Dispose has been called.
	ErrEngineDisposed = errors.New("engine has been disposed")

	// ErrDuplicatePipeline is returned when a pipeline name is already
	// registered. Names compare case-insensitively.
	ErrDuplicatePipeline = errors.New("pipeline name already registered")

	// ErrPipelineNameEmpty is returned when a pipeline is registered
	// without a name.
	ErrPipelineNameEmpty = errors.New("pipeline name must be set")

	// ErrIsolatedWithDependencies is returned when an isolated pipeline
	// declares dependencies.
	ErrIsolatedWithDependencies = errors.New("isolated pipeline must not declare dependencies")

	// ErrUnknownDependency is returned at graph build when a pipeline names
	// a dependency that is not registered.
	ErrUnknownDependency = errors.New("dependency on unknown pipeline")

	// ErrIsolatedDependency is returned at graph build when a dependency
	// targets an isolated pipeline.
	ErrIsolatedDependency = errors.New("dependency on isolated pipeline")

	// ErrCycleDetected is returned at graph build when the dependency graph
	// contains a cycle.
	ErrCycleDetected = errors.New("pipeline cyclical dependency detected")

	// ErrModuleFailure aborts a phase when one of its modules returns an
	// error other than cancellation.
	ErrModuleFailure = errors.New("module execution failed")
)

// isCancellation reports whether err stems from cooperative cancellation.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
