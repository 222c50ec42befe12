package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

// Module is an opaque transformer. Execute receives the current document
// array through the execution context and returns the array handed to the
// next module of the chain. A nil result is treated as an empty array.
type Module interface {
	Execute(ctx context.Context, execCtx *ExecutionContext) ([]Document, error)
}

// ExecutionContext is handed to every module invocation. It bundles the
// per-run execution data, the identity of the running module and the current
// inputs.
type ExecutionContext struct {
	// ExecutionID is the opaque token minted for the current run.
	ExecutionID string
	// Pipeline is the name of the pipeline owning the running phase.
	Pipeline string
	// Phase is the kind of the running phase.
	Phase model.PhaseKind
	// Module is the module currently executing, nil on the phase-level
	// parent context.
	Module Module
	// Parent is the phase-level context this module context derives from.
	Parent *ExecutionContext
	// Inputs is the immutable document array produced by the previous
	// module of the chain.
	Inputs []Document
	// Logger carries the execution identifier and phase name.
	Logger zerolog.Logger

	engine *Engine
}

// Outputs returns the process-phase snapshot of the named pipeline from the
// shared document store. Names compare case-insensitively. Transform- and
// output-phase modules of non-isolated pipelines observe the final process
// output of every non-isolated pipeline.
func (ec *ExecutionContext) Outputs(pipeline string) ([]Document, bool) {
	return ec.engine.store.Get(pipeline)
}

// Factory returns the engine's document factory.
func (ec *ExecutionContext) Factory() DocumentFactory {
	return ec.engine.factory
}

// Settings returns the engine's settings store.
func (ec *ExecutionContext) Settings() *Settings {
	return ec.engine.settings
}

// childFor derives the per-module context from the phase-level context.
func (ec *ExecutionContext) childFor(mod Module, inputs []Document) *ExecutionContext {
	child := *ec
	child.Module = mod
	child.Parent = ec
	child.Inputs = inputs

	return &child
}
