package modules

import (
	"context"

	"github.com/chiselgen/chisel/pkg/engine"
)

// ExecuteFunc is the function form of a module.
type ExecuteFunc func(ctx context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error)

type executeModule struct {
	fn ExecuteFunc
}

// Execute adapts a function to the module interface.
func Execute(fn ExecuteFunc) engine.Module {
	return &executeModule{fn: fn}
}

func (m *executeModule) Execute(ctx context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
	return m.fn(ctx, execCtx)
}
