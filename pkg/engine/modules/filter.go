package modules

import (
	"context"

	"github.com/chiselgen/chisel/pkg/engine"
)

type filterModule struct {
	keep func(engine.Document) bool
}

// Filter keeps the documents matching the predicate.
func Filter(keep func(engine.Document) bool) engine.Module {
	return &filterModule{keep: keep}
}

func (m *filterModule) Execute(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
	out := make([]engine.Document, 0, len(execCtx.Inputs))
	for _, doc := range execCtx.Inputs {
		if m.keep(doc) {
			out = append(out, doc)
		}
	}

	return out, nil
}
