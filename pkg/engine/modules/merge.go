package modules

import (
	"context"

	"github.com/pkg/errors"

	"github.com/chiselgen/chisel/pkg/engine"
)

// ErrMergeUnknownPipeline is returned when a merged pipeline has no snapshot
// in the shared document store.
var ErrMergeUnknownPipeline = errors.New("no shared output for pipeline")

type mergeModule struct {
	pipelines []string
}

// Merge appends the shared-store process output of the named pipelines to the
// current inputs. Use it in transform or output phases of non-isolated
// pipelines, where the barrier guarantees every snapshot is final.
func Merge(pipelines ...string) engine.Module {
	return &mergeModule{pipelines: pipelines}
}

func (m *mergeModule) Execute(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
	out := make([]engine.Document, 0, len(execCtx.Inputs))
	out = append(out, execCtx.Inputs...)

	for _, name := range m.pipelines {
		docs, ok := execCtx.Outputs(name)
		if !ok {
			return nil, errors.Wrap(ErrMergeUnknownPipeline, name)
		}
		out = append(out, docs...)
	}

	return out, nil
}
