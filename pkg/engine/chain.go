package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// runModuleChain threads a document array through an ordered module list.
// Nil modules are skipped. Cancellation is observed before every module and
// propagates silently; any other module error logs the module type and fails
// the whole chain with ErrModuleFailure. The returned array is never mutated
// afterwards; with an empty module list it is the input unchanged.
func runModuleChain(ctx context.Context, parent *ExecutionContext, mods []Module, inputs []Document, logger zerolog.Logger) ([]Document, error) {
	current := inputs

	for _, mod := range mods {
		if mod == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		execCtx := parent.childFor(mod, current)

		outputs, err := mod.Execute(ctx, execCtx)
		if err != nil {
			if isCancellation(err) {
				return nil, err
			}

			logger.Error().Str("module", moduleName(mod)).Err(err).Msg("module failed")

			return nil, errors.Wrapf(ErrModuleFailure, "module %s: %s", moduleName(mod), err)
		}

		current = materialize(outputs)
	}

	return current, nil
}

// materialize snapshots a module result into a fresh array so later mutations
// by the module cannot leak into the chain. A nil result is an empty array.
func materialize(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)

	return out
}

func moduleName(mod Module) string {
	return fmt.Sprintf("%T", mod)
}
