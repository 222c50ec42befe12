package modules

import (
	"context"

	"github.com/chiselgen/chisel/pkg/engine"
)

// DocumentSpec describes one document to create.
type DocumentSpec struct {
	Source      string
	Destination string
	Metadata    map[string]any
	Content     engine.ContentProvider
}

type createDocuments struct {
	specs []DocumentSpec
}

// CreateDocuments creates one document per spec through the engine factory
// and appends them to the current inputs. Typically an input-phase module.
func CreateDocuments(specs ...DocumentSpec) engine.Module {
	return &createDocuments{specs: specs}
}

func (m *createDocuments) Execute(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
	out := make([]engine.Document, 0, len(execCtx.Inputs)+len(m.specs))
	out = append(out, execCtx.Inputs...)

	factory := execCtx.Factory()
	for _, spec := range m.specs {
		out = append(out, factory.CreateDocument(spec.Source, spec.Destination, spec.Metadata, spec.Content))
	}

	return out, nil
}
