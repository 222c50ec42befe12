package engine

import (
	"context"
	"io"
	"maps"
	"strings"
)

// ContentProvider streams the content of a document. Providers are opaque to
// the engine; modules open them when they need the bytes.
type ContentProvider interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// StringContent is a ContentProvider backed by an in-memory string.
type StringContent string

func (c StringContent) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(c))), nil
}

// Document is an immutable record flowing between modules. The engine never
// interprets any field; documents are passed by reference.
type Document interface {
	// Source is the origin path of the document, empty when generated.
	Source() string
	// Destination is the output path of the document.
	Destination() string
	// Metadata returns a copy of the metadata mapping.
	Metadata() map[string]any
	// Content returns the content provider, nil for empty documents.
	Content() ContentProvider
}

// DocumentFactory creates documents. Modules create documents through the
// factory exposed on their execution context; the scheduler never does.
type DocumentFactory interface {
	CreateDocument(source, destination string, items map[string]any, content ContentProvider) Document
}

// CreateDocumentAs creates a document through the factory and asserts it to a
// concrete type. The second return value is false when the factory produces a
// different type.
func CreateDocumentAs[T Document](factory DocumentFactory, source, destination string, items map[string]any, content ContentProvider) (T, bool) {
	doc, ok := factory.CreateDocument(source, destination, items, content).(T)

	return doc, ok
}

type document struct {
	source      string
	destination string
	items       map[string]any
	content     ContentProvider
}

func (d *document) Source() string      { return d.source }
func (d *document) Destination() string { return d.destination }

func (d *document) Metadata() map[string]any {
	if d.items == nil {
		return map[string]any{}
	}

	return maps.Clone(d.items)
}

func (d *document) Content() ContentProvider { return d.content }

type defaultFactory struct{}

// NewDocumentFactory returns the default document factory.
func NewDocumentFactory() DocumentFactory {
	return &defaultFactory{}
}

func (*defaultFactory) CreateDocument(source, destination string, items map[string]any, content ContentProvider) Document {
	return &document{
		source:      source,
		destination: destination,
		items:       maps.Clone(items),
		content:     content,
	}
}
