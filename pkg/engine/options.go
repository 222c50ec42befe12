package engine

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

// Option configures an engine at construction.
type Option func(*Engine)

// WithLogger replaces the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSettings replaces the settings store.
func WithSettings(settings *Settings) Option {
	return func(e *Engine) { e.settings = settings }
}

// WithFileSystem replaces the file-system collaborator.
func WithFileSystem(fileSystem *FileSystem) Option {
	return func(e *Engine) { e.fileSystem = fileSystem }
}

// WithDocumentFactory replaces the document factory.
func WithDocumentFactory(factory DocumentFactory) Option {
	return func(e *Engine) { e.factory = factory }
}

// WithFeatures installs engine features such as the drawer and the measure.
func WithFeatures(features ...model.EngineOption) Option {
	return func(e *Engine) { e.features = append(e.features, features...) }
}

// DefaultLogger returns the console logger used when no logger option is
// given.
func DefaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}
