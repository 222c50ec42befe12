package engine

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chiselgen/chisel/internal/docstore"
	"github.com/chiselgen/chisel/pkg/engine/model"
)

// Engine executes the registered pipelines. It is not safe for concurrent
// Execute calls; successive runs on the same engine are serialized by the
// caller.
type Engine struct {
	pipelines  *PipelineCollection
	settings   *Settings
	fileSystem *FileSystem
	factory    DocumentFactory
	store      *docstore.Store[Document]
	logger     zerolog.Logger
	features   []model.EngineOption

	// phases is built on the first Execute and reused by later runs.
	phases []*phaseNode

	lock     sync.Mutex
	disposed bool
}

// New creates an engine. Collaborators not supplied through options get
// defaults: a console logger, empty settings, the OS filesystem and the
// default document factory.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		pipelines:  NewPipelineCollection(),
		settings:   NewSettings(),
		fileSystem: NewFileSystem(),
		factory:    NewDocumentFactory(),
		store:      docstore.New[Document](),
		logger:     DefaultLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	for _, feature := range e.features {
		err := feature.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply engine option")
		}
	}

	return e, nil
}

// Pipelines returns the pipeline registry.
func (e *Engine) Pipelines() *PipelineCollection { return e.pipelines }

// Settings returns the settings store.
func (e *Engine) Settings() *Settings { return e.settings }

// FileSystem returns the file-system collaborator.
func (e *Engine) FileSystem() *FileSystem { return e.fileSystem }

// DocumentFactory returns the document factory.
func (e *Engine) DocumentFactory() DocumentFactory { return e.factory }

// Outputs returns the shared-store snapshot of the named pipeline from the
// most recent run.
func (e *Engine) Outputs(pipeline string) ([]Document, bool) {
	return e.store.Get(pipeline)
}

// OutputNames returns the pipelines holding a snapshot in the shared store.
func (e *Engine) OutputNames() []string {
	return e.store.Names()
}

// PhaseStatuses returns a snapshot of every phase status keyed by
// "pipeline/phase". Empty before the first Execute. Callers needing
// failure-exit semantics inspect this after a run.
func (e *Engine) PhaseStatuses() map[string]model.PhaseStatus {
	statuses := make(map[string]model.PhaseStatus, len(e.phases))
	for _, node := range e.phases {
		statuses[node.info.Name()] = node.Status()
	}

	return statuses
}

// Execute performs one run: clean paths, build the phase graph once, clear
// the shared document store, run every phase honoring dependencies and
// cancellation, and report. Phase failures are confined to their branch and
// never returned; graph-build errors and ErrEngineDisposed are.
func (e *Engine) Execute(ctx context.Context) error {
	e.lock.Lock()
	if e.disposed {
		e.lock.Unlock()

		return ErrEngineDisposed
	}
	e.lock.Unlock()

	if e.pipelines.Len() == 0 {
		e.logger.Warn().Msg("No pipelines are registered, nothing to execute")

		return nil
	}

	outputPath := filepath.Clean(e.fileSystem.OutputPath())
	for _, inputPath := range e.fileSystem.InputPaths() {
		if filepath.Clean(inputPath) == outputPath {
			e.logger.Warn().Msgf("Input path %s is also the output path", inputPath)
		}
	}

	e.cleanDirectory(e.fileSystem.GetTempDirectory())
	if e.settings.CleanOutputPath() {
		e.cleanDirectory(e.fileSystem.GetOutputDirectory())
	}

	if e.phases == nil {
		phases, err := e.buildPhases()
		if err != nil {
			return err
		}
		e.phases = phases
	}

	execID := uuid.NewString()
	start := time.Now()

	e.logger.Info().Str("execution_id", execID).Msgf("Executing %d pipelines (execution ID %s)", e.pipelines.Len(), execID)

	e.store.Clear()
	for _, node := range e.phases {
		node.reset()
	}

	err := runPhases(ctx, e, e.phases, execID)
	if err != nil && !isCancellation(err) {
		// The run itself completes; individual node statuses carry the
		// failures.
		e.logger.Error().Str("execution_id", execID).Err(err).Msg("Exception while executing pipelines")
	}

	e.logger.Info().Str("execution_id", execID).Msgf("Finished execution in %s", round(time.Since(start)))

	e.finishFeatures()

	return nil
}

// Dispose tears the engine down. It closes every module implementing
// io.Closer, cleans the temporary path and marks the engine disposed.
// Dispose is idempotent.
func (e *Engine) Dispose() error {
	e.lock.Lock()
	if e.disposed {
		e.lock.Unlock()

		return nil
	}
	e.disposed = true
	e.lock.Unlock()

	seen := make(map[io.Closer]struct{})
	for _, name := range e.pipelines.Names() {
		pipeline, _ := e.pipelines.Get(name)
		for _, kind := range model.PhaseKinds {
			for _, mod := range pipeline.modulesFor(kind) {
				closer, ok := mod.(io.Closer)
				if !ok {
					continue
				}
				if _, dup := seen[closer]; dup {
					continue
				}
				seen[closer] = struct{}{}

				err := closer.Close()
				if err != nil {
					e.logger.Error().Err(err).Str("module", moduleName(mod)).Msg("unable to close module")
				}
			}
		}
	}

	e.cleanDirectory(e.fileSystem.GetTempDirectory())

	return nil
}

// phaseDone reports a terminal phase transition to the engine features.
func (e *Engine) phaseDone(node *phaseNode) {
	node.lock.Lock()
	status, elapsed := node.status, node.elapsed
	documents := -1
	if node.output != nil {
		documents = len(node.output)
	}
	node.lock.Unlock()

	for _, feature := range e.features {
		err := feature.OnPhaseDone(node.info, status, elapsed, documents)
		if err != nil {
			e.logger.Error().Err(err).Str("phase", node.info.Name()).Msg("engine option failed on phase completion")
		}
	}
}

func (e *Engine) finishFeatures() {
	for _, feature := range e.features {
		err := feature.Finish()
		if err != nil {
			e.logger.Error().Err(err).Msg("unable to finish engine option")
		}
	}
}

// cleanDirectory deletes a directory when it exists. Failures are logged and
// never abort the run.
func (e *Engine) cleanDirectory(dir *Directory) {
	exists, err := dir.Exists()
	if err != nil {
		e.logger.Warn().Err(err).Msgf("Unable to check directory %s", dir.Path())

		return
	}
	if !exists {
		return
	}

	err = dir.Delete(true)
	if err != nil {
		e.logger.Warn().Err(err).Msgf("Unable to clean directory %s", dir.Path())
	}
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Millisecond * 10)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond * 10)
	case d > time.Microsecond:
		d = d.Round(time.Nanosecond * 10)
	}

	return d
}
