package engine_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselgen/chisel/pkg/engine"
	"github.com/chiselgen/chisel/pkg/engine/model"
	"github.com/chiselgen/chisel/pkg/engine/modules"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *syncBuffer) countLines(substr string) int {
	count := 0
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, substr) {
			count++
		}
	}

	return count
}

func newTestEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *syncBuffer) {
	t.Helper()

	logs := &syncBuffer{}
	fileSystem := engine.NewFileSystem(engine.WithFs(afero.NewMemMapFs()))

	opts = append([]engine.Option{
		engine.WithLogger(zerolog.New(logs)),
		engine.WithFileSystem(fileSystem),
	}, opts...)

	e, err := engine.New(opts...)
	require.NoError(t, err)

	return e, logs
}

// identity passes the inputs through unchanged.
func identity() engine.Module {
	return modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
		return execCtx.Inputs, nil
	})
}

// capture snapshots the inputs it observes.
type capture struct {
	mu   sync.Mutex
	docs []engine.Document
}

func (c *capture) module() engine.Module {
	return modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
		c.mu.Lock()
		c.docs = append([]engine.Document{}, execCtx.Inputs...)
		c.mu.Unlock()

		return execCtx.Inputs, nil
	})
}

func (c *capture) seen() []engine.Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.docs
}

func requireStatuses(t *testing.T, e *engine.Engine, want map[string]model.PhaseStatus) {
	t.Helper()

	got := e.PhaseStatuses()
	for name, status := range want {
		assert.Equal(t, status.String(), got[name].String(), name)
	}
}

func TestExecuteSingleIsolatedPipeline(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	sink := &capture{}
	err := e.Pipelines().Add(&engine.Pipeline{
		Name:           "docs",
		Isolated:       true,
		InputModules:   []engine.Module{modules.CreateDocuments(modules.DocumentSpec{Source: "d", Content: engine.StringContent("hello")})},
		ProcessModules: []engine.Module{identity()},
		OutputModules:  []engine.Module{sink.module()},
	})
	require.NoError(t, err)

	require.NoError(t, e.Execute(context.Background()))

	requireStatuses(t, e, map[string]model.PhaseStatus{
		"docs/input":     model.Succeeded,
		"docs/process":   model.Succeeded,
		"docs/transform": model.Succeeded,
		"docs/output":    model.Succeeded,
	})

	require.Len(t, sink.seen(), 1)
	assert.Equal(t, "d", sink.seen()[0].Source())

	// Isolated pipelines never publish to the shared store.
	assert.Empty(t, e.OutputNames())
}

func TestExecuteLinearDependency(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	transformed := &capture{}
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:           "content",
		ProcessModules: []engine.Module{modules.CreateDocuments(modules.DocumentSpec{Source: "d1"})},
	}))
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:             "feed",
		Dependencies:     []string{"content"},
		TransformModules: []engine.Module{modules.Merge("content"), transformed.module()},
	}))

	require.NoError(t, e.Execute(context.Background()))

	docs, ok := e.Outputs("CONTENT")
	require.True(t, ok)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].Source())

	require.Len(t, transformed.seen(), 1)
	assert.Equal(t, "d1", transformed.seen()[0].Source())

	requireStatuses(t, e, map[string]model.PhaseStatus{
		"content/process": model.Succeeded,
		"feed/process":    model.Succeeded,
		"feed/transform":  model.Succeeded,
		"feed/output":     model.Succeeded,
	})
}

func TestExecuteTransformBarrier(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	var (
		mu                sync.Mutex
		processCompletion []time.Time
		transformEntry    []time.Time
	)

	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 10 * time.Millisecond, "c": 20 * time.Millisecond}
	for _, name := range []string{"a", "b", "c"} {
		delay := delays[name]
		require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
			Name: name,
			ProcessModules: []engine.Module{modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
				time.Sleep(delay)
				mu.Lock()
				processCompletion = append(processCompletion, time.Now())
				mu.Unlock()

				return execCtx.Inputs, nil
			})},
			TransformModules: []engine.Module{modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
				mu.Lock()
				transformEntry = append(transformEntry, time.Now())
				mu.Unlock()

				return execCtx.Inputs, nil
			})},
		}))
	}

	require.NoError(t, e.Execute(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processCompletion, 3)
	require.Len(t, transformEntry, 3)

	maxCompletion := processCompletion[0]
	for _, ts := range processCompletion {
		if ts.After(maxCompletion) {
			maxCompletion = ts
		}
	}
	for _, ts := range transformEntry {
		assert.False(t, ts.Before(maxCompletion), "transform entered before every process completed")
	}
}

func TestExecuteFailurePropagation(t *testing.T) {
	t.Parallel()

	e, logs := newTestEngine(t)

	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name: "a",
		ProcessModules: []engine.Module{modules.Execute(func(context.Context, *engine.ExecutionContext) ([]engine.Document, error) {
			return nil, assert.AnError
		})},
	}))
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:         "b",
		Dependencies: []string{"a"},
	}))

	require.NoError(t, e.Execute(context.Background()))

	requireStatuses(t, e, map[string]model.PhaseStatus{
		"a/input":     model.Succeeded,
		"a/process":   model.Failed,
		"a/transform": model.Skipped,
		"a/output":    model.Skipped,
		"b/input":     model.Succeeded,
		"b/process":   model.Skipped,
		"b/transform": model.Skipped,
		"b/output":    model.Skipped,
	})

	assert.Equal(t, 1, logs.countLines("Exception while executing pipelines"))

	// Failed process phases never publish.
	assert.Empty(t, e.OutputNames())
}

func TestExecuteCycleDetected(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	ran := false
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:         "a",
		Dependencies: []string{"b"},
		ProcessModules: []engine.Module{modules.Execute(func(context.Context, *engine.ExecutionContext) ([]engine.Document, error) {
			ran = true

			return nil, nil
		})},
	}))
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:         "b",
		Dependencies: []string{"a"},
	}))

	err := e.Execute(context.Background())
	require.ErrorIs(t, err, engine.ErrCycleDetected)
	assert.False(t, ran)
}

func TestExecuteIsolatedDependencyRejected(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{Name: "a", Isolated: true}))
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{Name: "b", Dependencies: []string{"a"}}))

	err := e.Execute(context.Background())
	require.ErrorIs(t, err, engine.ErrIsolatedDependency)
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "a")
}

func TestExecuteCanceledBeforeStart(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	invocations := 0
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name: "a",
		ProcessModules: []engine.Module{modules.Execute(func(context.Context, *engine.ExecutionContext) ([]engine.Document, error) {
			invocations++

			return nil, nil
		})},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.Execute(ctx))

	assert.Equal(t, 0, invocations)
	for name, status := range e.PhaseStatuses() {
		assert.Contains(t, []model.PhaseStatus{model.Canceled, model.Skipped}, status, name)
	}
}

func TestExecuteTwiceReusesGraphAndClearsStore(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	invocations := 0
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name: "content",
		ProcessModules: []engine.Module{modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
			invocations++

			return []engine.Document{execCtx.Factory().CreateDocument("d", "", nil, nil)}, nil
		})},
	}))

	require.NoError(t, e.Execute(context.Background()))
	require.NoError(t, e.Execute(context.Background()))

	assert.Equal(t, 2, invocations)

	docs, ok := e.Outputs("content")
	require.True(t, ok)
	assert.Len(t, docs, 1)
}

func TestExecuteNoPipelines(t *testing.T) {
	t.Parallel()

	e, logs := newTestEngine(t)

	require.NoError(t, e.Execute(context.Background()))
	assert.Equal(t, 1, logs.countLines("No pipelines are registered"))
}

func TestExecuteWarnsOnInputOutputCollision(t *testing.T) {
	t.Parallel()

	fileSystem := engine.NewFileSystem(
		engine.WithFs(afero.NewMemMapFs()),
		engine.WithInputPaths("site"),
		engine.WithOutputPath("site"),
	)
	logs := &syncBuffer{}
	e, err := engine.New(
		engine.WithLogger(zerolog.New(logs)),
		engine.WithFileSystem(fileSystem),
	)
	require.NoError(t, err)

	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{Name: "a"}))
	require.NoError(t, e.Execute(context.Background()))

	assert.Equal(t, 1, logs.countLines("is also the output path"))
}

func TestExecuteCleansPaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("out", 0o755))
	require.NoError(t, afero.WriteFile(fs, "out/stale.html", []byte("old"), 0o644))
	require.NoError(t, fs.MkdirAll("tmp", 0o755))

	fileSystem := engine.NewFileSystem(
		engine.WithFs(fs),
		engine.WithOutputPath("out"),
		engine.WithTempPath("tmp"),
	)

	settings := engine.NewSettings()
	settings.Set(engine.KeyCleanOutputPath, true)

	e, err := engine.New(
		engine.WithLogger(zerolog.Nop()),
		engine.WithFileSystem(fileSystem),
		engine.WithSettings(settings),
	)
	require.NoError(t, err)
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{Name: "a"}))

	require.NoError(t, e.Execute(context.Background()))

	outExists, err := afero.DirExists(fs, "out")
	require.NoError(t, err)
	assert.False(t, outExists)

	tmpExists, err := afero.DirExists(fs, "tmp")
	require.NoError(t, err)
	assert.False(t, tmpExists)
}

func TestExecuteKeepsOutputPathWithoutSetting(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("out", 0o755))

	fileSystem := engine.NewFileSystem(engine.WithFs(fs), engine.WithOutputPath("out"))

	e, err := engine.New(engine.WithLogger(zerolog.Nop()), engine.WithFileSystem(fileSystem))
	require.NoError(t, err)
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{Name: "a"}))

	require.NoError(t, e.Execute(context.Background()))

	outExists, err := afero.DirExists(fs, "out")
	require.NoError(t, err)
	assert.True(t, outExists)
}

type closerModule struct {
	closed int
}

func (m *closerModule) Execute(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
	return execCtx.Inputs, nil
}

func (m *closerModule) Close() error {
	m.closed++

	return nil
}

func TestDisposeIdempotent(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	closer := &closerModule{}
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:           "a",
		ProcessModules: []engine.Module{closer},
	}))

	require.NoError(t, e.Dispose())
	require.NoError(t, e.Dispose())

	assert.Equal(t, 1, closer.closed)

	err := e.Execute(context.Background())
	require.ErrorIs(t, err, engine.ErrEngineDisposed)
}

func TestExecuteIndependentBranchesProgressPastFailure(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:     "broken",
		Isolated: true,
		ProcessModules: []engine.Module{modules.Execute(func(context.Context, *engine.ExecutionContext) ([]engine.Document, error) {
			return nil, assert.AnError
		})},
	}))

	ran := false
	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:     "healthy",
		Isolated: true,
		OutputModules: []engine.Module{modules.Execute(func(_ context.Context, execCtx *engine.ExecutionContext) ([]engine.Document, error) {
			ran = true

			return execCtx.Inputs, nil
		})},
	}))

	require.NoError(t, e.Execute(context.Background()))

	assert.True(t, ran)
	requireStatuses(t, e, map[string]model.PhaseStatus{
		"broken/process":  model.Failed,
		"broken/output":   model.Skipped,
		"healthy/process": model.Succeeded,
		"healthy/output":  model.Succeeded,
	})
}

func TestExecuteSkipLogsDependencyError(t *testing.T) {
	t.Parallel()

	e, logs := newTestEngine(t)

	require.NoError(t, e.Pipelines().Add(&engine.Pipeline{
		Name:     "a",
		Isolated: true,
		ProcessModules: []engine.Module{modules.Execute(func(context.Context, *engine.ExecutionContext) ([]engine.Document, error) {
			return nil, assert.AnError
		})},
	}))

	require.NoError(t, e.Execute(context.Background()))

	assert.Equal(t, 1, logs.countLines("Skipping a/transform due to dependency error"))
	assert.Equal(t, 1, logs.countLines("Skipping a/output due to dependency error"))
}
