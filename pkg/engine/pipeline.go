package engine

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

// Pipeline is a named unit of work carrying four ordered module lists, a set
// of dependency names and an isolated flag. Pipelines are registered before
// the first execution and are immutable for the duration of a run.
type Pipeline struct {
	Name string

	InputModules     []Module
	ProcessModules   []Module
	TransformModules []Module
	OutputModules    []Module

	// Dependencies names the pipelines whose process phase must complete
	// before this pipeline's process phase runs.
	Dependencies []string

	// Isolated pipelines form a private linear phase chain: they neither
	// declare nor satisfy dependencies and never publish to the shared
	// document store.
	Isolated bool
}

func (p *Pipeline) modulesFor(kind model.PhaseKind) []Module {
	switch kind {
	case model.InputPhase:
		return p.InputModules
	case model.ProcessPhase:
		return p.ProcessModules
	case model.TransformPhase:
		return p.TransformModules
	case model.OutputPhase:
		return p.OutputModules
	}

	return nil
}

// PipelineCollection is the registry of pipelines, keyed case-insensitively
// and preserving registration order.
type PipelineCollection struct {
	lock   sync.RWMutex
	byName map[string]*Pipeline
	order  []string
}

func NewPipelineCollection() *PipelineCollection {
	return &PipelineCollection{
		byName: make(map[string]*Pipeline),
	}
}

// Add registers a pipeline. It fails when the name is empty, when the name is
// already taken, or when an isolated pipeline declares dependencies.
func (c *PipelineCollection) Add(pipeline *Pipeline) error {
	if pipeline.Name == "" {
		return ErrPipelineNameEmpty
	}
	if pipeline.Isolated && len(pipeline.Dependencies) > 0 {
		return errors.Wrap(ErrIsolatedWithDependencies, pipeline.Name)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	key := strings.ToLower(pipeline.Name)
	if _, ok := c.byName[key]; ok {
		return errors.Wrap(ErrDuplicatePipeline, pipeline.Name)
	}

	c.byName[key] = pipeline
	c.order = append(c.order, pipeline.Name)

	return nil
}

// Get returns the pipeline registered under name, comparing
// case-insensitively.
func (c *PipelineCollection) Get(name string) (*Pipeline, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	pipeline, ok := c.byName[strings.ToLower(name)]

	return pipeline, ok
}

// Names returns the registered names in registration order.
func (c *PipelineCollection) Names() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	names := make([]string, len(c.order))
	copy(names, c.order)

	return names
}

// Len returns the number of registered pipelines.
func (c *PipelineCollection) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.order)
}
