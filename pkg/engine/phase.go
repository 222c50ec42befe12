package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

// phaseNode owns one (pipeline, phase-kind) pair. Nodes live as long as the
// engine; the completion channel and status are reset before every run.
type phaseNode struct {
	info     *model.PhaseInfo
	modules  []Module
	isolated bool

	// upstream nodes must all reach a terminal state before this node runs.
	upstream []*phaseNode
	// prev is the same-pipeline predecessor whose output feeds this phase,
	// nil for input phases.
	prev *phaseNode

	done chan struct{}

	lock    sync.Mutex
	status  model.PhaseStatus
	err     error
	output  []Document
	elapsed time.Duration
}

func newPhaseNode(pipeline *Pipeline, kind model.PhaseKind) *phaseNode {
	return &phaseNode{
		info:     &model.PhaseInfo{Pipeline: pipeline.Name, Kind: kind},
		modules:  pipeline.modulesFor(kind),
		isolated: pipeline.Isolated,
		done:     make(chan struct{}),
	}
}

// reset rearms the node for a new run.
func (n *phaseNode) reset() {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.done = make(chan struct{})
	n.status = model.Pending
	n.err = nil
	n.output = nil
	n.elapsed = 0
}

func (n *phaseNode) Status() model.PhaseStatus {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.status
}

func (n *phaseNode) Err() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.err
}

// Output returns the document array produced by the phase in the current run.
// It is nil until the phase succeeds, and stays nil when it does not.
func (n *phaseNode) Output() []Document {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.output
}

func (n *phaseNode) setRunning() {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.status = model.Running
}

// finish records the terminal state of the node. It must be called exactly
// once per run, before the completion channel closes.
func (n *phaseNode) finish(status model.PhaseStatus, output []Document, err error, elapsed time.Duration) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.status = status
	n.output = output
	n.err = err
	n.elapsed = elapsed
}

// run executes the node once: await every upstream terminal state, branch on
// the aggregated success flag, then run the module chain. The returned error
// is non-nil only for failures that must surface to the orchestrator;
// dependency skips and cancellations stay on the node.
func (n *phaseNode) run(ctx context.Context, e *Engine, execID string) (runErr error) {
	defer close(n.done)
	defer func() {
		if r := recover(); r != nil {
			n.finish(model.Failed, nil, errors.Errorf("panic: %v", r), 0)
			runErr = errors.Errorf("%s: panic: %v", n.info.Name(), r)
		}
		e.phaseDone(n)
	}()

	// Await the whole upstream completion set. Never short-circuit on the
	// first failure: the success decision needs every terminal state.
	for _, up := range n.upstream {
		select {
		case <-ctx.Done():
			n.finish(model.Canceled, nil, ctx.Err(), 0)
			return nil
		case <-up.done:
		}
	}

	select {
	case <-ctx.Done():
		n.finish(model.Canceled, nil, ctx.Err(), 0)
		return nil
	default:
	}

	for _, up := range n.upstream {
		if up.Status() != model.Succeeded {
			e.logger.Error().Str("execution_id", execID).Msgf("Skipping %s due to dependency error", n.info.Name())
			n.finish(model.Skipped, nil, nil, 0)
			return nil
		}
	}

	n.setRunning()
	start := time.Now()

	inputs := []Document{}
	if n.prev != nil {
		inputs = n.prev.Output()
	}

	execCtx := &ExecutionContext{
		ExecutionID: execID,
		Pipeline:    n.info.Pipeline,
		Phase:       n.info.Kind,
		Inputs:      inputs,
		Logger:      e.logger.With().Str("execution_id", execID).Str("phase", n.info.Name()).Logger(),
		engine:      e,
	}

	output, err := runModuleChain(ctx, execCtx, n.modules, inputs, execCtx.Logger)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		if n.info.Kind == model.ProcessPhase && !n.isolated {
			e.store.Set(n.info.Pipeline, output)
		}
		n.finish(model.Succeeded, output, nil, elapsed)

		return nil
	case isCancellation(err):
		n.finish(model.Canceled, nil, err, elapsed)

		return nil
	default:
		n.finish(model.Failed, nil, err, elapsed)

		return errors.Wrap(err, n.info.Name())
	}
}
