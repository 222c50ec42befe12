package engine

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/chiselgen/chisel/pkg/engine/model"
)

// pipelinePhases groups the four phase nodes of one pipeline during graph
// construction.
type pipelinePhases struct {
	input     *phaseNode
	process   *phaseNode
	transform *phaseNode
	output    *phaseNode
	isolated  bool
}

func newPipelinePhases(pipeline *Pipeline) *pipelinePhases {
	group := &pipelinePhases{
		input:     newPhaseNode(pipeline, model.InputPhase),
		process:   newPhaseNode(pipeline, model.ProcessPhase),
		transform: newPhaseNode(pipeline, model.TransformPhase),
		output:    newPhaseNode(pipeline, model.OutputPhase),
		isolated:  pipeline.Isolated,
	}

	group.process.prev = group.input
	group.transform.prev = group.process
	group.output.prev = group.transform

	return group
}

// buildPhases topologically sorts the registered pipelines and returns the
// phase nodes ordered so that every node appears after all of its upstream
// nodes. The order is the scheduler's insertion order; execution order is
// constrained only by edges.
func (e *Engine) buildPhases() ([]*phaseNode, error) {
	groups := make(map[string]*pipelinePhases)
	ordered := make([]*pipelinePhases, 0, e.pipelines.Len())
	visited := make(map[string]struct{})

	var visit func(name string) (*pipelinePhases, error)
	visit = func(name string) (*pipelinePhases, error) {
		key := strings.ToLower(name)

		if group, ok := groups[key]; ok {
			return group, nil
		}
		if _, ok := visited[key]; ok {
			// Visited but no group yet: the pipeline is mid-visit on the
			// current dependency path.
			return nil, errors.Wrap(ErrCycleDetected, name)
		}
		visited[key] = struct{}{}

		pipeline, _ := e.pipelines.Get(name)

		if pipeline.Isolated {
			group := newPipelinePhases(pipeline)
			group.process.upstream = []*phaseNode{group.input}
			group.transform.upstream = []*phaseNode{group.process}
			group.output.upstream = []*phaseNode{group.transform}

			groups[key] = group
			ordered = append(ordered, group)

			return group, nil
		}

		var depProcess []*phaseNode
		for _, dep := range pipeline.Dependencies {
			depPipeline, ok := e.pipelines.Get(dep)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownDependency, "pipeline %s has dependency on unknown pipeline %s", pipeline.Name, dep)
			}
			if depPipeline.Isolated {
				return nil, errors.Wrapf(ErrIsolatedDependency, "pipeline %s has dependency on isolated pipeline %s", pipeline.Name, depPipeline.Name)
			}

			depGroup, err := visit(depPipeline.Name)
			if err != nil {
				return nil, err
			}
			depProcess = append(depProcess, depGroup.process)
		}

		group := newPipelinePhases(pipeline)
		group.process.upstream = append([]*phaseNode{group.input}, depProcess...)
		group.transform.upstream = []*phaseNode{group.process}
		group.output.upstream = []*phaseNode{group.transform}

		groups[key] = group
		ordered = append(ordered, group)

		return group, nil
	}

	for _, name := range e.pipelines.Names() {
		if _, err := visit(name); err != nil {
			return nil, err
		}
	}

	// Transform barrier: every non-isolated transform phase additionally
	// waits on the process phase of every other non-isolated pipeline, so
	// transform modules can consult the shared document store for any of
	// them.
	for _, group := range ordered {
		if group.isolated {
			continue
		}
		for _, other := range ordered {
			if other == group || other.isolated {
				continue
			}
			group.transform.upstream = append(group.transform.upstream, other.process)
		}
	}

	nodes := make([]*phaseNode, 0, len(ordered)*len(model.PhaseKinds))
	for _, group := range ordered {
		nodes = append(nodes, group.input)
	}
	for _, group := range ordered {
		nodes = append(nodes, group.process)
	}
	for _, group := range ordered {
		nodes = append(nodes, group.transform)
	}
	for _, group := range ordered {
		nodes = append(nodes, group.output)
	}

	if err := e.preparePhases(nodes); err != nil {
		return nil, err
	}

	return nodes, nil
}

// preparePhases announces every node and its upstream set to the engine
// features (drawer, measure).
func (e *Engine) preparePhases(nodes []*phaseNode) error {
	for _, node := range nodes {
		upstream := make([]*model.PhaseInfo, len(node.upstream))
		for i, up := range node.upstream {
			upstream[i] = up.info
		}

		for _, opt := range e.features {
			err := opt.PreparePhase(node.info, upstream)
			if err != nil {
				return errors.Wrapf(err, "unable to prepare phase %s", node.info.Name())
			}
		}
	}

	return nil
}
