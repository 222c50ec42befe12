package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runPhases launches one goroutine per phase node and waits for all of them.
// Every node awaits its own upstream completion set, so insertion order does
// not constrain execution order. The returned error is the first failure that
// must surface to the orchestrator; a failed or canceled node never prevents
// independent branches from making progress because nothing here cancels the
// shared context.
func runPhases(ctx context.Context, e *Engine, nodes []*phaseNode, execID string) error {
	grp := errgroup.Group{}

	for _, node := range nodes {
		node := node
		grp.Go(func() error {
			return node.run(ctx, e, execID)
		})
	}

	return grp.Wait()
}
