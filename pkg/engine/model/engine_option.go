package model

import "time"

// EngineOption defines the interface for engine features such as the graph
// drawer and the measure. Hooks are invoked by the engine; implementations
// must not block phase execution.
type EngineOption interface {
	// New initialises the option when the engine is constructed.
	New() error

	// PreparePhase runs while the phase graph is built, once per phase node.
	// upstream lists the phases the node depends on.
	PreparePhase(phase *PhaseInfo, upstream []*PhaseInfo) error

	// OnPhaseDone runs every time a phase node reaches a terminal state.
	// documents is the size of the phase output array, -1 when the phase
	// produced none.
	OnPhaseDone(phase *PhaseInfo, status PhaseStatus, elapsed time.Duration, documents int) error

	// Finish runs after every execution completes.
	Finish() error
}
