package drawer

import (
	"github.com/chiselgen/chisel/pkg/engine/measure"
)

// Drawer renders the phase graph of an engine.
type Drawer interface {
	// AddPhase adds a phase vertex to the graph.
	AddPhase(name string) error
	// AddLink adds a dependency edge between two phases.
	AddLink(upstreamName, phaseName string) error
	// AddMeasure annotates the graph with phase metrics.
	AddMeasure(m measure.Measure) error
	// Draw writes the graph.
	Draw() error
}
