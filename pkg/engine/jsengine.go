package engine

import "github.com/chiselgen/chisel/pkg/engine/jsengines"

// ResetJsEngines clears the process-wide JavaScript engine registry: every
// registered factory and the default engine name. The execute path never
// calls it; it exists for embedder reconfiguration and is idempotent.
func ResetJsEngines() {
	jsengines.Reset()
}
