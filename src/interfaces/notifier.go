package interfaces

import "econ-observer/src/models"

// -----------------------------------------------------------------------------
// IRunNotifier receives progress events while an analysis run executes.
// -----------------------------------------------------------------------------

type IRunNotifier interface {

	// Notify pushes one event. Implementations must not block the run.
	Notify(event models.MRunEvent)
}
