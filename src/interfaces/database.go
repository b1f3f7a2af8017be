package interfaces

import "econ-observer/src/models"

// -----------------------------------------------------------------------------
// IArtifactSink defines the contract for persisting result bundles.
// -----------------------------------------------------------------------------

type IArtifactSink interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveResultBundle persists one completed bundle and returns its
	// location identifier.
	SaveResultBundle(bundle *models.MResultBundle) (string, error)

	// -----------------------------------------------------------------------------

	// LoadResultBundle retrieves a previously stored bundle by run id.
	LoadResultBundle(runID string) (*models.MResultBundle, error)

	// -----------------------------------------------------------------------------

	// ListRuns returns run metadata, newest first, up to limit.
	ListRuns(limit int) ([]models.MRunSummary, error)

	// -----------------------------------------------------------------------------

	// Close the underlying connection
	Close() error
}
