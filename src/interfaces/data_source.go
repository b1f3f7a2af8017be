package interfaces

import (
	"time"

	"econ-observer/src/models"
)

// -----------------------------------------------------------------------------
// ISeriesProvider interface for fetching named economic series.
// -----------------------------------------------------------------------------

type ISeriesProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch retrieves the requested series restricted to the date range.
	// A zero time means unbounded on that side.
	Fetch(seriesIDs []string, from, to time.Time) ([]models.MSeries, error)

	// -----------------------------------------------------------------------------

	// Available lists the series identifiers the provider can serve.
	Available() ([]string, error)
}
