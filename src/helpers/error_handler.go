package helpers

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AnalysisError struct {
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// FrequencyMismatchError: a series cannot be placed on the target index
// without upsampling and no interpolation policy was supplied.
type FrequencyMismatchError struct {
	AnalysisError
	SeriesID string
	Native   string
	Target   string
}

func NewFrequencyMismatchError(seriesID, native, target string) *FrequencyMismatchError {
	return &FrequencyMismatchError{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"series %q (%s) cannot be upsampled to %s without an explicit interpolation policy",
			seriesID, native, target)},
		SeriesID: seriesID,
		Native:   native,
		Target:   target,
	}
}

// -----------------------------------------------------------------------------

// InsufficientDataError: a test or fit had fewer observations than its
// documented minimum. Always names the minimum, never a silent NaN.
type InsufficientDataError struct {
	AnalysisError
	Operation   string
	MinRequired int
	Actual      int
}

func NewInsufficientDataError(operation string, minRequired, actual int) *InsufficientDataError {
	return &InsufficientDataError{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"%s requires at least %d observations, got %d", operation, minRequired, actual)},
		Operation:   operation,
		MinRequired: minRequired,
		Actual:      actual,
	}
}

// -----------------------------------------------------------------------------

// DegenerateDesignError: collinear or rank-deficient regression design.
type DegenerateDesignError struct {
	AnalysisError
	Rank    int
	Columns int
}

func NewDegenerateDesignError(rank, columns int) *DegenerateDesignError {
	return &DegenerateDesignError{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"design matrix is rank deficient (rank %d of %d columns)", rank, columns)},
		Rank:    rank,
		Columns: columns,
	}
}

// -----------------------------------------------------------------------------

// InsufficientHistoryError: a series is shorter than minimum window + horizon
// for backtesting.
type InsufficientHistoryError struct {
	AnalysisError
	SeriesID    string
	MinRequired int
	Actual      int
}

func NewInsufficientHistoryError(seriesID string, minRequired, actual int) *InsufficientHistoryError {
	return &InsufficientHistoryError{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"series %q has %d observations, backtesting needs at least %d",
			seriesID, actual, minRequired)},
		SeriesID:    seriesID,
		MinRequired: minRequired,
		Actual:      actual,
	}
}

// -----------------------------------------------------------------------------

// InsufficientEntitiesError: fewer distinct points than the minimum cluster
// count.
type InsufficientEntitiesError struct {
	AnalysisError
	Entities int
	MinK     int
}

func NewInsufficientEntitiesError(entities, minK int) *InsufficientEntitiesError {
	return &InsufficientEntitiesError{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"clustering needs at least %d distinct entities, got %d", minK, entities)},
		Entities: entities,
		MinK:     minK,
	}
}

// -----------------------------------------------------------------------------

// NonConvergenceWarning is non-fatal: the fit fell back to a simpler family
// and the degradation is surfaced as a warning-level finding.
type NonConvergenceWarning struct {
	AnalysisError
	SeriesID string
	Family   string
	Fallback string
}

func NewNonConvergenceWarning(seriesID, family, fallback string) *NonConvergenceWarning {
	return &NonConvergenceWarning{
		AnalysisError: AnalysisError{Message: fmt.Sprintf(
			"%s fit did not converge for series %q, fell back to %s", family, seriesID, fallback)},
		SeriesID: seriesID,
		Family:   family,
		Fallback: fallback,
	}
}

// -----------------------------------------------------------------------------

type ConfigurationError struct{ AnalysisError }
type DatabaseError struct{ AnalysisError }

// -----------------------------------------------------------------------------

// IsStructural reports whether err belongs to the structural/input error
// taxonomy that aborts only the affected component.
func IsStructural(err error) bool {
	var fm *FrequencyMismatchError
	var id *InsufficientDataError
	var dd *DegenerateDesignError
	var ih *InsufficientHistoryError
	var ie *InsufficientEntitiesError
	return errors.As(err, &fm) || errors.As(err, &id) || errors.As(err, &dd) ||
		errors.As(err, &ih) || errors.As(err, &ie)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts an operation up to maxRetries times with
// exponential backoff. Used for storage connects, never for fits.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		time.Sleep(delay)
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
