package models

import (
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Frequency
// -----------------------------------------------------------------------------

// MFrequency is the declared native sampling frequency of a series.
type MFrequency string

const (
	FreqDaily         MFrequency = "daily"
	FreqBusinessDaily MFrequency = "business"
	FreqWeekly        MFrequency = "weekly"
	FreqMonthly       MFrequency = "monthly"
	FreqQuarterly     MFrequency = "quarterly"
	FreqAnnual        MFrequency = "annual"
)

// -----------------------------------------------------------------------------

// Coarseness ranks frequencies from finest (smallest) to coarsest (largest).
// Unknown frequencies rank as 0 so they never win a coarsest-frequency vote.
func (f MFrequency) Coarseness() int {
	switch f {
	case FreqDaily:
		return 1
	case FreqBusinessDaily:
		return 2
	case FreqWeekly:
		return 3
	case FreqMonthly:
		return 4
	case FreqQuarterly:
		return 5
	case FreqAnnual:
		return 6
	}
	return 0
}

// -----------------------------------------------------------------------------

// Valid reports whether f is one of the recognized frequencies.
func (f MFrequency) Valid() bool {
	return f.Coarseness() > 0
}

// -----------------------------------------------------------------------------
// MObservation
// -----------------------------------------------------------------------------

type MObservation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// -----------------------------------------------------------------------------
// MSeries
// -----------------------------------------------------------------------------

// MSeries is a named, time-indexed sequence of numeric observations.
// Timestamps must be strictly increasing with no duplicates.
type MSeries struct {
	ID           string         `json:"id"`
	Observations []MObservation `json:"observations"`
	Frequency    MFrequency     `json:"frequency"`
	Unit         string         `json:"unit,omitempty"`
	Scale        float64        `json:"scale,omitempty"`

	// Per-series alignment overrides; empty falls back to the panel-wide
	// setting.
	FillMethod  string `json:"fill_method,omitempty"`
	Aggregation string `json:"aggregation,omitempty"`
}

// -----------------------------------------------------------------------------

func (s *MSeries) Len() int {
	return len(s.Observations)
}

// -----------------------------------------------------------------------------

// Values returns the observation values as a fresh slice.
func (s *MSeries) Values() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Value
	}
	return out
}

// -----------------------------------------------------------------------------

// Timestamps returns the observation timestamps as a fresh slice.
func (s *MSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Timestamp
	}
	return out
}

// -----------------------------------------------------------------------------

// ValidateMonotonic checks the strictly-increasing timestamp invariant.
func (s *MSeries) ValidateMonotonic() bool {
	for i := 1; i < len(s.Observations); i++ {
		if !s.Observations[i].Timestamp.After(s.Observations[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// MAlignedPanel
// -----------------------------------------------------------------------------

// MAlignedPanel is a set of series resampled to one shared frequency and
// time range. Every value slice has the same length as Index. Missing cells
// are explicit NaN markers, never silently filled values.
type MAlignedPanel struct {
	Frequency MFrequency           `json:"frequency"`
	Index     []time.Time          `json:"index"`
	Values    map[string][]float64 `json:"values"`
	SeriesIDs []string             `json:"series_ids"` // deterministic ordering of Values keys
}

// -----------------------------------------------------------------------------

func (p *MAlignedPanel) Len() int {
	return len(p.Index)
}

// -----------------------------------------------------------------------------

// Column returns the aligned values for one series id (shared backing array;
// callers must treat it as read-only).
func (p *MAlignedPanel) Column(id string) ([]float64, bool) {
	v, ok := p.Values[id]
	return v, ok
}

// -----------------------------------------------------------------------------

// ObservedColumn returns the non-missing values of one series in index order.
func (p *MAlignedPanel) ObservedColumn(id string) []float64 {
	col, ok := p.Values[id]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// CompleteRows returns the indices of rows where every series has a value.
// Cross-series analyses (regression, correlation, PCA, clustering) operate on
// this subset so a gap in one series never fabricates data in another.
func (p *MAlignedPanel) CompleteRows() []int {
	rows := make([]int, 0, len(p.Index))
	for i := range p.Index {
		ok := true
		for _, id := range p.SeriesIDs {
			if math.IsNaN(p.Values[id][i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}

// -----------------------------------------------------------------------------

// CompleteMatrix returns the complete-row submatrix as row-major data together
// with the retained row indices. Columns follow SeriesIDs order.
func (p *MAlignedPanel) CompleteMatrix() (data []float64, rows []int) {
	rows = p.CompleteRows()
	k := len(p.SeriesIDs)
	data = make([]float64, 0, len(rows)*k)
	for _, r := range rows {
		for _, id := range p.SeriesIDs {
			data = append(data, p.Values[id][r])
		}
	}
	return data, rows
}
