package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyCoarseness(t *testing.T) {
	ordered := []MFrequency{FreqDaily, FreqBusinessDaily, FreqWeekly, FreqMonthly, FreqQuarterly, FreqAnnual}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Coarseness(), ordered[i-1].Coarseness())
	}
	for _, f := range ordered {
		assert.True(t, f.Valid())
	}
	assert.False(t, MFrequency("fortnightly").Valid())
	assert.Equal(t, 0, MFrequency("").Coarseness())
}

// -----------------------------------------------------------------------------

func TestSeriesValidateMonotonic(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	good := MSeries{ID: "ok", Observations: []MObservation{
		{Timestamp: base, Value: 1},
		{Timestamp: base.AddDate(0, 1, 0), Value: 2},
		{Timestamp: base.AddDate(0, 2, 0), Value: 3},
	}}
	assert.True(t, good.ValidateMonotonic())

	duplicate := MSeries{ID: "dup", Observations: []MObservation{
		{Timestamp: base, Value: 1},
		{Timestamp: base, Value: 2},
	}}
	assert.False(t, duplicate.ValidateMonotonic())

	backwards := MSeries{ID: "back", Observations: []MObservation{
		{Timestamp: base.AddDate(0, 1, 0), Value: 1},
		{Timestamp: base, Value: 2},
	}}
	assert.False(t, backwards.ValidateMonotonic())

	empty := MSeries{ID: "empty"}
	assert.True(t, empty.ValidateMonotonic())
	assert.Equal(t, 0, empty.Len())
}

// -----------------------------------------------------------------------------

func TestSeriesValuesAndTimestampsCopy(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := MSeries{ID: "a", Observations: []MObservation{
		{Timestamp: base, Value: 1},
		{Timestamp: base.AddDate(0, 1, 0), Value: 2},
	}}

	values := s.Values()
	values[0] = 99
	assert.Equal(t, 1.0, s.Observations[0].Value)

	stamps := s.Timestamps()
	assert.Equal(t, base, stamps[0])
}

// -----------------------------------------------------------------------------

func TestPanelCompleteRows(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	panel := &MAlignedPanel{
		Frequency: FreqMonthly,
		Index: []time.Time{
			base, base.AddDate(0, 1, 0), base.AddDate(0, 2, 0), base.AddDate(0, 3, 0),
		},
		SeriesIDs: []string{"a", "b"},
		Values: map[string][]float64{
			"a": {1, nan, 3, 4},
			"b": {10, 20, nan, 40},
		},
	}

	assert.Equal(t, []int{0, 3}, panel.CompleteRows())

	data, rows := panel.CompleteMatrix()
	assert.Equal(t, []int{0, 3}, rows)
	assert.Equal(t, []float64{1, 10, 4, 40}, data)

	assert.Equal(t, []float64{1, 3, 4}, panel.ObservedColumn("a"))
	assert.Nil(t, panel.ObservedColumn("missing"))

	col, ok := panel.Column("b")
	assert.True(t, ok)
	assert.Len(t, col, panel.Len())
}

// -----------------------------------------------------------------------------

func TestAnalysisConfigApplyDefaults(t *testing.T) {
	var cfg MAnalysisConfig
	cfg.ApplyDefaults()

	assert.Equal(t, "forward_fill", cfg.FillMethod)
	assert.Equal(t, 3, cfg.MaxFillRun)
	assert.Equal(t, "intersect", cfg.RangePolicy)
	assert.Equal(t, "mean", cfg.Aggregation)
	assert.Equal(t, 0.05, cfg.SignificanceLevel)
	assert.Equal(t, []int{10}, cfg.LjungBoxLags)
	assert.Equal(t, 10.0, cfg.VIFThreshold)
	assert.Equal(t, "additive", cfg.DecompositionType)
	assert.Equal(t, 4, cfg.GrangerMaxLag)
	assert.Equal(t, []string{"pearson", "spearman", "kendall"}, cfg.CorrelationMethods)
	assert.Equal(t, 0.90, cfg.PCAVarianceTarget)
	assert.Equal(t, MMaxOrder{P: 3, D: 2, Q: 3}, cfg.MaxARIMAOrder)
	assert.Equal(t, 12, cfg.ForecastHorizon)
	assert.Equal(t, 0.95, cfg.ConfidenceLevel)
	assert.Equal(t, 5, cfg.BacktestFolds)
	assert.Equal(t, "expanding", cfg.BacktestWindow)
	assert.Equal(t, 24, cfg.MinTrainWindow)
	assert.Equal(t, 4, cfg.MaxParallelFits)
	assert.Equal(t, 2, cfg.ClusterKMin)
	assert.Equal(t, 8, cfg.ClusterKMax)
	assert.Equal(t, "kmeans", cfg.ClusteringAlgorithm)
	assert.Equal(t, "pca", cfg.ReductionMethod)
	assert.Equal(t, int64(42), cfg.RandomSeed)
}

// -----------------------------------------------------------------------------

func TestAnalysisConfigDefaultsPreserveExplicitValues(t *testing.T) {
	cfg := MAnalysisConfig{
		FillMethod:      "drop",
		RangePolicy:     "union",
		ForecastHorizon: 6,
		ClusterKMin:     3,
		ClusterKMax:     5,
		RandomSeed:      7,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "drop", cfg.FillMethod)
	assert.Equal(t, "union", cfg.RangePolicy)
	assert.Equal(t, 6, cfg.ForecastHorizon)
	assert.Equal(t, 3, cfg.ClusterKMin)
	assert.Equal(t, 5, cfg.ClusterKMax)
	assert.Equal(t, int64(7), cfg.RandomSeed)
}
