package analysis

import (
	"math"
	"testing"
	"time"

	"econ-observer/src/helpers"
	"econ-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignSameFrequency(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	panel, err := a.Align([]models.MSeries{
		monthlySeries("a", []float64{1, 2, 3, 4, 5, 6}),
		monthlySeries("b", []float64{2, 4, 6, 8, 10, 12}),
	})
	require.NoError(t, err)

	assert.Equal(t, models.FreqMonthly, panel.Frequency)
	assert.Equal(t, []string{"a", "b"}, panel.SeriesIDs)
	assert.Equal(t, 6, panel.Len())
	assert.Len(t, panel.CompleteRows(), 6)

	col, ok := panel.Column("b")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, col)
}

func TestAlignIntersectRange(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	// b starts three months later, intersect keeps the shared window
	panel, err := a.Align([]models.MSeries{
		monthlySeries("a", linearValues(12, 0, 1)),
		monthlySeriesFrom("b", testStart.AddDate(0, 3, 0), linearValues(9, 100, 1)),
	})
	require.NoError(t, err)

	assert.Equal(t, 9, panel.Len())
	assert.Equal(t, testStart.AddDate(0, 3, 0), panel.Index[0])
}

func TestAlignUnionRangeKeepsGapsAsNaN(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.RangePolicy = models.RangeUnion
	cfg.Analysis.FillMethod = models.FillDrop
	a := NewAligner(cfg, testLogger(cfg))

	panel, err := a.Align([]models.MSeries{
		monthlySeries("a", linearValues(12, 0, 1)),
		monthlySeriesFrom("b", testStart.AddDate(0, 6, 0), linearValues(6, 5, 1)),
	})
	require.NoError(t, err)

	assert.Equal(t, 12, panel.Len())
	b, _ := panel.Column("b")
	for i := 0; i < 6; i++ {
		assert.True(t, math.IsNaN(b[i]), "row %d of b should be missing", i)
	}
	assert.Len(t, panel.CompleteRows(), 6)
}

func TestAlignMixedFrequencyDownsamples(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	// Monthly + quarterly panel aligns to quarterly; monthly values within a
	// quarter are averaged.
	panel, err := a.Align([]models.MSeries{
		monthlySeries("m", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}),
		quarterlySeries("q", []float64{10, 20, 30, 40}),
	})
	require.NoError(t, err)

	assert.Equal(t, models.FreqQuarterly, panel.Frequency)
	assert.Equal(t, 4, panel.Len())

	m, _ := panel.Column("m")
	assert.InDelta(t, 2.0, m[0], 1e-9) // mean of 1,2,3
	assert.InDelta(t, 5.0, m[1], 1e-9)
	assert.InDelta(t, 8.0, m[2], 1e-9)
	assert.InDelta(t, 11.0, m[3], 1e-9)
}

func TestAlignAggregationLast(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Aggregation = models.AggLast
	a := NewAligner(cfg, testLogger(cfg))

	panel, err := a.Align([]models.MSeries{
		monthlySeries("m", []float64{1, 2, 3, 4, 5, 6}),
		quarterlySeries("q", []float64{10, 20}),
	})
	require.NoError(t, err)

	m, _ := panel.Column("m")
	assert.InDelta(t, 3.0, m[0], 1e-9)
	assert.InDelta(t, 6.0, m[1], 1e-9)
}

func TestAlignPerSeriesFillPolicies(t *testing.T) {
	cfg := testConfig() // panel-wide forward fill
	a := NewAligner(cfg, testLogger(cfg))

	nan := math.NaN()
	filled := monthlySeries("filled", []float64{1, nan, 3, 4, 5, 6})
	dropped := monthlySeries("dropped", []float64{10, nan, 30, 40, 50, 60})
	dropped.FillMethod = models.FillDrop

	panel, err := a.Align([]models.MSeries{filled, dropped})
	require.NoError(t, err)

	f, _ := panel.Column("filled")
	assert.Equal(t, 1.0, f[1], "panel-wide forward fill bridges the gap")

	d, _ := panel.Column("dropped")
	assert.True(t, math.IsNaN(d[1]), "per-series drop keeps the gap missing")
	assert.Equal(t, []int{0, 2, 3, 4, 5}, panel.CompleteRows())
}

func TestAlignPerSeriesAggregation(t *testing.T) {
	cfg := testConfig() // panel-wide mean
	a := NewAligner(cfg, testLogger(cfg))

	last := monthlySeries("last", []float64{1, 2, 3, 4, 5, 6})
	last.Aggregation = models.AggLast

	panel, err := a.Align([]models.MSeries{
		last,
		monthlySeries("mean", []float64{1, 2, 3, 4, 5, 6}),
		quarterlySeries("q", []float64{10, 20}),
	})
	require.NoError(t, err)

	l, _ := panel.Column("last")
	assert.Equal(t, []float64{3, 6}, l)
	m, _ := panel.Column("mean")
	assert.InDelta(t, 2.0, m[0], 1e-9)
	assert.InDelta(t, 5.0, m[1], 1e-9)
}

func TestAlignRejectsUnknownPerSeriesFill(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	bad := monthlySeries("bad", linearValues(6, 0, 1))
	bad.FillMethod = "extrapolate"

	_, err := a.Align([]models.MSeries{bad})
	require.Error(t, err)
	var cfgErr *helpers.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAlignUpsamplingNeedsPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.FrequencyOverride = models.FreqMonthly
	cfg.Analysis.FillMethod = "unknown_policy"
	a := NewAligner(cfg, testLogger(cfg))

	_, err := a.Align([]models.MSeries{
		monthlySeries("m", linearValues(12, 0, 1)),
		quarterlySeries("q", []float64{10, 20, 30, 40}),
	})
	require.Error(t, err)

	var mismatch *helpers.FrequencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "q", mismatch.SeriesID)
}

func TestAlignUpsamplingForwardFill(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.FrequencyOverride = models.FreqMonthly
	a := NewAligner(cfg, testLogger(cfg))

	panel, err := a.Align([]models.MSeries{
		monthlySeries("m", linearValues(12, 0, 1)),
		quarterlySeries("q", []float64{10, 20, 30, 40}),
	})
	require.NoError(t, err)

	q, _ := panel.Column("q")
	require.Len(t, q, 12)
	// Quarterly value holds through the months of its quarter
	assert.Equal(t, []float64{10, 10, 10, 20, 20, 20, 30, 30, 30, 40, 40, 40}, q)
}

func TestAlignSingleOverlapFails(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	// Ranges overlap in exactly one period
	_, err := a.Align([]models.MSeries{
		monthlySeries("a", linearValues(6, 0, 1)),
		monthlySeriesFrom("b", testStart.AddDate(0, 5, 0), linearValues(6, 0, 1)),
	})
	require.Error(t, err)
	var mismatch *helpers.FrequencyMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestAlignDisjointRangesFail(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	_, err := a.Align([]models.MSeries{
		monthlySeries("a", linearValues(6, 0, 1)),
		monthlySeriesFrom("b", testStart.AddDate(2, 0, 0), linearValues(6, 0, 1)),
	})
	assert.Error(t, err)
}

func TestAlignRejectsNonMonotonicTimestamps(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	bad := monthlySeries("bad", []float64{1, 2, 3})
	bad.Observations[2].Timestamp = bad.Observations[0].Timestamp

	_, err := a.Align([]models.MSeries{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")
}

func TestAlignInfersMissingFrequency(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	s := monthlySeries("infer", linearValues(24, 0, 1))
	s.Frequency = ""

	panel, err := a.Align([]models.MSeries{s})
	require.NoError(t, err)
	assert.Equal(t, models.FreqMonthly, panel.Frequency)
}

func TestForwardFillBoundedByMaxRun(t *testing.T) {
	col := []float64{1, math.NaN(), math.NaN(), math.NaN(), math.NaN(), 6}
	forwardFill(col, 2)

	assert.Equal(t, 1.0, col[1])
	assert.Equal(t, 1.0, col[2])
	assert.True(t, math.IsNaN(col[3]), "run beyond max must stay missing")
	assert.True(t, math.IsNaN(col[4]))
	assert.Equal(t, 6.0, col[5])
}

func TestLinearInterpolateInteriorOnly(t *testing.T) {
	col := []float64{math.NaN(), 2, math.NaN(), math.NaN(), 8, math.NaN()}
	linearInterpolate(col)

	assert.True(t, math.IsNaN(col[0]), "leading gap stays missing")
	assert.InDelta(t, 4.0, col[2], 1e-9)
	assert.InDelta(t, 6.0, col[3], 1e-9)
	assert.True(t, math.IsNaN(col[5]), "trailing gap stays missing")
}

func TestAlignEmptyInput(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	_, err := a.Align(nil)
	require.Error(t, err)
	var insuf *helpers.InsufficientDataError
	assert.ErrorAs(t, err, &insuf)

	_, err = a.Align([]models.MSeries{{ID: "empty", Frequency: models.FreqMonthly}})
	assert.Error(t, err)
}

// Quarterly truncation anchors to the first month of the quarter.
func TestAlignQuarterlyAnchor(t *testing.T) {
	cfg := testConfig()
	a := NewAligner(cfg, testLogger(cfg))

	obs := []models.MObservation{
		{Timestamp: time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC), Value: 1},
		{Timestamp: time.Date(2020, 5, 15, 0, 0, 0, 0, time.UTC), Value: 2},
		{Timestamp: time.Date(2020, 8, 15, 0, 0, 0, 0, time.UTC), Value: 3},
	}
	s := models.MSeries{ID: "q", Observations: obs, Frequency: models.FreqQuarterly}

	panel, err := a.Align([]models.MSeries{s})
	require.NoError(t, err)
	assert.Equal(t, time.January, panel.Index[0].Month())
}
