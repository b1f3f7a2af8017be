package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-observer/src/models"
)

// recordingNotifier captures run events for inspection. Notify is called from
// the engine's component goroutines, so access is locked.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.MRunEvent
}

func (n *recordingNotifier) Notify(event models.MRunEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) snapshot() []models.MRunEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.MRunEvent, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) byType(eventType string) []models.MRunEvent {
	var out []models.MRunEvent
	for _, e := range n.snapshot() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func TestEngineRunFullPipeline(t *testing.T) {
	cfg := testConfig()
	notifier := &recordingNotifier{}
	engine := NewEngine(cfg, testLogger(cfg), notifier)

	n := 60
	series := []models.MSeries{
		monthlySeries("gdp_trend", linearValues(n, 100, 2)),
		monthlySeries("retail_seasonal", sineValues(n, 50, 8, 12, 0)),
		monthlySeries("shock_noise", noiseValues(n, 7)),
		monthlySeries("fx_walk", walkValues(n, 11)),
	}

	bundle, err := engine.Run(context.Background(), series)
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.NotEmpty(t, bundle.RunID)
	assert.False(t, bundle.CreatedAt.IsZero())
	assert.Greater(t, bundle.Elapsed, time.Duration(0))

	// Panel summary covers every input series.
	assert.Equal(t, n, bundle.Panel.Rows)
	assert.Len(t, bundle.Panel.SeriesIDs, 4)
	for _, id := range bundle.Panel.SeriesIDs {
		stats, ok := bundle.Panel.Statistics[id]
		require.True(t, ok, "missing summary statistics for %s", id)
		assert.Contains(t, stats, "mean")
		assert.Contains(t, stats, "median")
	}

	// One stationarity verdict per series, each carrying both tests.
	require.Len(t, bundle.Stationarity, 4)
	for _, v := range bundle.Stationarity {
		assert.Contains(t, []string{
			models.StationarityStationary,
			models.StationarityNonStationary,
			models.StationarityInconclusive,
		}, v.Label)
		assert.Equal(t, "adf", v.ADF.Test)
		assert.Equal(t, "kpss", v.KPSS.Test)
	}

	// All three correlation methods on the same id set.
	require.Len(t, bundle.Correlations, 3)
	for _, c := range bundle.Correlations {
		assert.Equal(t, bundle.Panel.SeriesIDs, c.SeriesIDs)
		assert.Len(t, c.Matrix, 4)
	}

	// Pairwise Granger over 4 series yields 12 ordered pairs.
	assert.Len(t, bundle.Granger, 12)

	require.NotNil(t, bundle.PCA)
	assert.NotEmpty(t, bundle.PCA.ExplainedRatios)

	// One fit per panel column, in panel order.
	require.Len(t, bundle.Forecasts, 4)
	for i, fit := range bundle.Forecasts {
		assert.Equal(t, bundle.Panel.SeriesIDs[i], fit.SeriesID)
		if !fit.Failed {
			assert.Equal(t, models.StateBacktested, fit.State)
			assert.Len(t, fit.Forecast, cfg.Analysis.ForecastHorizon)
		}
	}

	// Period and series clustering both ran.
	require.Len(t, bundle.Clusters, 2)
	modes := map[string]bool{}
	for _, c := range bundle.Clusters {
		modes[c.Mode] = true
		assert.GreaterOrEqual(t, c.K, cfg.Analysis.ClusterKMin)
	}
	assert.True(t, modes["period"])
	assert.True(t, modes["series"])

	// Findings are ranked 1..n with non-increasing severity.
	require.NotEmpty(t, bundle.Findings)
	for i, f := range bundle.Findings {
		assert.Equal(t, i+1, f.Rank)
		if i > 0 {
			assert.LessOrEqual(t, f.Severity, bundle.Findings[i-1].Severity)
		}
	}
}

// -----------------------------------------------------------------------------

func TestEngineRunEventSequence(t *testing.T) {
	cfg := testConfig()
	notifier := &recordingNotifier{}
	engine := NewEngine(cfg, testLogger(cfg), notifier)

	series := []models.MSeries{
		monthlySeries("a", linearValues(60, 10, 1)),
		monthlySeries("b", noiseValues(60, 3)),
		monthlySeries("c", walkValues(60, 5)),
	}

	bundle, err := engine.Run(context.Background(), series)
	require.NoError(t, err)

	events := notifier.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, "run_started", events[0].Type)
	assert.Equal(t, "run_done", events[len(events)-1].Type)

	seen := map[string]bool{}
	for _, e := range notifier.byType("component_done") {
		assert.Equal(t, bundle.RunID, e.RunID)
		seen[e.Component] = true
	}
	for _, component := range []string{"aligner", "diagnostics", "modeler", "forecaster", "segmenter"} {
		assert.True(t, seen[component], "no component_done event for %s", component)
	}

	// The aligner and diagnostics run before the fan-out, so their events
	// precede every other component's.
	assert.Equal(t, "component_done", events[1].Type)
	assert.Equal(t, "aligner", events[1].Component)
	assert.Equal(t, "diagnostics", events[2].Component)

	for _, e := range events {
		assert.Equal(t, bundle.RunID, e.RunID)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.Empty(t, notifier.byType("run_failed"))
}

// -----------------------------------------------------------------------------

func TestEngineRunAlignmentFailure(t *testing.T) {
	cfg := testConfig()
	notifier := &recordingNotifier{}
	engine := NewEngine(cfg, testLogger(cfg), notifier)

	// Disjoint observation ranges leave no common rows to intersect.
	series := []models.MSeries{
		monthlySeriesFrom("early", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), linearValues(24, 10, 1)),
		monthlySeriesFrom("late", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), linearValues(24, 5, 1)),
	}

	bundle, err := engine.Run(context.Background(), series)
	require.Error(t, err)
	assert.Nil(t, bundle)

	failed := notifier.byType("run_failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "aligner", failed[0].Component)
	assert.NotEmpty(t, failed[0].Message)
	assert.Empty(t, notifier.byType("run_done"))
}

// -----------------------------------------------------------------------------

func TestEngineRunRegressionSpecs(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Regression = []models.MRegressionSpec{
		{Target: "y", Predictors: []string{"x"}},
	}
	engine := NewEngine(cfg, testLogger(cfg), nil)

	x := noiseValues(60, 9)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}
	series := []models.MSeries{
		monthlySeries("x", x),
		monthlySeries("y", y),
	}

	bundle, err := engine.Run(context.Background(), series)
	require.NoError(t, err)

	require.Len(t, bundle.Regressions, 1)
	fit := bundle.Regressions[0]
	assert.Equal(t, models.FamilyOLS, fit.Family)
	assert.Equal(t, "y", fit.SeriesID)
	assert.InDelta(t, 1.0, fit.Metrics["r2"], 1e-6)
	assert.InDelta(t, 2.0, fit.Params["x_lag0"], 1e-6)
}

// -----------------------------------------------------------------------------

func TestEngineRecordsStationarityFailures(t *testing.T) {
	cfg := testConfig()
	engine := NewEngine(cfg, testLogger(cfg), nil)

	// Too few observations for the unit-root tests. The run still completes,
	// and the missing verdicts are recorded instead of silently dropped.
	bundle, err := engine.Run(context.Background(), []models.MSeries{
		monthlySeries("a", linearValues(6, 0, 1)),
		monthlySeries("b", noiseValues(6, 3)),
	})
	require.NoError(t, err)
	assert.Empty(t, bundle.Stationarity)

	var sources []string
	for _, f := range findingsByCategory(bundle.Findings, "component_failure") {
		sources = append(sources, f.Sources...)
	}
	assert.Contains(t, sources, "component:stationarity:a")
	assert.Contains(t, sources, "component:stationarity:b")
}

// -----------------------------------------------------------------------------

func TestEngineRunNilNotifier(t *testing.T) {
	cfg := testConfig()
	engine := NewEngine(cfg, testLogger(cfg), nil)

	series := []models.MSeries{
		monthlySeries("a", linearValues(60, 10, 1)),
		monthlySeries("b", noiseValues(60, 3)),
	}

	bundle, err := engine.Run(context.Background(), series)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.RunID)
}
