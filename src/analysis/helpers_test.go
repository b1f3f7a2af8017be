package analysis

import (
	"math"
	"math/rand"
	"time"

	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

func testConfig() *models.MConfig {
	cfg := &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
	}
	cfg.Analysis.ApplyDefaults()
	return cfg
}

func testLogger(cfg *models.MConfig) *logger.Logger {
	return logger.NewLogger(cfg, "test")
}

// -----------------------------------------------------------------------------

var testStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// monthlySeries builds a monthly series from explicit values starting at
// testStart.
func monthlySeries(id string, values []float64) models.MSeries {
	obs := make([]models.MObservation, len(values))
	for i, v := range values {
		obs[i] = models.MObservation{Timestamp: testStart.AddDate(0, i, 0), Value: v}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}

// monthlySeriesFrom is monthlySeries with a custom start date.
func monthlySeriesFrom(id string, start time.Time, values []float64) models.MSeries {
	obs := make([]models.MObservation, len(values))
	for i, v := range values {
		obs[i] = models.MObservation{Timestamp: start.AddDate(0, i, 0), Value: v}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}

// quarterlySeries builds a quarterly series starting at testStart.
func quarterlySeries(id string, values []float64) models.MSeries {
	obs := make([]models.MObservation, len(values))
	for i, v := range values {
		obs[i] = models.MObservation{Timestamp: testStart.AddDate(0, 3*i, 0), Value: v}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqQuarterly}
}

// -----------------------------------------------------------------------------

func linearValues(n int, base, slope float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + slope*float64(i)
	}
	return out
}

func noiseValues(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func walkValues(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	level := 0.0
	for i := range out {
		level += rng.NormFloat64()
		out[i] = level
	}
	return out
}

func sineValues(n int, base, amplitude float64, period int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period)+phase)
	}
	return out
}
