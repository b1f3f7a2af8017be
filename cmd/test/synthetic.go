package main

import (
	"math"
	"math/rand"
	"time"

	"econ-observer/src/models"
)

// -----------------------------------------------------------------------------

// monthlyTimestamps returns n consecutive first-of-month dates from start.
func monthlyTimestamps(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, i, 0)
	}
	return out
}

// -----------------------------------------------------------------------------

// linearSeries produces value = base + slope*t, no noise.
func linearSeries(id string, start time.Time, n int, base, slope float64) models.MSeries {
	ts := monthlyTimestamps(start, n)
	obs := make([]models.MObservation, n)
	for i := range obs {
		obs[i] = models.MObservation{Timestamp: ts[i], Value: base + slope*float64(i)}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}

// -----------------------------------------------------------------------------

// seasonalSeries produces a trending series with an additive sinusoidal cycle
// of the given period, plus mild Gaussian noise.
func seasonalSeries(id string, start time.Time, n int, base, slope, amplitude float64, period int, seed int64) models.MSeries {
	rng := rand.New(rand.NewSource(seed))
	ts := monthlyTimestamps(start, n)
	obs := make([]models.MObservation, n)
	for i := range obs {
		cycle := amplitude * math.Sin(2*math.Pi*float64(i)/float64(period))
		obs[i] = models.MObservation{
			Timestamp: ts[i],
			Value:     base + slope*float64(i) + cycle + rng.NormFloat64()*0.25,
		}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}

// -----------------------------------------------------------------------------

// whiteNoiseSeries produces iid Gaussian observations.
func whiteNoiseSeries(id string, start time.Time, n int, mean, std float64, seed int64) models.MSeries {
	rng := rand.New(rand.NewSource(seed))
	ts := monthlyTimestamps(start, n)
	obs := make([]models.MObservation, n)
	for i := range obs {
		obs[i] = models.MObservation{Timestamp: ts[i], Value: mean + rng.NormFloat64()*std}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}

// -----------------------------------------------------------------------------

// randomWalkSeries accumulates Gaussian steps, so the level is non-stationary
// but the first difference is white noise.
func randomWalkSeries(id string, start time.Time, n int, level, stepStd float64, seed int64) models.MSeries {
	rng := rand.New(rand.NewSource(seed))
	ts := monthlyTimestamps(start, n)
	obs := make([]models.MObservation, n)
	for i := range obs {
		level += rng.NormFloat64() * stepStd
		obs[i] = models.MObservation{Timestamp: ts[i], Value: level}
	}
	return models.MSeries{ID: id, Observations: obs, Frequency: models.FreqMonthly}
}
