package core

import (
	"math/rand"
	"testing"

	"econ-observer/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	level := 0.0
	for i := range out {
		level += rng.NormFloat64()
		out[i] = level
	}
	return out
}

func TestADFWhiteNoise(t *testing.T) {
	res, err := ADF(whiteNoise(200, 1), 0)
	require.NoError(t, err)

	// White noise strongly rejects the unit-root null
	assert.Less(t, res.PValue, 0.05)
	assert.Less(t, res.Statistic, res.CriticalVals["5%"])
}

func TestADFRandomWalk(t *testing.T) {
	res, err := ADF(randomWalk(200, 2), 0)
	require.NoError(t, err)

	// A random walk should not reject the unit-root null
	assert.Greater(t, res.PValue, 0.05)
}

func TestADFInsufficientData(t *testing.T) {
	_, err := ADF([]float64{1, 2, 3}, 0)
	require.Error(t, err)
	var insuf *helpers.InsufficientDataError
	assert.ErrorAs(t, err, &insuf)
}

func TestKPSSWhiteNoise(t *testing.T) {
	res, err := KPSS(whiteNoise(200, 3), 0)
	require.NoError(t, err)

	// Level-stationary series must not reject the stationarity null
	assert.Greater(t, res.PValue, 0.05)
}

func TestKPSSTrendingSeries(t *testing.T) {
	n := 200
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5 * float64(i)
	}

	res, err := KPSS(data, 0)
	require.NoError(t, err)

	// A deterministic trend rejects level stationarity
	assert.Less(t, res.PValue, 0.05)
}

func TestDifferencingRestoresStationarity(t *testing.T) {
	walk := randomWalk(200, 4)

	levelRes, err := ADF(walk, 0)
	require.NoError(t, err)
	assert.Greater(t, levelRes.PValue, 0.05)

	diffRes, err := ADF(Diff(walk), 0)
	require.NoError(t, err)
	assert.Less(t, diffRes.PValue, 0.05)
}
