package core

import (
	"math/rand"
	"testing"

	"econ-observer/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOLSExactLinear(t *testing.T) {
	// y = 1 + 2x, noiseless, so the fit must be exact
	n := 20
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		xi := float64(i)
		x[i] = []float64{1, xi}
		y[i] = 1 + 2*xi
	}

	res, err := OLS(x, y)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Coeffs[0], 1e-8)
	assert.InDelta(t, 2.0, res.Coeffs[1], 1e-8)
	assert.InDelta(t, 1.0, res.R2, 1e-10)
	assert.InDelta(t, 0.0, res.RSS, 1e-8)
}

func TestOLSNoisy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 200
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		xi := rng.Float64() * 10
		x[i] = []float64{1, xi}
		y[i] = 3 - 0.5*xi + rng.NormFloat64()*0.1
	}

	res, err := OLS(x, y)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, res.Coeffs[0], 0.1)
	assert.InDelta(t, -0.5, res.Coeffs[1], 0.05)
	assert.Greater(t, res.R2, 0.95)
	assert.Equal(t, n, res.N)
	assert.Equal(t, 2, res.K)
}

func TestOLSDegenerateDesign(t *testing.T) {
	// Second column duplicates the first, rank 2 < 3
	n := 10
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		xi := float64(i)
		x[i] = []float64{1, xi, xi}
		y[i] = xi
	}

	_, err := OLS(x, y)
	require.Error(t, err)
	var degen *helpers.DegenerateDesignError
	assert.ErrorAs(t, err, &degen)
}

func TestOLSInsufficientData(t *testing.T) {
	x := [][]float64{{1, 2}, {1, 3}}
	y := []float64{1, 2}
	_, err := OLS(x, y)
	require.Error(t, err)
	var insuf *helpers.InsufficientDataError
	assert.ErrorAs(t, err, &insuf)
}

func TestVIFDetectsCollinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 100
	x := make([][]float64, n)
	for i := 0; i < n; i++ {
		a := rng.NormFloat64()
		b := rng.NormFloat64()
		// Third column is nearly a copy of the first
		x[i] = []float64{a, b, a + rng.NormFloat64()*0.001}
	}

	vifs, err := VIF(x)
	require.NoError(t, err)
	require.Len(t, vifs, 3)

	// Independent column stays near 1, collinear pair blows up
	assert.Less(t, vifs[1], 2.0)
	assert.Greater(t, vifs[0], 10.0)
	assert.Greater(t, vifs[2], 10.0)
}
