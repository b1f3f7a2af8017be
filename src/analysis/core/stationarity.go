package core

import (
	"math"

	"econ-observer/src/helpers"
)

// -----------------------------------------------------------------------------
// Augmented Dickey-Fuller
// -----------------------------------------------------------------------------

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64
}

const adfMinObs = 10

// ADF performs the Augmented Dickey-Fuller unit-root test with constant.
// The null hypothesis is that the series has a unit root (is non-stationary);
// p < alpha rejects the null in favor of stationarity.
func ADF(data []float64, maxLag int) (*ADFResult, error) {
	n := len(data)
	if n < adfMinObs {
		return nil, helpers.NewInsufficientDataError("adf", adfMinObs, n)
	}

	// Default lag selection: floor((n-1)^(1/3))
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := Diff(data)

	// Regression: delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i})
	// The test statistic is the t-stat on beta.
	nObs := n - maxLag - 1
	if nObs < adfMinObs {
		return nil, helpers.NewInsufficientDataError("adf", adfMinObs+maxLag+1, n)
	}

	y := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff[t]

		row := make([]float64, 2+maxLag)
		row[0] = 1
		row[1] = data[t]
		for j := 1; j <= maxLag; j++ {
			row[1+j] = diff[t-j]
		}
		x[i] = row
	}

	fit, err := OLS(x, y)
	if err != nil {
		return nil, err
	}
	if fit.StdErr[1] == 0 {
		return nil, helpers.NewInsufficientDataError("adf", adfMinObs, n)
	}

	tStat := fit.Coeffs[1] / fit.StdErr[1]

	return &ADFResult{
		Statistic: tStat,
		PValue:    mackinnonPValue(tStat),
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
	}, nil
}

// -----------------------------------------------------------------------------
// KPSS
// -----------------------------------------------------------------------------

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin level-stationarity test.
// The null hypothesis is that the series is stationary; p < alpha rejects the
// null in favor of a unit root.
func KPSS(data []float64, nlags int) (*KPSSResult, error) {
	n := len(data)
	if n < adfMinObs {
		return nil, helpers.NewInsufficientDataError("kpss", adfMinObs, n)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}

	mean, _ := CalculateMeanStd(data)
	residuals := make([]float64, n)
	for i, v := range data {
		residuals[i] = v - mean
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	return &KPSSResult{
		Statistic: stat,
		PValue:    kpssPValue(stat),
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%": 0.347,
			"5%":  0.463,
			"1%":  0.739,
		},
	}, nil
}

// -----------------------------------------------------------------------------
// P-value approximations
// -----------------------------------------------------------------------------

// mackinnonPValue approximates the ADF p-value using the MacKinnon (1994)
// response surface for the constant-only regression.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

// kpssPValue interpolates the KPSS p-value from the level-stationarity
// critical value table.
func kpssPValue(stat float64) float64 {
	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return math.Min(0.10+(0.347-stat)*0.5, 0.99)
	}
}
