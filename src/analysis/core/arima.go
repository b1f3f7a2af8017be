package core

import (
	"math"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// ARIMA
// -----------------------------------------------------------------------------

// ARIMAOrder represents model order (p, d, q).
type ARIMAOrder struct {
	P int
	D int
	Q int
}

// ParamCount returns the number of estimated parameters (AR + MA + intercept).
func (o ARIMAOrder) ParamCount() int {
	return o.P + o.Q + 1
}

// -----------------------------------------------------------------------------

// ARIMAModel is a fitted autoregressive integrated moving average model,
// estimated by conditional sum of squares.
type ARIMAModel struct {
	Order     ARIMAOrder
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	BIC       float64
	LogLik    float64
	Converged bool

	data      []float64
	diffData  []float64
	residuals []float64
	fitted    []float64
	isFit     bool
}

// -----------------------------------------------------------------------------

// NewARIMA creates an unfitted model with the specified order.
func NewARIMA(p, d, q int) *ARIMAModel {
	return &ARIMAModel{
		Order:    ARIMAOrder{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// -----------------------------------------------------------------------------

// Fit estimates the model on the series by CSS.
func (m *ARIMAModel) Fit(data []float64) error {
	minObs := m.Order.P + m.Order.Q + m.Order.D + 10
	if len(data) < minObs {
		return helpers.NewInsufficientDataError("arima fit", minObs, len(data))
	}

	m.data = append([]float64(nil), data...)

	diff := m.data
	for i := 0; i < m.Order.D; i++ {
		diff = Diff(diff)
		if len(diff) == 0 {
			return helpers.NewInsufficientDataError("arima differencing", m.Order.D+1, len(data))
		}
	}
	m.diffData = diff

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()
	m.isFit = true
	return nil
}

// -----------------------------------------------------------------------------

func (m *ARIMAModel) fitCSS() error {
	y := m.diffData
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	if p == 0 && q == 0 {
		// White noise (possibly with drift after differencing).
		mean, _ := CalculateMeanStd(y)
		m.Intercept = mean
		m.residuals = make([]float64, n)
		m.fitted = make([]float64, n)
		variance := 0.0
		for i, v := range y {
			m.residuals[i] = v - mean
			m.fitted[i] = mean
			variance += m.residuals[i] * m.residuals[i]
		}
		if n > 1 {
			m.Variance = variance / float64(n-1)
		}
		m.Converged = true
		return nil
	}

	// Yule-Walker initial AR estimates.
	if p > 0 {
		if acf := ACF(y, p); acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	return m.optimizeCSS(y)
}

// -----------------------------------------------------------------------------

// optimizeCSS refines parameters with gradient descent on the conditional
// sum of squares.
func (m *ARIMAModel) optimizeCSS(y []float64) error {
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	mean, _ := CalculateMeanStd(y)
	m.Intercept = mean

	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)

	startIdx := p
	if q > startIdx {
		startIdx = q
	}

	m.Converged = false
	for iter := 0; iter < maxIter; iter++ {
		residuals := make([]float64, n)
		prevSSE := 0.0

		for t := startIdx; t < n; t++ {
			pred := m.predictOne(y, residuals, t)
			residuals[t] = y[t] - pred
			prevSSE += residuals[t] * residuals[t]
		}

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := startIdx; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.ARCoeffs[i] -= learningRate * arGrad[i] / float64(n)
			m.ARCoeffs[i] = math.Max(-0.99, math.Min(0.99, m.ARCoeffs[i]))
		}
		for i := 0; i < q; i++ {
			m.MACoeffs[i] -= learningRate * maGrad[i] / float64(n)
			m.MACoeffs[i] = math.Max(-0.99, math.Min(0.99, m.MACoeffs[i]))
		}

		newSSE := 0.0
		for t := startIdx; t < n; t++ {
			pred := m.predictOne(y, residuals, t)
			residuals[t] = y[t] - pred
			newSSE += residuals[t] * residuals[t]
		}

		if math.IsNaN(newSSE) || math.IsInf(newSSE, 0) {
			return helpers.NewNonConvergenceWarning("", "arima", "")
		}
		if math.Abs(prevSSE-newSSE) < tolerance {
			m.Converged = true
			break
		}
	}

	// Final residual pass on the refined parameters.
	m.residuals = make([]float64, n)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < startIdx {
			m.fitted[t] = m.Intercept
			m.residuals[t] = y[t] - m.fitted[t]
			continue
		}
		pred := m.predictOne(y, m.residuals, t)
		m.fitted[t] = pred
		m.residuals[t] = y[t] - pred
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > p+q+1 {
		m.Variance = sse / float64(count-p-q-1)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (m *ARIMAModel) predictOne(y, residuals []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	return pred
}

// -----------------------------------------------------------------------------

// calculateIC computes AIC, BIC and the Gaussian log-likelihood.
func (m *ARIMAModel) calculateIC() {
	n := len(m.residuals)
	k := m.Order.ParamCount()

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	// Floor the variance so a perfect in-sample fit scores as very likely
	// instead of degenerating the criterion to infinity.
	v := m.Variance
	if v < 1e-12 {
		v = 1e-12
	}
	m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(v) - sse/(2*v)

	m.AIC = -2*m.LogLik + 2*float64(k)
	m.BIC = -2*m.LogLik + float64(k)*math.Log(float64(n))
}

// -----------------------------------------------------------------------------

// Predict generates point forecasts for steps ahead on the original scale.
func (m *ARIMAModel) Predict(steps int) ([]float64, error) {
	if !m.isFit {
		return nil, helpers.NewInsufficientDataError("arima predict", 1, 0)
	}
	if steps < 1 {
		return nil, helpers.NewInsufficientDataError("arima predict steps", 1, steps)
	}

	p := m.Order.P
	q := m.Order.Q
	y := m.diffData
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extRes := make([]float64, n+steps)
	copy(extRes, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extRes[t-i-1]
		}
		extY[t] = pred
	}

	forecasts := append([]float64(nil), extY[n:]...)
	if m.Order.D > 0 {
		forecasts = m.integrate(forecasts)
	}
	return forecasts, nil
}

// -----------------------------------------------------------------------------

// PredictIntervals returns point forecasts with symmetric confidence bounds
// from the psi-weight analytic variance.
func (m *ARIMAModel) PredictIntervals(steps int, confidence float64) (point, lower, upper []float64, err error) {
	point, err = m.Predict(steps)
	if err != nil {
		return nil, nil, nil, err
	}

	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	psi := m.psiWeights(steps)

	// For integrated models the forecast variance accumulates through the
	// inverse differencing, so cumulate psi weights d times.
	for d := 0; d < m.Order.D; d++ {
		for j := 1; j < len(psi); j++ {
			psi[j] += psi[j-1]
		}
	}

	lower = make([]float64, steps)
	upper = make([]float64, steps)
	varSum := 0.0
	for h := 0; h < steps; h++ {
		varSum += psi[h] * psi[h]
		se := math.Sqrt(m.Variance * varSum)
		lower[h] = point[h] - z*se
		upper[h] = point[h] + z*se
	}
	return point, lower, upper, nil
}

// -----------------------------------------------------------------------------

// psiWeights computes the MA(inf) representation weights psi_0..psi_{steps-1}.
func (m *ARIMAModel) psiWeights(steps int) []float64 {
	psi := make([]float64, steps)
	psi[0] = 1
	for j := 1; j < steps; j++ {
		v := 0.0
		if j <= m.Order.Q {
			v = m.MACoeffs[j-1]
		}
		for i := 1; i <= m.Order.P && j-i >= 0; i++ {
			v += m.ARCoeffs[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// -----------------------------------------------------------------------------

// integrate undoes differencing to return forecasts on the original scale.
func (m *ARIMAModel) integrate(forecasts []float64) []float64 {
	d := m.Order.D
	original := m.data

	result := append([]float64(nil), forecasts...)
	for i := 0; i < d; i++ {
		lastVal := original[len(original)-1-i]
		for j := 0; j < len(result); j++ {
			if j == 0 {
				result[j] += lastVal
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}

// -----------------------------------------------------------------------------

// Residuals returns a copy of the model residuals.
func (m *ARIMAModel) Residuals() []float64 {
	if !m.isFit {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// -----------------------------------------------------------------------------

// yuleWalker estimates AR coefficients from the ACF by Levinson-Durbin
// recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	if order == 1 {
		phi[0] = acf[1]
		return phi
	}

	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		if v == 0 {
			break
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}

	return phi
}
