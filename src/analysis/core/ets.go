package core

import (
	"math"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Exponential smoothing
// -----------------------------------------------------------------------------

// ETSVariant selects the smoothing structure.
type ETSVariant string

const (
	ETSSimple ETSVariant = "simple"
	ETSHolt   ETSVariant = "holt"
	ETSWinter ETSVariant = "holt_winters"
)

// -----------------------------------------------------------------------------

// ETSModel is an additive exponential smoothing model. Smoothing constants
// are chosen by grid search over the in-sample sum of squared errors.
type ETSModel struct {
	Variant ETSVariant
	Period  int

	Alpha float64
	Beta  float64
	Gamma float64

	Level    float64
	Trend    float64
	Seasonal []float64

	Variance float64
	AIC      float64
	BIC      float64
	LogLik   float64

	residuals []float64
	fitted    []float64
	isFit     bool
	n         int
}

// -----------------------------------------------------------------------------

// NewETS creates an unfitted exponential smoothing model. Period is only
// used by the Holt-Winters variant.
func NewETS(variant ETSVariant, period int) *ETSModel {
	return &ETSModel{Variant: variant, Period: period}
}

// -----------------------------------------------------------------------------

// Fit estimates smoothing parameters and initial states on the series.
func (m *ETSModel) Fit(data []float64) error {
	minObs := 8
	if m.Variant == ETSWinter {
		if m.Period < 2 {
			return helpers.NewInsufficientDataError("ets seasonal period", 2, m.Period)
		}
		minObs = 2 * m.Period
	}
	if len(data) < minObs {
		return helpers.NewInsufficientDataError("ets fit", minObs, len(data))
	}

	grid := []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	bestSSE := math.Inf(1)

	switch m.Variant {
	case ETSSimple:
		for _, a := range grid {
			if sse := m.runSimple(data, a, false); sse < bestSSE {
				bestSSE = sse
				m.Alpha = a
			}
		}
		m.runSimple(data, m.Alpha, true)
	case ETSHolt:
		for _, a := range grid {
			for _, b := range grid {
				if b > a {
					continue
				}
				if sse := m.runHolt(data, a, b, false); sse < bestSSE {
					bestSSE = sse
					m.Alpha, m.Beta = a, b
				}
			}
		}
		m.runHolt(data, m.Alpha, m.Beta, true)
	case ETSWinter:
		coarse := []float64{0.1, 0.3, 0.5, 0.7}
		for _, a := range grid {
			for _, b := range coarse {
				for _, g := range coarse {
					if b > a {
						continue
					}
					if sse := m.runWinters(data, a, b, g, false); sse < bestSSE {
						bestSSE = sse
						m.Alpha, m.Beta, m.Gamma = a, b, g
					}
				}
			}
		}
		m.runWinters(data, m.Alpha, m.Beta, m.Gamma, true)
	default:
		return helpers.NewInsufficientDataError("ets variant", 1, 0)
	}

	m.n = len(data)
	m.calculateIC()
	m.isFit = true
	return nil
}

// -----------------------------------------------------------------------------

func (m *ETSModel) runSimple(data []float64, alpha float64, keep bool) float64 {
	level := data[0]
	sse := 0.0
	var residuals, fitted []float64
	if keep {
		residuals = make([]float64, len(data))
		fitted = make([]float64, len(data))
	}

	for t := 1; t < len(data); t++ {
		pred := level
		e := data[t] - pred
		sse += e * e
		if keep {
			fitted[t] = pred
			residuals[t] = e
		}
		level = alpha*data[t] + (1-alpha)*level
	}

	if keep {
		m.Level = level
		m.residuals = residuals
		m.fitted = fitted
		m.Variance = sse / float64(len(data)-1)
	}
	return sse
}

// -----------------------------------------------------------------------------

func (m *ETSModel) runHolt(data []float64, alpha, beta float64, keep bool) float64 {
	level := data[0]
	trend := data[1] - data[0]
	sse := 0.0
	var residuals, fitted []float64
	if keep {
		residuals = make([]float64, len(data))
		fitted = make([]float64, len(data))
	}

	for t := 1; t < len(data); t++ {
		pred := level + trend
		e := data[t] - pred
		sse += e * e
		if keep {
			fitted[t] = pred
			residuals[t] = e
		}
		prevLevel := level
		level = alpha*data[t] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}

	if keep {
		m.Level = level
		m.Trend = trend
		m.residuals = residuals
		m.fitted = fitted
		m.Variance = sse / float64(len(data)-1)
	}
	return sse
}

// -----------------------------------------------------------------------------

func (m *ETSModel) runWinters(data []float64, alpha, beta, gamma float64, keep bool) float64 {
	p := m.Period
	n := len(data)

	// Initial level and trend from the first two seasonal cycles.
	mean1, _ := CalculateMeanStd(data[:p])
	mean2, _ := CalculateMeanStd(data[p : 2*p])
	level := mean1
	trend := (mean2 - mean1) / float64(p)

	seasonal := make([]float64, p)
	for i := 0; i < p; i++ {
		seasonal[i] = data[i] - mean1
	}

	sse := 0.0
	var residuals, fitted []float64
	if keep {
		residuals = make([]float64, n)
		fitted = make([]float64, n)
	}

	for t := p; t < n; t++ {
		s := seasonal[t%p]
		pred := level + trend + s
		e := data[t] - pred
		sse += e * e
		if keep {
			fitted[t] = pred
			residuals[t] = e
		}
		prevLevel := level
		level = alpha*(data[t]-s) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
		seasonal[t%p] = gamma*(data[t]-level) + (1-gamma)*s
	}

	if keep {
		m.Level = level
		m.Trend = trend
		m.Seasonal = seasonal
		m.residuals = residuals
		m.fitted = fitted
		if n > p {
			m.Variance = sse / float64(n-p)
		}
	}
	return sse
}

// -----------------------------------------------------------------------------

// paramCount returns the number of free parameters for information criteria,
// counting smoothing constants and initial states.
func (m *ETSModel) paramCount() int {
	switch m.Variant {
	case ETSSimple:
		return 2
	case ETSHolt:
		return 4
	case ETSWinter:
		return 4 + m.Period
	}
	return 1
}

// -----------------------------------------------------------------------------

func (m *ETSModel) calculateIC() {
	n := len(m.residuals)
	k := m.paramCount()

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	// Same variance floor as the ARIMA criterion so zero-residual fits stay
	// comparable.
	v := m.Variance
	if v < 1e-12 {
		v = 1e-12
	}
	m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(v) - sse/(2*v)
	m.AIC = -2*m.LogLik + 2*float64(k)
	m.BIC = -2*m.LogLik + float64(k)*math.Log(float64(n))
}

// -----------------------------------------------------------------------------

// Predict generates point forecasts for steps ahead.
func (m *ETSModel) Predict(steps int) ([]float64, error) {
	if !m.isFit {
		return nil, helpers.NewInsufficientDataError("ets predict", 1, 0)
	}
	out := make([]float64, steps)
	for h := 1; h <= steps; h++ {
		switch m.Variant {
		case ETSSimple:
			out[h-1] = m.Level
		case ETSHolt:
			out[h-1] = m.Level + float64(h)*m.Trend
		case ETSWinter:
			s := m.Seasonal[(m.n+h-1)%m.Period]
			out[h-1] = m.Level + float64(h)*m.Trend + s
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// PredictIntervals returns forecasts with analytic confidence bounds. The
// variance recursions follow the standard additive-error state space forms.
func (m *ETSModel) PredictIntervals(steps int, confidence float64) (point, lower, upper []float64, err error) {
	point, err = m.Predict(steps)
	if err != nil {
		return nil, nil, nil, err
	}

	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)

	for h := 1; h <= steps; h++ {
		var factor float64
		switch m.Variant {
		case ETSSimple:
			factor = 1 + float64(h-1)*m.Alpha*m.Alpha
		case ETSHolt, ETSWinter:
			factor = 1
			for j := 1; j < h; j++ {
				c := m.Alpha + m.Alpha*m.Beta*float64(j)
				factor += c * c
			}
		}
		se := math.Sqrt(m.Variance * factor)
		lower[h-1] = point[h-1] - z*se
		upper[h-1] = point[h-1] + z*se
	}
	return point, lower, upper, nil
}

// -----------------------------------------------------------------------------

// Residuals returns a copy of the one-step in-sample errors.
func (m *ETSModel) Residuals() []float64 {
	if !m.isFit {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}
