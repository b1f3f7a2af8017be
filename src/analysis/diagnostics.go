package analysis

import (
	"fmt"
	"math"

	"econ-observer/src/analysis/core"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// DiagnosticSuite exposes the independent statistical test operations. Every
// test takes a numeric sequence (raw series or residuals) and returns an
// immutable MDiagnosticResult.
type DiagnosticSuite struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewDiagnosticSuite(cfg *models.MConfig, log *logger.Logger) *DiagnosticSuite {
	return &DiagnosticSuite{Config: cfg, Logger: log}
}

func (d *DiagnosticSuite) alpha() float64 {
	return d.Config.Analysis.SignificanceLevel
}

// -----------------------------------------------------------------------------

// Stationarity runs ADF and KPSS together and combines them into a verdict.
// The tests have opposite nulls, so agreement is required for a firm label
// and disagreement is surfaced as "inconclusive". SuggestedD is the number
// of differences that first produces a stationary label.
func (d *DiagnosticSuite) Stationarity(seriesID string, data []float64) (*models.MStationarityVerdict, error) {
	verdict := &models.MStationarityVerdict{SeriesID: seriesID}

	adfRes, kpssRes, label, err := d.stationarityOnce(seriesID, data)
	if err != nil {
		return nil, err
	}
	verdict.ADF = *adfRes
	verdict.KPSS = *kpssRes
	verdict.Label = label

	// Difference until stationary to seed the ARIMA d order.
	maxD := d.Config.Analysis.MaxARIMAOrder.D
	work := data
	for dOrder := 0; dOrder <= maxD; dOrder++ {
		if dOrder > 0 {
			work = core.Diff(work)
			_, _, label, err = d.stationarityOnce(seriesID, work)
			if err != nil {
				// Too short after differencing, keep the last suggestion.
				break
			}
		}
		if label == models.StationarityStationary {
			verdict.SuggestedD = dOrder
			return verdict, nil
		}
	}
	verdict.SuggestedD = maxD
	return verdict, nil
}

// -----------------------------------------------------------------------------

func (d *DiagnosticSuite) stationarityOnce(seriesID string, data []float64) (*models.MDiagnosticResult, *models.MDiagnosticResult, string, error) {
	alpha := d.alpha()

	adf, err := core.ADF(data, 0)
	if err != nil {
		return nil, nil, "", err
	}
	kpss, err := core.KPSS(data, 0)
	if err != nil {
		return nil, nil, "", err
	}

	adfRejects := adf.PValue < alpha   // rejects unit root
	kpssRejects := kpss.PValue < alpha // rejects stationarity

	var label string
	switch {
	case adfRejects && !kpssRejects:
		label = models.StationarityStationary
	case !adfRejects && kpssRejects:
		label = models.StationarityNonStationary
	default:
		label = models.StationarityInconclusive
	}

	adfResult := &models.MDiagnosticResult{
		Test:         "adf",
		SeriesID:     seriesID,
		Statistic:    adf.Statistic,
		PValue:       adf.PValue,
		Significance: alpha,
		RejectNull:   adfRejects,
		Interpretation: fmt.Sprintf("ADF statistic %.4f (p=%.4f): %s the unit-root null",
			adf.Statistic, adf.PValue, rejectWord(adfRejects)),
		Detail: map[string]float64{"lags": float64(adf.Lags), "nobs": float64(adf.NObs)},
	}
	kpssResult := &models.MDiagnosticResult{
		Test:         "kpss",
		SeriesID:     seriesID,
		Statistic:    kpss.Statistic,
		PValue:       kpss.PValue,
		Significance: alpha,
		RejectNull:   kpssRejects,
		Interpretation: fmt.Sprintf("KPSS statistic %.4f (p=%.4f): %s the stationarity null",
			kpss.Statistic, kpss.PValue, rejectWord(kpssRejects)),
		Detail: map[string]float64{"lags": float64(kpss.Lags)},
	}
	return adfResult, kpssResult, label, nil
}

// -----------------------------------------------------------------------------

// Normality runs Jarque-Bera. The null hypothesis is normality.
func (d *DiagnosticSuite) Normality(seriesID string, data []float64) (*models.MDiagnosticResult, error) {
	jb, err := core.JarqueBera(data)
	if err != nil {
		return nil, err
	}

	reject := jb.PValue < d.alpha()
	interp := "residuals are consistent with normality"
	if reject {
		interp = fmt.Sprintf("normality rejected (skewness %.3f, kurtosis %.3f)", jb.Skewness, jb.Kurtosis)
	}

	return &models.MDiagnosticResult{
		Test:           "jarque_bera",
		SeriesID:       seriesID,
		Statistic:      jb.Statistic,
		PValue:         jb.PValue,
		Significance:   d.alpha(),
		RejectNull:     reject,
		Interpretation: interp,
		Detail:         map[string]float64{"skewness": jb.Skewness, "kurtosis": jb.Kurtosis},
	}, nil
}

// -----------------------------------------------------------------------------

// Autocorrelation runs the Ljung-Box test at the configured lag count.
// fitdf is the parameter count of the model that produced the residuals,
// zero for a raw series.
func (d *DiagnosticSuite) Autocorrelation(seriesID string, data []float64, fitdf int) (*models.MDiagnosticResult, error) {
	lagSet := d.Config.Analysis.LjungBoxLags
	detail := make(map[string]float64, len(lagSet))

	var last *core.LjungBoxResult
	maxLag := 0
	for _, lag := range lagSet {
		lb, err := core.LjungBox(data, lag, fitdf)
		if err != nil {
			if last == nil {
				return nil, err
			}
			break
		}
		detail[fmt.Sprintf("p_lag_%d", lag)] = lb.PValue
		last = lb
		if lag > maxLag {
			maxLag = lag
		}
	}

	reject := last.PValue < d.alpha()
	interp := fmt.Sprintf("no significant autocorrelation up to lag %d", maxLag)
	if reject {
		interp = fmt.Sprintf("significant autocorrelation detected up to lag %d", maxLag)
	}
	detail["dof"] = float64(last.DOF)

	return &models.MDiagnosticResult{
		Test:           "ljung_box",
		SeriesID:       seriesID,
		Statistic:      last.Statistic,
		PValue:         last.PValue,
		Significance:   d.alpha(),
		RejectNull:     reject,
		Interpretation: interp,
		Detail:         detail,
		Curve:          core.ACF(data, maxLag),
	}, nil
}

// -----------------------------------------------------------------------------

// Heteroscedasticity runs the Breusch-Pagan test on regression residuals.
// The design matrix must be the one used in the main regression, intercept
// included.
func (d *DiagnosticSuite) Heteroscedasticity(seriesID string, design [][]float64, residuals []float64) (*models.MDiagnosticResult, error) {
	bp, err := core.BreuschPagan(design, residuals)
	if err != nil {
		return nil, err
	}

	reject := bp.PValue < d.alpha()
	interp := "residual variance is stable across the fitted range"
	if reject {
		interp = "heteroscedastic residuals: variance changes with the regressors"
	}

	return &models.MDiagnosticResult{
		Test:           "breusch_pagan",
		SeriesID:       seriesID,
		Statistic:      bp.Statistic,
		PValue:         bp.PValue,
		Significance:   d.alpha(),
		RejectNull:     reject,
		Interpretation: interp,
		Detail:         map[string]float64{"dof": float64(bp.DOF)},
	}, nil
}

// -----------------------------------------------------------------------------

// Multicollinearity computes the VIF per regressor and flags values above
// the configured threshold. names labels the design columns.
func (d *DiagnosticSuite) Multicollinearity(design [][]float64, names []string) ([]models.MDiagnosticResult, error) {
	vifs, err := core.VIF(design)
	if err != nil {
		return nil, err
	}

	threshold := d.Config.Analysis.VIFThreshold
	results := make([]models.MDiagnosticResult, 0, len(vifs))
	for i, v := range vifs {
		name := fmt.Sprintf("x%d", i)
		if i < len(names) {
			name = names[i]
		}
		flagged := v > threshold
		interp := fmt.Sprintf("VIF %.2f for %s: acceptable", v, name)
		if flagged {
			interp = fmt.Sprintf("VIF %.2f for %s exceeds threshold %.1f: strong multicollinearity", v, name, threshold)
		}
		results = append(results, models.MDiagnosticResult{
			Test:           "vif",
			SeriesID:       name,
			Statistic:      v,
			Significance:   threshold,
			RejectNull:     flagged,
			Interpretation: interp,
		})
	}
	return results, nil
}

// -----------------------------------------------------------------------------

// Decomposition splits a series into trend, seasonal and residual parts.
// When the configured period is zero it is auto-detected from the ACF.
func (d *DiagnosticSuite) Decomposition(seriesID string, data []float64) (*core.DecompositionResult, *models.MDiagnosticResult, error) {
	period := d.Config.Analysis.SeasonalPeriod
	if period <= 0 {
		period = core.DetectSeasonalPeriod(data, len(data)/3)
		if period <= 0 {
			period = 12
		}
		d.Logger.Debug("Auto-detected seasonal period %d for series %s", period, seriesID)
	}

	dec, err := core.Decompose(data, period, d.Config.Analysis.DecompositionType)
	if err != nil {
		return nil, nil, err
	}

	// Share of variance captured by trend plus seasonal.
	_, residStd := core.CalculateMeanStd(compact(dec.Residual))
	_, dataStd := core.CalculateMeanStd(data)
	captured := 0.0
	if dataStd > 0 {
		captured = 1 - (residStd*residStd)/(dataStd*dataStd)
		if captured < 0 {
			captured = 0
		}
	}

	result := &models.MDiagnosticResult{
		Test:      "decomposition",
		SeriesID:  seriesID,
		Statistic: captured,
		Interpretation: fmt.Sprintf("%s decomposition at period %d explains %.1f%% of variance",
			dec.Type, dec.Period, captured*100),
		Detail: map[string]float64{"period": float64(dec.Period), "captured_variance": captured},
	}
	return dec, result, nil
}

// -----------------------------------------------------------------------------

func rejectWord(reject bool) string {
	if reject {
		return "rejects"
	}
	return "fails to reject"
}

// -----------------------------------------------------------------------------

// compact drops NaN entries.
func compact(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
