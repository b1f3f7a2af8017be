package analysis

import (
	"fmt"
	"sort"

	"econ-observer/src/analysis/core"
	"econ-observer/src/helpers"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// Modeler covers regression with lag structures, correlation matrices,
// Granger causality and PCA over one aligned panel.
type Modeler struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	Diagnostics *DiagnosticSuite
}

// -----------------------------------------------------------------------------

func NewModeler(cfg *models.MConfig, log *logger.Logger) *Modeler {
	return &Modeler{
		Config:      cfg,
		Logger:      log,
		Diagnostics: NewDiagnosticSuite(cfg, log),
	}
}

// -----------------------------------------------------------------------------

// Regression fits OLS of the target on the requested predictors, each
// entered at its configured lag offsets, and attaches residual diagnostics
// to the fit.
func (m *Modeler) Regression(panel *models.MAlignedPanel, spec models.MRegressionSpec) (*models.MModelFit, error) {
	targetCol, ok := panel.Column(spec.Target)
	if !ok {
		return nil, &helpers.AnalysisError{Message: "regression target " + spec.Target + " not in panel"}
	}

	// Column labels mirror the design layout: intercept first, then each
	// predictor at each lag.
	type term struct {
		id  string
		lag int
	}
	var terms []term
	maxLag := 0
	for _, p := range spec.Predictors {
		if _, ok := panel.Column(p); !ok {
			return nil, &helpers.AnalysisError{Message: "regression predictor " + p + " not in panel"}
		}
		lags := spec.Lags[p]
		if len(lags) == 0 {
			lags = []int{0}
		}
		for _, l := range lags {
			if l < 0 {
				return nil, &helpers.AnalysisError{Message: fmt.Sprintf("negative lag %d for predictor %s", l, p)}
			}
			if l > maxLag {
				maxLag = l
			}
			terms = append(terms, term{id: p, lag: l})
		}
	}
	if len(terms) == 0 {
		return nil, &helpers.AnalysisError{Message: "regression needs at least one predictor"}
	}

	rows := panel.CompleteRows()
	minObs := len(terms) + maxLag + 3
	if len(rows) < minObs {
		return nil, helpers.NewInsufficientDataError("regression", minObs, len(rows))
	}

	// Build design over complete rows, shifting each lagged term back along
	// the complete-row sequence.
	n := len(rows) - maxLag
	y := make([]float64, n)
	design := make([][]float64, n)
	names := []string{"intercept"}
	for _, t := range terms {
		names = append(names, fmt.Sprintf("%s_lag%d", t.id, t.lag))
	}

	for i := 0; i < n; i++ {
		rowIdx := rows[i+maxLag]
		y[i] = targetCol[rowIdx]
		design[i] = make([]float64, len(terms)+1)
		design[i][0] = 1
		for j, t := range terms {
			col, _ := panel.Column(t.id)
			design[i][j+1] = col[rows[i+maxLag-t.lag]]
		}
	}

	ols, err := core.OLS(design, y)
	if err != nil {
		return nil, err
	}

	fit := &models.MModelFit{
		Family:       models.FamilyOLS,
		SeriesID:     spec.Target,
		Coefficients: ols.Coeffs,
		Params:       map[string]float64{},
		Metrics: map[string]float64{
			"r2":     ols.R2,
			"adj_r2": ols.AdjR2,
			"rss":    ols.RSS,
			"sigma2": ols.Sigma2,
			"nobs":   float64(ols.N),
		},
	}
	for i, name := range names {
		fit.Params[name] = ols.Coeffs[i]
	}

	m.attachResidualDiagnostics(fit, design, names, ols.Residuals)
	return fit, nil
}

// -----------------------------------------------------------------------------

// attachResidualDiagnostics runs the suite on regression residuals. Tests
// that cannot compute on a short residual set are logged and skipped rather
// than failing the fit.
func (m *Modeler) attachResidualDiagnostics(fit *models.MModelFit, design [][]float64, names []string, residuals []float64) {
	if r, err := m.Diagnostics.Normality(fit.SeriesID, residuals); err == nil {
		fit.Diagnostics = append(fit.Diagnostics, *r)
	} else {
		m.Logger.Debug("Skipping normality on %s residuals: %v", fit.SeriesID, err)
	}
	if r, err := m.Diagnostics.Autocorrelation(fit.SeriesID, residuals, 0); err == nil {
		fit.Diagnostics = append(fit.Diagnostics, *r)
	} else {
		m.Logger.Debug("Skipping ljung-box on %s residuals: %v", fit.SeriesID, err)
	}
	if r, err := m.Diagnostics.Heteroscedasticity(fit.SeriesID, design, residuals); err == nil {
		fit.Diagnostics = append(fit.Diagnostics, *r)
	} else {
		m.Logger.Debug("Skipping breusch-pagan on %s residuals: %v", fit.SeriesID, err)
	}
	if len(design) > 0 && len(design[0]) > 2 {
		if rs, err := m.Diagnostics.Multicollinearity(stripIntercept(design), names[1:]); err == nil {
			fit.Diagnostics = append(fit.Diagnostics, rs...)
		} else {
			m.Logger.Debug("Skipping VIF on %s design: %v", fit.SeriesID, err)
		}
	}
}

// -----------------------------------------------------------------------------

// Correlations computes the pairwise matrix across all panel series under
// each requested method.
func (m *Modeler) Correlations(panel *models.MAlignedPanel, methods []string) ([]models.MCorrelationMatrix, error) {
	if len(methods) == 0 {
		methods = []string{"pearson", "spearman", "kendall"}
	}

	columns, err := completeColumns(panel, 3, "correlation")
	if err != nil {
		return nil, err
	}

	out := make([]models.MCorrelationMatrix, 0, len(methods))
	for _, method := range methods {
		matrix := core.CorrelationMatrix(columns, method)
		out = append(out, models.MCorrelationMatrix{
			Method:    method,
			SeriesIDs: append([]string(nil), panel.SeriesIDs...),
			Matrix:    matrix,
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Granger tests every ordered pair of panel series up to the configured
// maximum lag and reports the minimal lag at which significance is first
// reached.
func (m *Modeler) Granger(panel *models.MAlignedPanel) ([]models.MGrangerResult, error) {
	maxLag := m.Config.Analysis.GrangerMaxLag
	alpha := m.Config.Analysis.SignificanceLevel

	columns, err := completeColumns(panel, 3*maxLag+5, "granger")
	if err != nil {
		return nil, err
	}

	var results []models.MGrangerResult
	for i, cause := range panel.SeriesIDs {
		for j, effect := range panel.SeriesIDs {
			if i == j {
				continue
			}

			res := models.MGrangerResult{Cause: cause, Effect: effect, MaxLag: maxLag, PValue: 1}
			for lag := 1; lag <= maxLag; lag++ {
				gt, err := core.GrangerTest(columns[i], columns[j], lag)
				if err != nil {
					m.Logger.Debug("Granger %s->%s lag %d: %v", cause, effect, lag, err)
					break
				}
				if !res.Significant {
					res.FStatistic = gt.FStatistic
					res.PValue = gt.PValue
				}
				if gt.PValue < alpha {
					res.Significant = true
					res.MinimalLag = lag
					res.FStatistic = gt.FStatistic
					res.PValue = gt.PValue
					break
				}
			}
			results = append(results, res)
		}
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].PValue < results[b].PValue
	})
	return results, nil
}

// -----------------------------------------------------------------------------

// PCA decomposes the standardized panel covariance and keeps either the
// configured component count or enough components to reach the variance
// target.
func (m *Modeler) PCA(panel *models.MAlignedPanel) (*models.MPCAResult, error) {
	columns, err := completeColumns(panel, len(panel.SeriesIDs)+2, "pca")
	if err != nil {
		return nil, err
	}

	res, err := core.PCA(columns)
	if err != nil {
		return nil, err
	}

	nComp := m.Config.Analysis.PCAComponents
	if nComp <= 0 {
		nComp = res.ComponentsForVariance(m.Config.Analysis.PCAVarianceTarget)
	}
	if nComp > len(res.ExplainedRatios) {
		nComp = len(res.ExplainedRatios)
	}

	return &models.MPCAResult{
		SeriesIDs:       append([]string(nil), panel.SeriesIDs...),
		ExplainedRatios: res.ExplainedRatios,
		Loadings:        res.Loadings,
		Components:      nComp,
	}, nil
}

// -----------------------------------------------------------------------------

// completeColumns extracts the complete-row submatrix column-by-column in
// SeriesIDs order.
func completeColumns(panel *models.MAlignedPanel, minRows int, operation string) ([][]float64, error) {
	rows := panel.CompleteRows()
	if len(rows) < minRows {
		return nil, helpers.NewInsufficientDataError(operation, minRows, len(rows))
	}

	columns := make([][]float64, len(panel.SeriesIDs))
	for j, id := range panel.SeriesIDs {
		col, _ := panel.Column(id)
		columns[j] = make([]float64, len(rows))
		for i, r := range rows {
			columns[j][i] = col[r]
		}
	}
	return columns, nil
}

// -----------------------------------------------------------------------------

func stripIntercept(design [][]float64) [][]float64 {
	out := make([][]float64, len(design))
	for i, row := range design {
		out[i] = row[1:]
	}
	return out
}
