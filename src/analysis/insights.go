package analysis

import (
	"fmt"
	"sort"
	"strings"

	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// Synthesizer turns completed component outputs into ranked findings. It is
// pure aggregation over its inputs: a fixed rule set, no new computation,
// deterministic given the same results.
type Synthesizer struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSynthesizer(cfg *models.MConfig, log *logger.Logger) *Synthesizer {
	return &Synthesizer{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

// Synthesize walks every result attached to the bundle and emits the ranked
// findings list. Component failures arrive as failed fits or recorded
// component errors and become low-confidence findings instead of being
// dropped.
func (s *Synthesizer) Synthesize(bundle *models.MResultBundle, componentErrors map[string]error) []models.MFinding {
	var findings []models.MFinding
	alpha := s.Config.Analysis.SignificanceLevel

	for _, v := range bundle.Stationarity {
		switch v.Label {
		case models.StationarityNonStationary:
			findings = append(findings, models.MFinding{
				Severity: models.SeverityNotable,
				Category: "stationarity",
				Message: fmt.Sprintf("Series %s is non-stationary (ADF p=%.3f, KPSS p=%.3f); differencing order %d suggested before modeling",
					v.SeriesID, v.ADF.PValue, v.KPSS.PValue, v.SuggestedD),
				Sources: []string{"adf:" + v.SeriesID, "kpss:" + v.SeriesID},
			})
		case models.StationarityInconclusive:
			findings = append(findings, models.MFinding{
				Severity: models.SeverityInfo,
				Category: "stationarity",
				Message: fmt.Sprintf("ADF and KPSS disagree on series %s; stationarity is inconclusive and downstream results should be read with care",
					v.SeriesID),
				Sources: []string{"adf:" + v.SeriesID, "kpss:" + v.SeriesID},
			})
		}
	}

	for _, d := range bundle.Diagnostics {
		findings = append(findings, s.diagnosticFindings(d, "")...)
	}

	// Residual diagnostics live on the fits themselves, not in the panel
	// diagnostics list.
	for _, fit := range bundle.Regressions {
		if fit.Failed {
			continue
		}
		for _, d := range fit.Diagnostics {
			findings = append(findings, s.diagnosticFindings(d, fit.SeriesID)...)
		}
	}

	for _, g := range bundle.Granger {
		if g.Significant && g.PValue < alpha {
			findings = append(findings, models.MFinding{
				Severity: models.SeverityCritical,
				Category: "causality",
				Message: fmt.Sprintf("%s Granger-causes %s at lag %d (F=%.2f, p=%.4f); predictive precedence, not true causation",
					g.Cause, g.Effect, g.MinimalLag, g.FStatistic, g.PValue),
				Sources: []string{fmt.Sprintf("granger:%s->%s", g.Cause, g.Effect)},
			})
		}
	}

	findings = append(findings, s.correlationFindings(bundle)...)
	findings = append(findings, s.forecastFindings(bundle)...)
	findings = append(findings, s.clusterFindings(bundle)...)
	findings = append(findings, s.pcaFindings(bundle)...)

	for component, err := range componentErrors {
		findings = append(findings, models.MFinding{
			Severity: models.SeverityInfo,
			Category: "component_failure",
			Message: fmt.Sprintf("%s failed and its results are absent from this run: %v; remaining findings carry reduced confidence",
				component, err),
			Sources: []string{"component:" + component},
		})
	}

	rank(findings)
	return findings
}

// -----------------------------------------------------------------------------

// diagnosticFindings applies the diagnostic rules to one test result. target
// is empty for panel-level diagnostics; for residual diagnostics it names
// the regression target so the finding points at the fit it came from.
func (s *Synthesizer) diagnosticFindings(d models.MDiagnosticResult, target string) []models.MFinding {
	subject := "Series " + d.SeriesID
	source := d.SeriesID
	if target != "" {
		subject = "Regression on " + target
		source = target
	}

	switch {
	case d.Test == "vif" && d.RejectNull:
		msg := d.Interpretation
		if target != "" {
			msg = fmt.Sprintf("%s: %s", subject, d.Interpretation)
		}
		return []models.MFinding{{
			Severity: models.SeverityNotable,
			Category: "multicollinearity",
			Message:  msg,
			Sources:  []string{"vif:" + source},
		}}
	case d.Test == "ljung_box" && d.RejectNull:
		return []models.MFinding{{
			Severity: models.SeverityInfo,
			Category: "autocorrelation",
			Message:  fmt.Sprintf("%s: %s", subject, d.Interpretation),
			Sources:  []string{"ljung_box:" + source},
		}}
	case d.Test == "breusch_pagan" && d.RejectNull:
		return []models.MFinding{{
			Severity: models.SeverityInfo,
			Category: "heteroscedasticity",
			Message:  fmt.Sprintf("%s: %s", subject, d.Interpretation),
			Sources:  []string{"breusch_pagan:" + source},
		}}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Synthesizer) correlationFindings(bundle *models.MResultBundle) []models.MFinding {
	var findings []models.MFinding
	for _, c := range bundle.Correlations {
		if c.Method != "pearson" {
			continue
		}
		for i := range c.Matrix {
			for j := i + 1; j < len(c.Matrix[i]); j++ {
				r := c.Matrix[i][j]
				if r > 0.9 || r < -0.9 {
					findings = append(findings, models.MFinding{
						Severity: models.SeverityNotable,
						Category: "correlation",
						Message: fmt.Sprintf("Series %s and %s are strongly correlated (Pearson r=%.3f)",
							c.SeriesIDs[i], c.SeriesIDs[j], r),
						Sources: []string{fmt.Sprintf("correlation:%s~%s", c.SeriesIDs[i], c.SeriesIDs[j])},
					})
				}
			}
		}
	}
	return findings
}

// -----------------------------------------------------------------------------

func (s *Synthesizer) forecastFindings(bundle *models.MResultBundle) []models.MFinding {
	var findings []models.MFinding
	for _, fit := range bundle.Forecasts {
		if fit.Failed {
			findings = append(findings, models.MFinding{
				Severity: models.SeverityInfo,
				Category: "forecast_failure",
				Message: fmt.Sprintf("Forecast for series %s failed (%s); it is excluded from forward-looking findings",
					fit.SeriesID, fit.FailReason),
				Sources: []string{"forecast:" + fit.SeriesID},
			})
			continue
		}
		for _, w := range fit.Warnings {
			findings = append(findings, models.MFinding{
				Severity: models.SeverityInfo,
				Category: "forecast_warning",
				Message:  fmt.Sprintf("Series %s: %s; treat this forecast with reduced confidence", fit.SeriesID, w),
				Sources:  []string{"forecast:" + fit.SeriesID},
			})
		}
		if fit.Backtest != nil && fit.Backtest.MAPE > 0 && fit.Backtest.MAPE < 10 {
			findings = append(findings, models.MFinding{
				Severity: models.SeverityNotable,
				Category: "forecast",
				Message: fmt.Sprintf("Series %s forecasts reliably with %s (backtest MAPE %.1f%% over %d folds)",
					fit.SeriesID, fit.Family, fit.Backtest.MAPE, len(fit.Backtest.FoldMAPE)),
				Sources: []string{"forecast:" + fit.SeriesID},
			})
		}
	}
	return findings
}

// -----------------------------------------------------------------------------

func (s *Synthesizer) clusterFindings(bundle *models.MResultBundle) []models.MFinding {
	var findings []models.MFinding
	for _, c := range bundle.Clusters {
		sil := c.Silhouette[c.K]
		if sil > 0.5 {
			noun := "regimes"
			if c.Mode == "series" {
				noun = "behavior groups"
			}
			findings = append(findings, models.MFinding{
				Severity: models.SeverityNotable,
				Category: "segmentation",
				Message: fmt.Sprintf("%s clustering found %d well-separated %s (silhouette %.2f)",
					capitalize(c.Mode), c.K, noun, sil),
				Sources: []string{"cluster:" + c.Mode},
			})
		}
	}
	return findings
}

// -----------------------------------------------------------------------------

func (s *Synthesizer) pcaFindings(bundle *models.MResultBundle) []models.MFinding {
	if bundle.PCA == nil || len(bundle.PCA.ExplainedRatios) == 0 {
		return nil
	}
	first := bundle.PCA.ExplainedRatios[0]
	if first < 0.6 {
		return nil
	}
	return []models.MFinding{{
		Severity: models.SeverityNotable,
		Category: "dimensionality",
		Message: fmt.Sprintf("A single principal component explains %.1f%% of panel variance; the series move largely together",
			first*100),
		Sources: []string{"pca"},
	}}
}

// -----------------------------------------------------------------------------

// rank orders by severity then message for determinism, then assigns ranks.
func rank(findings []models.MFinding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity > findings[j].Severity
		}
		return findings[i].Message < findings[j].Message
	})
	for i := range findings {
		findings[i].Rank = i + 1
	}
}

// -----------------------------------------------------------------------------

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
