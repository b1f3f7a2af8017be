package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"econ-observer/src/analysis/core"
	"econ-observer/src/helpers"
	"econ-observer/src/logger"
	"econ-observer/src/models"
	"econ-observer/src/utils"
)

// Forecaster fits order-selected ARIMA and exponential smoothing models per
// series, produces interval forecasts and rolling-origin backtests. Fitted
// models are cached content-addressed by series id and configuration hash so
// repeated runs over unchanged inputs skip the grid search.
type Forecaster struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu    sync.Mutex
	cache map[string]*fittedEntry
}

type fittedEntry struct {
	arima *core.ARIMAModel
	ets   *core.ETSModel
	order core.ARIMAOrder
}

// -----------------------------------------------------------------------------

func NewForecaster(cfg *models.MConfig, log *logger.Logger) *Forecaster {
	return &Forecaster{
		Config: cfg,
		Logger: log,
		cache:  make(map[string]*fittedEntry),
	}
}

// -----------------------------------------------------------------------------

// ForecastSeries runs the full lifecycle for one series. It never returns a
// nil fit: structural failures and timeouts produce a fit marked failed so
// the synthesizer can surface them without aborting the run.
func (f *Forecaster) ForecastSeries(ctx context.Context, panel *models.MAlignedPanel, seriesID string, verdict *models.MStationarityVerdict) *models.MModelFit {
	opts := f.Config.Analysis
	fit := &models.MModelFit{
		Family:   models.FamilyARIMA,
		SeriesID: seriesID,
		State:    models.StateUnfit,
		Metrics:  map[string]float64{},
		Order:    map[string]int{},
	}

	data := panel.ObservedColumn(seriesID)
	minHistory := opts.MinTrainWindow + opts.ForecastHorizon
	if len(data) < minHistory {
		err := helpers.NewInsufficientHistoryError(seriesID, minHistory, len(data))
		fit.Failed = true
		fit.FailReason = err.Error()
		return fit
	}
	if isDegenerate(data) {
		fit.Failed = true
		fit.FailReason = fmt.Sprintf("series %s is constant, refusing a flat-line forecast without flagging it", seriesID)
		return fit
	}

	if opts.FitTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.FitTimeoutSeconds)*time.Second)
		defer cancel()
	}

	entry, cached := f.lookup(seriesID, data)
	if !cached {
		var err error
		entry, err = f.fitFamilies(ctx, fit, data, verdict)
		if err != nil {
			fit.Failed = true
			fit.FailReason = err.Error()
			return fit
		}
		f.store(seriesID, data, entry)
	} else {
		f.Logger.Debug("Model cache hit for series %s", seriesID)
		fit.Order = map[string]int{"p": entry.order.P, "d": entry.order.D, "q": entry.order.Q}
		f.recordSelection(fit, entry)
	}
	fit.State = models.StateFitted

	if err := f.forecast(fit, entry, panel); err != nil {
		fit.Failed = true
		fit.FailReason = err.Error()
		return fit
	}
	fit.State = models.StateForecasted

	if err := f.backtest(ctx, fit, data); err != nil {
		if helpers.IsStructural(err) {
			fit.Failed = true
			fit.FailReason = err.Error()
			return fit
		}
		fit.Warnings = append(fit.Warnings, err.Error())
		return fit
	}
	fit.State = models.StateBacktested
	return fit
}

// -----------------------------------------------------------------------------

// fitFamilies runs ARIMA order selection, fits the competing smoothing
// model, and selects by information criterion unless the family is pinned.
func (f *Forecaster) fitFamilies(ctx context.Context, fit *models.MModelFit, data []float64, verdict *models.MStationarityVerdict) (*fittedEntry, error) {
	opts := f.Config.Analysis

	entry := &fittedEntry{}
	pinned := opts.ForecastFamily

	if pinned == "" || pinned == models.FamilyARIMA {
		order, arima, err := f.selectOrder(ctx, data, verdict)
		if err != nil {
			if _, ok := err.(*helpers.NonConvergenceWarning); !ok {
				return nil, err
			}
			fit.Warnings = append(fit.Warnings, err.Error())
			// A truncated search still yields its partial best.
			if arima != nil {
				entry.arima = arima
				entry.order = order
			}
		} else {
			entry.arima = arima
			entry.order = order
		}
		fit.Order = map[string]int{"p": order.P, "d": order.D, "q": order.Q}
		fit.State = models.StateOrderSelected
	}

	if pinned == "" || pinned == models.FamilyETS {
		entry.ets = f.fitETS(data)
	}

	if entry.arima == nil && entry.ets == nil {
		return nil, helpers.NewNonConvergenceWarning(fit.SeriesID, models.FamilyARIMA, "none")
	}
	// Non-convergent ARIMA falls back to the smoothing family.
	if entry.arima == nil && pinned == models.FamilyARIMA {
		entry.ets = f.fitETS(data)
		if entry.ets == nil {
			return nil, helpers.NewNonConvergenceWarning(fit.SeriesID, models.FamilyARIMA, "none")
		}
		fit.Warnings = append(fit.Warnings,
			helpers.NewNonConvergenceWarning(fit.SeriesID, models.FamilyARIMA, models.FamilyETS).Error())
	}

	f.recordSelection(fit, entry)
	return entry, nil
}

// -----------------------------------------------------------------------------

// recordSelection labels which family won the criterion comparison and
// stores the losing candidate's criterion as an alternative.
func (f *Forecaster) recordSelection(fit *models.MModelFit, entry *fittedEntry) {
	fit.Alternatives = map[string]float64{}

	switch {
	case entry.arima != nil && entry.ets != nil:
		if entry.arima.AIC <= entry.ets.AIC {
			fit.Family = models.FamilyARIMA
			fit.Alternatives[models.FamilyETS] = entry.ets.AIC
		} else {
			fit.Family = models.FamilyETS
			fit.Alternatives[models.FamilyARIMA] = entry.arima.AIC
		}
	case entry.arima != nil:
		fit.Family = models.FamilyARIMA
	default:
		fit.Family = models.FamilyETS
	}

	if fit.Family == models.FamilyARIMA {
		fit.Metrics["aic"] = entry.arima.AIC
		fit.Metrics["bic"] = entry.arima.BIC
		fit.Metrics["loglik"] = entry.arima.LogLik
		fit.Metrics["sigma2"] = entry.arima.Variance
		fit.Params = map[string]float64{"intercept": entry.arima.Intercept}
		for i, c := range entry.arima.ARCoeffs {
			fit.Params[fmt.Sprintf("ar%d", i+1)] = c
		}
		for i, c := range entry.arima.MACoeffs {
			fit.Params[fmt.Sprintf("ma%d", i+1)] = c
		}
	} else {
		fit.Metrics["aic"] = entry.ets.AIC
		fit.Metrics["bic"] = entry.ets.BIC
		fit.Metrics["loglik"] = entry.ets.LogLik
		fit.Metrics["sigma2"] = entry.ets.Variance
		fit.Params = map[string]float64{
			"alpha": entry.ets.Alpha,
			"beta":  entry.ets.Beta,
			"gamma": entry.ets.Gamma,
			"level": entry.ets.Level,
			"trend": entry.ets.Trend,
		}
		fit.Order = map[string]int{"form": etsFormCode(entry.ets.Variant), "period": entry.ets.Period}
	}
}

// -----------------------------------------------------------------------------

// selectOrder grid-searches (p, d, q) minimizing AIC. d is seeded from the
// stationarity verdict rather than re-derived. Ties break on lower total
// parameter count, then lower p.
func (f *Forecaster) selectOrder(ctx context.Context, data []float64, verdict *models.MStationarityVerdict) (core.ARIMAOrder, *core.ARIMAModel, error) {
	maxOrder := f.Config.Analysis.MaxARIMAOrder

	dCandidates := []int{0}
	if verdict != nil {
		d := verdict.SuggestedD
		if d > maxOrder.D {
			d = maxOrder.D
		}
		dCandidates = []int{d}
		if d > 0 {
			// Also try one less in case differencing overshoots.
			dCandidates = append(dCandidates, d-1)
		}
	}

	var best *core.ARIMAModel
	var bestOrder core.ARIMAOrder
	bestAIC := math.Inf(1)

	for _, d := range dCandidates {
		for p := 0; p <= maxOrder.P; p++ {
			for q := 0; q <= maxOrder.Q; q++ {
				select {
				case <-ctx.Done():
					if best != nil {
						// The search was truncated; the caller keeps the
						// partial best but must not present it as a
						// completed selection.
						return bestOrder, best,
							helpers.NewNonConvergenceWarning(verdictID(verdict), models.FamilyARIMA,
								"best order found before the search was cancelled")
					}
					return core.ARIMAOrder{}, nil, &helpers.AnalysisError{Message: "arima grid search cancelled", Cause: ctx.Err()}
				default:
				}

				m := core.NewARIMA(p, d, q)
				if err := m.Fit(data); err != nil {
					continue
				}
				if !m.Converged {
					continue
				}

				order := core.ARIMAOrder{P: p, D: d, Q: q}
				if m.AIC < bestAIC-1e-9 ||
					(math.Abs(m.AIC-bestAIC) <= 1e-9 && betterTie(order, bestOrder)) {
					bestAIC = m.AIC
					best = m
					bestOrder = order
				}
			}
		}
	}

	if best == nil {
		return core.ARIMAOrder{}, nil, helpers.NewNonConvergenceWarning(verdictID(verdict), models.FamilyARIMA, models.FamilyETS)
	}
	return bestOrder, best, nil
}

// -----------------------------------------------------------------------------

func betterTie(a, b core.ARIMAOrder) bool {
	if a.ParamCount() != b.ParamCount() {
		return a.ParamCount() < b.ParamCount()
	}
	return a.P < b.P
}

func verdictID(v *models.MStationarityVerdict) string {
	if v == nil {
		return ""
	}
	return v.SeriesID
}

// -----------------------------------------------------------------------------

// fitETS fits the smoothing variants that the data allows and keeps the one
// with the lowest AIC. Returns nil when none fit.
func (f *Forecaster) fitETS(data []float64) *core.ETSModel {
	period := f.Config.Analysis.SeasonalPeriod
	variants := []core.ETSVariant{core.ETSSimple, core.ETSHolt}
	if period >= 2 && len(data) >= 2*period {
		variants = append(variants, core.ETSWinter)
	}

	var best *core.ETSModel
	for _, v := range variants {
		m := core.NewETS(v, period)
		if err := m.Fit(data); err != nil {
			continue
		}
		if best == nil || m.AIC < best.AIC {
			best = m
		}
	}
	return best
}

// -----------------------------------------------------------------------------

// forecast produces horizon interval forecasts with timestamps continued
// from the panel index.
func (f *Forecaster) forecast(fit *models.MModelFit, entry *fittedEntry, panel *models.MAlignedPanel) error {
	opts := f.Config.Analysis
	h := opts.ForecastHorizon

	var point, lower, upper []float64
	var err error
	if fit.Family == models.FamilyARIMA {
		point, lower, upper, err = entry.arima.PredictIntervals(h, opts.ConfidenceLevel)
	} else {
		point, lower, upper, err = entry.ets.PredictIntervals(h, opts.ConfidenceLevel)
	}
	if err != nil {
		return err
	}

	cal := utils.GetBusinessCalendar("")
	ts := panel.Index[len(panel.Index)-1]
	fit.Forecast = make([]models.MForecastPoint, h)
	for i := 0; i < h; i++ {
		ts = utils.NextPeriod(ts, panel.Frequency, cal)
		fit.Forecast[i] = models.MForecastPoint{
			Timestamp: ts,
			Point:     point[i],
			Lower:     lower[i],
			Upper:     upper[i],
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// backtest runs rolling-origin evaluation with the configured fold count,
// window style and step.
func (f *Forecaster) backtest(ctx context.Context, fit *models.MModelFit, data []float64) error {
	opts := f.Config.Analysis
	h := opts.ForecastHorizon
	folds := opts.BacktestFolds
	step := opts.BacktestStep
	minWindow := opts.MinTrainWindow

	need := minWindow + h + (folds-1)*step
	if len(data) < need {
		return helpers.NewInsufficientHistoryError(fit.SeriesID, need, len(data))
	}

	report := &models.MBacktestReport{
		Folds:   folds,
		Horizon: h,
		Window:  opts.BacktestWindow,
	}

	// Fold origins walk backwards from the series end.
	for fold := 0; fold < folds; fold++ {
		select {
		case <-ctx.Done():
			return &helpers.AnalysisError{Message: "backtest cancelled", Cause: ctx.Err()}
		default:
		}

		trainEnd := len(data) - h - (folds-1-fold)*step
		trainStart := 0
		if opts.BacktestWindow == "sliding" {
			trainStart = trainEnd - minWindow
			if trainStart < 0 {
				trainStart = 0
			}
		}

		train := data[trainStart:trainEnd]
		actual := data[trainEnd : trainEnd+h]

		pred, err := f.refitPredict(fit, train, h)
		if err != nil {
			f.Logger.Debug("Backtest fold %d for %s skipped: %v", fold, fit.SeriesID, err)
			continue
		}

		mae, rmse, mape := foldErrors(actual, pred)
		report.FoldMAE = append(report.FoldMAE, mae)
		report.FoldRMSE = append(report.FoldRMSE, rmse)
		report.FoldMAPE = append(report.FoldMAPE, mape)
	}

	if len(report.FoldMAE) == 0 {
		return helpers.NewNonConvergenceWarning(fit.SeriesID, fit.Family, "no usable backtest folds")
	}

	report.MAE, _ = core.CalculateMeanStd(report.FoldMAE)
	report.RMSE, _ = core.CalculateMeanStd(report.FoldRMSE)
	report.MAPE, _ = core.CalculateMeanStd(report.FoldMAPE)
	fit.Backtest = report

	fit.Metrics["backtest_mae"] = report.MAE
	fit.Metrics["backtest_rmse"] = report.RMSE
	fit.Metrics["backtest_mape"] = report.MAPE
	return nil
}

// -----------------------------------------------------------------------------

// refitPredict fits the already-selected specification on a training window
// and predicts h steps.
func (f *Forecaster) refitPredict(fit *models.MModelFit, train []float64, h int) ([]float64, error) {
	if fit.Family == models.FamilyARIMA {
		m := core.NewARIMA(fit.Order["p"], fit.Order["d"], fit.Order["q"])
		if err := m.Fit(train); err != nil {
			return nil, err
		}
		return m.Predict(h)
	}

	m := core.NewETS(etsVariantFromCode(fit.Order["form"]), fit.Order["period"])
	if err := m.Fit(train); err != nil {
		return nil, err
	}
	return m.Predict(h)
}

// -----------------------------------------------------------------------------

func foldErrors(actual, pred []float64) (mae, rmse, mape float64) {
	n := float64(len(actual))
	mapeCount := 0.0
	for i := range actual {
		e := actual[i] - pred[i]
		mae += math.Abs(e)
		rmse += e * e
		if math.Abs(actual[i]) > 1e-12 {
			mape += math.Abs(e / actual[i])
			mapeCount++
		}
	}
	mae /= n
	rmse = math.Sqrt(rmse / n)
	if mapeCount > 0 {
		mape = mape / mapeCount * 100
	}
	return mae, rmse, mape
}

// -----------------------------------------------------------------------------

func isDegenerate(data []float64) bool {
	_, std := core.CalculateMeanStd(data)
	return std < 1e-12
}

// -----------------------------------------------------------------------------

func etsFormCode(v core.ETSVariant) int {
	switch v {
	case core.ETSHolt:
		return 2
	case core.ETSWinter:
		return 3
	}
	return 1
}

func etsVariantFromCode(code int) core.ETSVariant {
	switch code {
	case 2:
		return core.ETSHolt
	case 3:
		return core.ETSWinter
	}
	return core.ETSSimple
}

// -----------------------------------------------------------------------------

// cacheKey hashes the series id, the training observations and the
// forecasting-relevant configuration, so a changed option or a different
// data window invalidates prior fits.
func (f *Forecaster) cacheKey(seriesID string, data []float64) string {
	opts := f.Config.Analysis
	payload, _ := json.Marshal(struct {
		ID string
		V  []float64
		O  models.MMaxOrder
		H  int
		C  float64
		F  string
		S  int
	}{seriesID, data, opts.MaxARIMAOrder, opts.ForecastHorizon, opts.ConfidenceLevel, opts.ForecastFamily, opts.SeasonalPeriod})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

func (f *Forecaster) lookup(seriesID string, data []float64) (*fittedEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[f.cacheKey(seriesID, data)]
	return e, ok
}

func (f *Forecaster) store(seriesID string, data []float64, entry *fittedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[f.cacheKey(seriesID, data)] = entry
}
