package analysis

import (
	"math"
	"sort"
	"strconv"
	"time"

	"econ-observer/src/helpers"
	"econ-observer/src/logger"
	"econ-observer/src/models"
	"econ-observer/src/utils"
)

// Aligner normalizes heterogeneous-frequency series onto one shared time
// index. It is a pure transform over its inputs.
type Aligner struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Calendar *utils.BusinessCalendar
}

// -----------------------------------------------------------------------------

func NewAligner(cfg *models.MConfig, log *logger.Logger) *Aligner {
	return &Aligner{
		Config:   cfg,
		Logger:   log,
		Calendar: utils.GetBusinessCalendar(""),
	}
}

// -----------------------------------------------------------------------------

// Align resamples all series to the target frequency and range and returns
// the panel. The target frequency is the coarsest among the inputs unless
// the configuration overrides it.
func (a *Aligner) Align(series []models.MSeries) (*models.MAlignedPanel, error) {
	if len(series) == 0 {
		return nil, helpers.NewInsufficientDataError("align", 1, 0)
	}

	for i := range series {
		if !series[i].ValidateMonotonic() {
			return nil, &helpers.AnalysisError{Message: "series " + series[i].ID + ": timestamps must be strictly increasing"}
		}
		if series[i].Len() == 0 {
			return nil, helpers.NewInsufficientDataError("align series "+series[i].ID, 1, 0)
		}
		if !series[i].Frequency.Valid() {
			series[i].Frequency = utils.InferFrequency(series[i].Timestamps(), a.Calendar)
			a.Logger.Debug("Inferred frequency %s for series %s", series[i].Frequency, series[i].ID)
		}
	}

	opts := a.Config.Analysis
	target := a.targetFrequency(series)
	a.Logger.Info("Aligning %d series to frequency %s (range policy %s)", len(series), target, opts.RangePolicy)

	// Upsampling a coarser series onto a finer grid needs an explicit policy.
	kept := make([]models.MSeries, 0, len(series))
	for _, s := range series {
		fill, err := a.fillMethod(s)
		if err != nil {
			return nil, err
		}
		if s.Frequency.Coarseness() > target.Coarseness() {
			switch fill {
			case models.FillDrop:
				a.Logger.Warning("Dropping series %s: frequency %s coarser than target %s", s.ID, s.Frequency, target)
				continue
			case models.FillForward, models.FillLinear:
				// Allowed, handled during gridding.
			default:
				return nil, helpers.NewFrequencyMismatchError(s.ID, string(s.Frequency), string(target))
			}
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, helpers.NewInsufficientDataError("align", 1, 0)
	}

	start, end, err := a.resolveRange(kept, opts.RangePolicy)
	if err != nil {
		return nil, err
	}

	index := utils.PeriodIndex(start, end, target, a.Calendar)
	if len(index) < 2 {
		return nil, helpers.NewFrequencyMismatchError("panel",
			"overlap of "+strconv.Itoa(len(index))+" periods", "at least 2")
	}

	panel := &models.MAlignedPanel{
		Frequency: target,
		Index:     index,
		Values:    make(map[string][]float64, len(kept)),
		SeriesIDs: make([]string, 0, len(kept)),
	}

	for _, s := range kept {
		fill, _ := a.fillMethod(s)
		col := a.gridSeries(s, index, target)
		a.applyFill(col, fill, s.Frequency.Coarseness() > target.Coarseness())
		panel.Values[s.ID] = col
		panel.SeriesIDs = append(panel.SeriesIDs, s.ID)
	}
	sort.Strings(panel.SeriesIDs)

	return panel, nil
}

// -----------------------------------------------------------------------------

// fillMethod resolves the effective missing-value policy for one series: its
// own declaration when present, the panel-wide setting otherwise. The
// panel-wide value is validated at config load; a per-series override is
// provider input and gets checked here.
func (a *Aligner) fillMethod(s models.MSeries) (string, error) {
	if s.FillMethod == "" {
		return a.Config.Analysis.FillMethod, nil
	}
	switch s.FillMethod {
	case models.FillForward, models.FillLinear, models.FillDrop:
		return s.FillMethod, nil
	}
	return "", &helpers.ConfigurationError{AnalysisError: helpers.AnalysisError{
		Message: "series " + s.ID + " declares unknown fill_method " + strconv.Quote(s.FillMethod)}}
}

// -----------------------------------------------------------------------------

func (a *Aligner) targetFrequency(series []models.MSeries) models.MFrequency {
	if override := a.Config.Analysis.FrequencyOverride; override != "" {
		return models.MFrequency(override)
	}
	target := series[0].Frequency
	for _, s := range series[1:] {
		if s.Frequency.Coarseness() > target.Coarseness() {
			target = s.Frequency
		}
	}
	return target
}

// -----------------------------------------------------------------------------

// resolveRange computes the shared [start, end] window under the configured
// range policy.
func (a *Aligner) resolveRange(series []models.MSeries, policy string) (time.Time, time.Time, error) {
	start := series[0].Observations[0].Timestamp
	end := series[0].Observations[series[0].Len()-1].Timestamp

	for _, s := range series[1:] {
		sStart := s.Observations[0].Timestamp
		sEnd := s.Observations[s.Len()-1].Timestamp
		if policy == models.RangeUnion {
			if sStart.Before(start) {
				start = sStart
			}
			if sEnd.After(end) {
				end = sEnd
			}
		} else {
			if sStart.After(start) {
				start = sStart
			}
			if sEnd.Before(end) {
				end = sEnd
			}
		}
	}

	if policy != models.RangeUnion && end.Before(start) {
		return time.Time{}, time.Time{}, helpers.NewFrequencyMismatchError("panel", "disjoint series ranges", "overlapping ranges")
	}
	return start, end, nil
}

// -----------------------------------------------------------------------------

// gridSeries buckets observations onto the target index. Periods with
// multiple observations are aggregated, empty periods become NaN.
func (a *Aligner) gridSeries(s models.MSeries, index []time.Time, target models.MFrequency) []float64 {
	agg := s.Aggregation
	if agg == "" {
		agg = a.Config.Analysis.Aggregation
	}

	buckets := make(map[time.Time][]float64, len(index))
	for _, obs := range s.Observations {
		if math.IsNaN(obs.Value) {
			continue
		}
		key := utils.TruncateToPeriod(obs.Timestamp, target)
		if target == models.FreqBusinessDaily && !a.Calendar.IsBusinessDay(key) {
			key = a.Calendar.NextBusinessDay(key)
		}
		buckets[key] = append(buckets[key], obs.Value)
	}

	col := make([]float64, len(index))
	for i, t := range index {
		vals, ok := buckets[t]
		if !ok || len(vals) == 0 {
			col[i] = math.NaN()
			continue
		}
		if agg == models.AggLast {
			col[i] = vals[len(vals)-1]
		} else {
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			col[i] = sum / float64(len(vals))
		}
	}
	return col
}

// -----------------------------------------------------------------------------

// applyFill fills interior gaps in place under the series' resolved fill
// method. Forward fill is bounded by the configured maximum run length
// unless the gap comes from upsampling a coarser series, where runs up to
// the frequency ratio are expected. Drop leaves gaps missing so complete-row
// consumers exclude those periods.
func (a *Aligner) applyFill(col []float64, fill string, upsampled bool) {
	maxRun := a.Config.Analysis.MaxFillRun
	if upsampled && fill == models.FillForward {
		maxRun = len(col)
	}

	switch fill {
	case models.FillLinear:
		linearInterpolate(col)
	case models.FillDrop:
		// Gaps stay NaN.
	default:
		forwardFill(col, maxRun)
	}
}

// -----------------------------------------------------------------------------

func forwardFill(col []float64, maxRun int) {
	run := 0
	last := math.NaN()
	for i := range col {
		if !math.IsNaN(col[i]) {
			last = col[i]
			run = 0
			continue
		}
		if math.IsNaN(last) {
			continue
		}
		run++
		if run <= maxRun {
			col[i] = last
		}
	}
}

// -----------------------------------------------------------------------------

// linearInterpolate fills interior NaN runs between two observed values.
// Leading and trailing gaps stay missing.
func linearInterpolate(col []float64) {
	prev := -1
	for i := range col {
		if math.IsNaN(col[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (col[i] - col[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				col[j] = col[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}

