package utils

import (
	"time"

	"econ-observer/src/models"

	"github.com/montanaflynn/stats"
	"github.com/scmhub/calendar"
)

// BusinessCalendar answers business-day questions for the business_daily
// frequency using scmhub/calendar, with a weekday fallback when the MIC
// calendar cannot be loaded.
type BusinessCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
}

// -----------------------------------------------------------------------------

func GetBusinessCalendar(mic string) *BusinessCalendar {
	if mic == "" {
		mic = "xnys"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		return &BusinessCalendar{Fallback: true}
	}
	return &BusinessCalendar{Calendar: cal}
}

// -----------------------------------------------------------------------------

func (bc *BusinessCalendar) IsBusinessDay(date time.Time) bool {
	if bc.Fallback {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return bc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// NextBusinessDay steps forward to the next business day strictly after date.
func (bc *BusinessCalendar) NextBusinessDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, 1)
	for !bc.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// -----------------------------------------------------------------------------

// PeriodIndex generates the target timestamp grid from start to end inclusive
// at the given frequency. Timestamps are truncated to the period boundary, so
// the grid begins at the period containing start.
func PeriodIndex(start, end time.Time, freq models.MFrequency, cal *BusinessCalendar) []time.Time {
	var index []time.Time
	cur := TruncateToPeriod(start, freq)
	if freq == models.FreqBusinessDaily && cal != nil && !cal.IsBusinessDay(cur) {
		cur = cal.NextBusinessDay(cur)
	}

	for !cur.After(end) {
		index = append(index, cur)
		cur = NextPeriod(cur, freq, cal)
	}
	return index
}

// -----------------------------------------------------------------------------

// TruncateToPeriod maps a timestamp onto the canonical start of its period.
func TruncateToPeriod(t time.Time, freq models.MFrequency) time.Time {
	y, m, d := t.Date()
	switch freq {
	case models.FreqDaily, models.FreqBusinessDaily:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case models.FreqWeekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		// Weeks anchor on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case models.FreqMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case models.FreqQuarterly:
		qm := time.Month(((int(m)-1)/3)*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
	case models.FreqAnnual:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

// NextPeriod advances one period at the given frequency.
func NextPeriod(t time.Time, freq models.MFrequency, cal *BusinessCalendar) time.Time {
	switch freq {
	case models.FreqDaily:
		return t.AddDate(0, 0, 1)
	case models.FreqBusinessDaily:
		if cal == nil {
			cal = GetBusinessCalendar("")
		}
		return cal.NextBusinessDay(t)
	case models.FreqWeekly:
		return t.AddDate(0, 0, 7)
	case models.FreqMonthly:
		return t.AddDate(0, 1, 0)
	case models.FreqQuarterly:
		return t.AddDate(0, 3, 0)
	case models.FreqAnnual:
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 0, 1)
}

// -----------------------------------------------------------------------------

// InferFrequency guesses a series frequency from the median gap between
// consecutive observations.
func InferFrequency(timestamps []time.Time, cal *BusinessCalendar) models.MFrequency {
	if len(timestamps) < 3 {
		return models.FreqDaily
	}

	gaps := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		gaps = append(gaps, timestamps[i].Sub(timestamps[i-1]).Hours()/24)
	}
	median, _ := stats.Median(gaps)

	switch {
	case median <= 2.0:
		// Daily cadence. A calendar-daily series lands on weekends too, so a
		// near-perfect business-day share means weekday-only sampling.
		if cal == nil {
			cal = GetBusinessCalendar("")
		}
		business := 0
		for _, t := range timestamps {
			if cal.IsBusinessDay(t) {
				business++
			}
		}
		if float64(business) >= 0.95*float64(len(timestamps)) {
			return models.FreqBusinessDaily
		}
		return models.FreqDaily
	case median <= 8:
		return models.FreqWeekly
	case median <= 45:
		return models.FreqMonthly
	case median <= 135:
		return models.FreqQuarterly
	default:
		return models.FreqAnnual
	}
}
