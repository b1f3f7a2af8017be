package utils

import (
	"testing"
	"time"

	"econ-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateToPeriod(t *testing.T) {
	ts := time.Date(2023, 8, 17, 14, 30, 0, 0, time.UTC) // a Thursday

	assert.Equal(t, time.Date(2023, 8, 17, 0, 0, 0, 0, time.UTC),
		TruncateToPeriod(ts, models.FreqDaily))
	assert.Equal(t, time.Date(2023, 8, 14, 0, 0, 0, 0, time.UTC),
		TruncateToPeriod(ts, models.FreqWeekly), "weeks anchor on Monday")
	assert.Equal(t, time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		TruncateToPeriod(ts, models.FreqMonthly))
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		TruncateToPeriod(ts, models.FreqQuarterly))
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		TruncateToPeriod(ts, models.FreqAnnual))
}

func TestPeriodIndexMonthly(t *testing.T) {
	start := time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	index := PeriodIndex(start, end, models.FreqMonthly, nil)
	require.Len(t, index, 6)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), index[0],
		"grid starts at the period containing start")
	assert.Equal(t, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), index[5])
}

func TestPeriodIndexBusinessDailySkipsWeekends(t *testing.T) {
	cal := GetBusinessCalendar("")
	// Friday through Tuesday
	start := time.Date(2023, 8, 18, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 8, 22, 0, 0, 0, 0, time.UTC)

	index := PeriodIndex(start, end, models.FreqBusinessDaily, cal)
	require.Len(t, index, 3)
	for _, d := range index {
		assert.True(t, cal.IsBusinessDay(d))
	}
}

func TestNextBusinessDay(t *testing.T) {
	cal := GetBusinessCalendar("")
	friday := time.Date(2023, 8, 18, 0, 0, 0, 0, time.UTC)

	next := cal.NextBusinessDay(friday)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestInferFrequency(t *testing.T) {
	mk := func(n int, step func(i int) time.Time) []time.Time {
		out := make([]time.Time, n)
		for i := range out {
			out[i] = step(i)
		}
		return out
	}
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	monthly := mk(24, func(i int) time.Time { return base.AddDate(0, i, 0) })
	assert.Equal(t, models.FreqMonthly, InferFrequency(monthly, nil))

	quarterly := mk(12, func(i int) time.Time { return base.AddDate(0, 3*i, 0) })
	assert.Equal(t, models.FreqQuarterly, InferFrequency(quarterly, nil))

	daily := mk(30, func(i int) time.Time { return base.AddDate(0, 0, i) })
	assert.Equal(t, models.FreqDaily, InferFrequency(daily, nil))

	annual := mk(10, func(i int) time.Time { return base.AddDate(i, 0, 0) })
	assert.Equal(t, models.FreqAnnual, InferFrequency(annual, nil))

	weekly := mk(30, func(i int) time.Time { return base.AddDate(0, 0, 7*i) })
	assert.Equal(t, models.FreqWeekly, InferFrequency(weekly, nil))
}

func TestInferFrequencyBusinessDaily(t *testing.T) {
	cal := GetBusinessCalendar("")
	cur := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC) // a Monday
	var ts []time.Time
	for len(ts) < 40 {
		if cal.IsBusinessDay(cur) {
			ts = append(ts, cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	assert.Equal(t, models.FreqBusinessDaily, InferFrequency(ts, cal))
}
