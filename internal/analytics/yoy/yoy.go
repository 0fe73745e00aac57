// Package yoy compares a calendar year of a business metric with the year
// before it, month by month, and builds paired series for charting.
package yoy

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soltixdb/insights/internal/analytics"
)

var hundred = decimal.NewFromInt(100)

// DateRange holds the current calendar year and the same range one year
// earlier. Ends are the last instant of Dec 31.
type DateRange struct {
	CurrentStart time.Time `json:"current_start"`
	CurrentEnd   time.Time `json:"current_end"`
	PriorStart   time.Time `json:"prior_start"`
	PriorEnd     time.Time `json:"prior_end"`
}

// MonthRange is one calendar month, End being its last instant.
type MonthRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether t falls inside the month
func (m MonthRange) Contains(t time.Time) bool {
	return !t.Before(m.Start) && !t.After(m.End)
}

// Comparison is the change from Prior to Current. PercentageChange is nil
// when the prior value is zero and the current one is not.
type Comparison struct {
	Current          float64  `json:"current"`
	Prior            float64  `json:"prior"`
	PercentageChange *float64 `json:"percentage_change"`
	AbsoluteChange   float64  `json:"absolute_change"`
}

// Result pairs two month-aligned periods. CurrentPeriod and PriorPeriod
// always have the same length.
type Result struct {
	CurrentPeriod    analytics.Series `json:"current_period"`
	PriorPeriod      analytics.Series `json:"prior_period"`
	Months           []Comparison     `json:"months"`
	CurrentTotal     float64          `json:"current_total"`
	PriorTotal       float64          `json:"prior_total"`
	PercentageChange *float64         `json:"percentage_change"`
	AbsoluteChange   float64          `json:"absolute_change"`
}

// GetYoYDateRange returns the calendar year containing reference (in loc)
// and the previous calendar year.
func GetYoYDateRange(reference time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	year := reference.In(loc).Year()
	currentStart := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	priorStart := time.Date(year-1, time.January, 1, 0, 0, 0, 0, loc)
	return DateRange{
		CurrentStart: currentStart,
		CurrentEnd:   currentStart.AddDate(1, 0, 0).Add(-time.Nanosecond),
		PriorStart:   priorStart,
		PriorEnd:     currentStart.Add(-time.Nanosecond),
	}
}

// GetYearlyMonthRanges returns the twelve months of the calendar year that
// contains reference, January first.
func GetYearlyMonthRanges(reference time.Time, loc *time.Location) []MonthRange {
	if loc == nil {
		loc = time.UTC
	}
	year := reference.In(loc).Year()
	months := make([]MonthRange, 12)
	for i := range months {
		start := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, loc)
		months[i] = MonthRange{
			Start: start,
			End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
			Label: start.Month().String()[:3],
		}
	}
	return months
}

// CalculateYoYComparison computes current-prior and the change as a
// percentage of |prior|. A zero prior leaves PercentageChange nil unless
// current is zero too, which is no change. A non-finite input yields the
// zero Comparison so nothing unencodable reaches the caller.
func CalculateYoYComparison(current, prior float64) Comparison {
	if !finite(current) || !finite(prior) {
		return Comparison{}
	}
	c := Comparison{Current: current, Prior: prior}

	cur := decimal.NewFromFloat(current)
	pri := decimal.NewFromFloat(prior)
	diff := cur.Sub(pri)
	c.AbsoluteChange = diff.InexactFloat64()

	switch {
	case !pri.IsZero():
		pct := diff.Div(pri.Abs()).Mul(hundred).InexactFloat64()
		c.PercentageChange = &pct
	case cur.IsZero():
		pct := 0.0
		c.PercentageChange = &pct
	}
	return c
}

// CalculateYoYFromArrays aligns two pre-bucketed monthly series by position.
// The shorter side is zero-filled, with timestamps shifted one year from the
// other side, so both periods come back with the same length. The overall
// change compares the period totals.
func CalculateYoYFromArrays(current, prior analytics.Series) *Result {
	n := len(current)
	if len(prior) > n {
		n = len(prior)
	}

	result := &Result{
		CurrentPeriod: make(analytics.Series, n),
		PriorPeriod:   make(analytics.Series, n),
		Months:        make([]Comparison, n),
	}

	curTotal, priTotal := decimal.Zero, decimal.Zero
	for i := 0; i < n; i++ {
		var c, p analytics.DataPoint
		switch {
		case i < len(current) && i < len(prior):
			c, p = current[i], prior[i]
		case i < len(current):
			c = current[i]
			p = analytics.DataPoint{Time: c.Time.AddDate(-1, 0, 0)}
		default:
			p = prior[i]
			c = analytics.DataPoint{Time: p.Time.AddDate(1, 0, 0)}
		}

		result.CurrentPeriod[i] = c
		result.PriorPeriod[i] = p
		result.Months[i] = CalculateYoYComparison(c.Value, p.Value)
		curTotal = curTotal.Add(safeDecimal(c.Value))
		priTotal = priTotal.Add(safeDecimal(p.Value))
	}

	result.CurrentTotal = curTotal.InexactFloat64()
	result.PriorTotal = priTotal.InexactFloat64()
	total := CalculateYoYComparison(result.CurrentTotal, result.PriorTotal)
	result.PercentageChange = total.PercentageChange
	result.AbsoluteChange = total.AbsoluteChange
	return result
}

// FilterByDateRange returns the points with start <= time <= end.
func FilterByDateRange(series analytics.Series, start, end time.Time) analytics.Series {
	filtered := make(analytics.Series, 0, len(series))
	for _, p := range series {
		if p.Time.Before(start) || p.Time.After(end) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safeDecimal(v float64) decimal.Decimal {
	if !finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
