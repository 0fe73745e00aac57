package yoy

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/soltixdb/insights/internal/analytics"
)

// ChartPoint is one month of a YoY chart. Current is nil for months of the
// current year that have not started yet in a partial chart.
type ChartPoint struct {
	Month            time.Time `json:"month"`
	Label            string    `json:"label"`
	Current          *float64  `json:"current"`
	Prior            *float64  `json:"prior"`
	PercentageChange *float64  `json:"percentage_change"`
}

// ChartData is the paired monthly series of two consecutive years.
// Total compares the plotted current months with the same months a year
// earlier.
type ChartData struct {
	CurrentYear int          `json:"current_year"`
	PriorYear   int          `json:"prior_year"`
	Partial     bool         `json:"partial"`
	Points      []ChartPoint `json:"points"`
	Total       Comparison   `json:"total"`
}

// BuildYoYChartData buckets history by month in loc and pairs all twelve
// months of reference's year with the previous year. Months without data
// are plotted as zero.
func BuildYoYChartData(history analytics.Series, reference time.Time, loc *time.Location) *ChartData {
	return buildChart(history, reference, loc, 12)
}

// BuildPartialYoYChartData is BuildYoYChartData truncated at now: months of
// the current year after now's month carry no current value and are left
// out of the totals.
func BuildPartialYoYChartData(history analytics.Series, now time.Time, loc *time.Location) *ChartData {
	if loc == nil {
		loc = time.UTC
	}
	chart := buildChart(history, now, loc, int(now.In(loc).Month()))
	chart.Partial = true
	return chart
}

func buildChart(history analytics.Series, reference time.Time, loc *time.Location, elapsed int) *ChartData {
	if loc == nil {
		loc = time.UTC
	}
	dr := GetYoYDateRange(reference, loc)
	current := monthTotals(FilterByDateRange(history, dr.CurrentStart, dr.CurrentEnd), loc)
	prior := monthTotals(FilterByDateRange(history, dr.PriorStart, dr.PriorEnd), loc)

	chart := &ChartData{
		CurrentYear: dr.CurrentStart.Year(),
		PriorYear:   dr.PriorStart.Year(),
		Points:      make([]ChartPoint, 0, 12),
	}

	curTotal, priTotal := decimal.Zero, decimal.Zero
	for i, m := range GetYearlyMonthRanges(reference, loc) {
		pv := prior[i]
		point := ChartPoint{Month: m.Start, Label: m.Label, Prior: &pv}
		if i < elapsed {
			cv := current[i]
			point.Current = &cv
			point.PercentageChange = CalculateYoYComparison(cv, pv).PercentageChange
			curTotal = curTotal.Add(safeDecimal(cv))
			priTotal = priTotal.Add(safeDecimal(pv))
		}
		chart.Points = append(chart.Points, point)
	}

	chart.Total = CalculateYoYComparison(curTotal.InexactFloat64(), priTotal.InexactFloat64())
	return chart
}

// monthTotals sums points per month of year, January at index 0.
func monthTotals(series analytics.Series, loc *time.Location) [12]float64 {
	var totals [12]float64
	for _, m := range analytics.BucketByMonth(series, loc) {
		totals[m.Month.Month()-1] = m.Value
	}
	return totals
}
