// Package analytics provides the shared types for the business-metrics
// analytics engine: data points, series, monthly buckets and the error
// taxonomy used by the stats, trend, movingavg, anomaly and yoy packages.
package analytics

import (
	"sort"
	"time"
)

// DataPoint is a single timestamped business-metric value.
// Timestamps have day or month granularity.
type DataPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of data points for one metric.
// A valid series is sorted ascending by time; duplicates are kept as-is.
type Series []DataPoint

// Values extracts just the values from the series
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the timestamps from the series
func (s Series) Times() []time.Time {
	times := make([]time.Time, len(s))
	for i, p := range s {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (s Series) Len() int {
	return len(s)
}

// IsSorted reports whether the series is in ascending time order.
func (s Series) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Time.Before(s[i-1].Time) {
			return false
		}
	}
	return true
}

// MonthlyMetric is one calendar month of a business metric
// (revenue, profit, order count, ...). Month is the first instant of the month.
type MonthlyMetric struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// MonthlySeries converts monthly metrics into a Series.
func MonthlySeries(metrics []MonthlyMetric) Series {
	series := make(Series, len(metrics))
	for i, m := range metrics {
		series[i] = DataPoint{Time: m.Month, Value: m.Value}
	}
	return series
}

// StartOfMonth truncates t to the first instant of its calendar month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// BucketByMonth sums raw points into calendar months (in loc) and returns
// the months in ascending order. Months without points are not emitted.
func BucketByMonth(series Series, loc *time.Location) []MonthlyMetric {
	if len(series) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, p := range series {
		sums[StartOfMonth(p.Time, loc)] += p.Value
	}

	months := make([]MonthlyMetric, 0, len(sums))
	for month, total := range sums {
		months = append(months, MonthlyMetric{Month: month, Value: total})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}
