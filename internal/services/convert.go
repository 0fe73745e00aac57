package services

import (
	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/models"
)

// toSeries converts request points. Sorting is the caller's job: unsorted
// input is rejected rather than silently reordered.
func toSeries(points []models.PointInput) (analytics.Series, error) {
	series := make(analytics.Series, len(points))
	for i, p := range points {
		series[i] = analytics.DataPoint{Time: p.Time, Value: p.Value}
	}
	if !series.IsSorted() {
		return nil, NewServiceError(CodeInvalidParameter, "points must be sorted by time ascending")
	}
	return series, nil
}

func toMonthly(values []models.MonthlyInput) []analytics.MonthlyMetric {
	monthly := make([]analytics.MonthlyMetric, len(values))
	for i, v := range values {
		monthly[i] = analytics.MonthlyMetric{Month: v.Month, Value: v.Value}
	}
	return monthly
}
