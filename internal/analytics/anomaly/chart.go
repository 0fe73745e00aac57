package anomaly

import (
	"time"

	"github.com/soltixdb/insights/internal/analytics"
)

// ChartPoint is one point of an anomaly chart. Anomaly fields are only set
// on flagged points.
type ChartPoint struct {
	Time          time.Time `json:"time"`
	Value         float64   `json:"value"`
	IsAnomaly     bool      `json:"is_anomaly"`
	Severity      Severity  `json:"severity,omitempty"`
	Type          Type      `json:"type,omitempty"`
	ExpectedValue *float64  `json:"expected_value,omitempty"`
}

// GetAnomalyChartPoints marks the points of series that appear in anomalies.
// When several anomalies hit the same point the most severe one wins.
func GetAnomalyChartPoints(series analytics.Series, anomalies []Anomaly) []ChartPoint {
	byIndex := make(map[int]Anomaly, len(anomalies))
	for _, a := range anomalies {
		if a.Index < 0 || a.Index >= len(series) || !series[a.Index].Time.Equal(a.Time) {
			continue
		}
		if prev, ok := byIndex[a.Index]; ok && prev.Severity.rank() >= a.Severity.rank() {
			continue
		}
		byIndex[a.Index] = a
	}

	points := make([]ChartPoint, len(series))
	for i, p := range series {
		points[i] = ChartPoint{Time: p.Time, Value: p.Value}
		if a, ok := byIndex[i]; ok {
			expected := a.ExpectedValue
			points[i].IsAnomaly = true
			points[i].Severity = a.Severity
			points[i].Type = a.Type
			points[i].ExpectedValue = &expected
		}
	}
	return points
}
