package anomaly

import (
	"math"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/stats"
)

// ThresholdDetector flags values outside fixed business limits.
type ThresholdDetector struct{}

func init() {
	RegisterDetector("threshold", &ThresholdDetector{})
}

// Name returns the algorithm name
func (t *ThresholdDetector) Name() string {
	return "threshold"
}

// Detect checks series against config.Thresholds
func (t *ThresholdDetector) Detect(series analytics.Series, config Config) ([]Anomaly, error) {
	return DetectThresholdBreaches(series, config.Thresholds, config)
}

// DetectThresholdBreaches flags every point below thresholds.Min or above
// thresholds.Max. ExpectedValue is the violated limit and ZScore is measured
// against the whole series. An empty series has no breaches.
func DetectThresholdBreaches(series analytics.Series, thresholds Thresholds, config Config) ([]Anomaly, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}

	mean, stdDev, err := stats.MeanStdDev(series.Values())
	if err != nil {
		return nil, err
	}
	stdDev = config.flooredStdDev(mean, stdDev)

	var anomalies []Anomaly
	for i, p := range series {
		var limit float64
		switch {
		case thresholds.Min != nil && p.Value < *thresholds.Min:
			limit = *thresholds.Min
		case thresholds.Max != nil && p.Value > *thresholds.Max:
			limit = *thresholds.Max
		default:
			continue
		}

		anomalies = append(anomalies, Anomaly{
			Time:          p.Time,
			Index:         i,
			Value:         p.Value,
			ExpectedValue: limit,
			Deviation:     p.Value - limit,
			ZScore:        stats.ZScore(p.Value, mean, stdDev),
			Severity:      breachSeverity(p.Value, limit, config),
			Type:          TypeThresholdBreach,
			Expected:      thresholdRange(thresholds),
			Algorithm:     "threshold",
		})
	}

	return anomalies, nil
}

// breachSeverity grades by how far past the limit the value is, relative to
// the limit. A zero limit makes any breach high.
func breachSeverity(value, limit float64, config Config) Severity {
	if limit == 0 {
		return SeverityHigh
	}
	ratio := math.Abs(value-limit) / math.Abs(limit)
	switch {
	case ratio > config.BreachHighRatio:
		return SeverityHigh
	case ratio > config.BreachMediumRatio:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// thresholdRange is only set for two sided thresholds; infinities do not
// survive JSON encoding.
func thresholdRange(t Thresholds) *Range {
	if t.Min == nil || t.Max == nil {
		return nil
	}
	return &Range{Min: *t.Min, Max: *t.Max}
}
