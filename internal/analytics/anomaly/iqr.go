package anomaly

import (
	"fmt"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/stats"
)

// IQRDetector flags points outside the Tukey fences
// [Q1 - k*IQR, Q3 + k*IQR] with k = config.IQRMultiplier.
// A single spike barely moves the quartiles, so it cannot widen its own fence.
type IQRDetector struct{}

func init() {
	RegisterDetector("iqr", &IQRDetector{})
}

// Name returns the algorithm name
func (d *IQRDetector) Name() string {
	return "iqr"
}

// Detect finds anomalies using the interquartile range
func (d *IQRDetector) Detect(series analytics.Series, config Config) ([]Anomaly, error) {
	return DetectIQROutliers(series, config)
}

// DetectIQROutliers flags points beyond the quartile fences. ExpectedValue
// is the median, ZScore is measured against the whole series and severity
// is high past the outer fence at 2k*IQR, medium otherwise. Series shorter
// than config.MinDataPoints report nothing.
func DetectIQROutliers(series analytics.Series, config Config) ([]Anomaly, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("iqr detection: %w", analytics.ErrEmptyInput)
	}

	scored, offset, err := prepare(series, config)
	if err != nil {
		return nil, err
	}
	if len(scored) < config.MinDataPoints || len(scored) < 2 {
		return nil, nil
	}

	values := scored.Values()
	q1, median, q3, err := stats.Quartiles(values)
	if err != nil {
		return nil, err
	}
	mean, stdDev, err := stats.MeanStdDev(values)
	if err != nil {
		return nil, err
	}
	stdDev = config.flooredStdDev(mean, stdDev)

	spread := q3 - q1
	fence := &Range{
		Min: q1 - config.IQRMultiplier*spread,
		Max: q3 + config.IQRMultiplier*spread,
	}
	outer := Range{
		Min: q1 - 2*config.IQRMultiplier*spread,
		Max: q3 + 2*config.IQRMultiplier*spread,
	}

	var anomalies []Anomaly
	for i, p := range scored {
		if p.Value >= fence.Min && p.Value <= fence.Max {
			continue
		}

		a := newAnomaly(p, i+offset, median, stats.ZScore(p.Value, mean, stdDev), config, "iqr")
		a.Severity = SeverityMedium
		if spread == 0 || p.Value < outer.Min || p.Value > outer.Max {
			a.Severity = SeverityHigh
		}
		a.Expected = fence
		anomalies = append(anomalies, a)
	}

	return anomalies, nil
}
