package anomaly

import (
	"fmt"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/stats"
)

// ZScoreDetector flags points whose |z| against the series baseline exceeds
// the sensitivity multiplier.
type ZScoreDetector struct{}

func init() {
	RegisterDetector("zscore", &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect finds anomalies using the z-score method
func (z *ZScoreDetector) Detect(series analytics.Series, config Config) ([]Anomaly, error) {
	result, err := DetectAnomalies(series, config)
	if err != nil {
		return nil, err
	}
	return result.Anomalies, nil
}

// Result is the outcome of DetectAnomalies. Bounds always describe the
// whole (possibly smoothed) series.
type Result struct {
	Anomalies   []Anomaly `json:"anomalies"`
	Bounds      Bounds    `json:"bounds"`
	TotalPoints int       `json:"total_points"`
	Baseline    Baseline  `json:"baseline"`
	Smoothed    bool      `json:"smoothed"`
}

// CalculateStatisticalBounds returns mean -/+ multiplier*stdDev of values.
func CalculateStatisticalBounds(values []float64, multiplier float64) (Bounds, error) {
	mean, stdDev, err := stats.MeanStdDev(values)
	if err != nil {
		return Bounds{}, fmt.Errorf("statistical bounds: %w", err)
	}
	return Bounds{
		Mean:   mean,
		StdDev: stdDev,
		Lower:  mean - multiplier*stdDev,
		Upper:  mean + multiplier*stdDev,
	}, nil
}

// IsAnomaly reports whether value lies strictly outside bounds.
func IsAnomaly(value float64, bounds Bounds) bool {
	return value < bounds.Lower || value > bounds.Upper
}

// DetectAnomalies scores every point of series and flags those with
// |z| > config.SensitivityMultiplier. Anomalies are returned in series order.
func DetectAnomalies(series analytics.Series, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("anomaly detection: %w", analytics.ErrEmptyInput)
	}

	scored, offset, err := prepare(series, config)
	if err != nil {
		return nil, err
	}

	values := scored.Values()
	bounds, err := CalculateStatisticalBounds(values, config.SensitivityMultiplier)
	if err != nil {
		return nil, err
	}

	baseline := config.Baseline
	if baseline == "" {
		baseline = BaselineLeaveOneOut
	}

	result := &Result{
		Bounds:      bounds,
		TotalPoints: len(series),
		Baseline:    baseline,
		Smoothed:    config.Smoothing != nil,
	}

	if len(scored) < config.MinDataPoints {
		return result, nil
	}

	others := make([]float64, 0, len(values))
	for i, p := range scored {
		mean, stdDev := bounds.Mean, bounds.StdDev
		if baseline == BaselineLeaveOneOut {
			if len(values) < 2 {
				break
			}
			others = append(others[:0], values[:i]...)
			others = append(others, values[i+1:]...)
			mean, stdDev, err = stats.MeanStdDev(others)
			if err != nil {
				return nil, err
			}
		}

		stdDev = config.flooredStdDev(mean, stdDev)
		z := stats.ZScore(p.Value, mean, stdDev)
		if !config.exceedsSensitivity(z) {
			continue
		}

		a := newAnomaly(p, i+offset, mean, z, config, "zscore")
		a.Expected = &Range{
			Min: mean - config.SensitivityMultiplier*stdDev,
			Max: mean + config.SensitivityMultiplier*stdDev,
		}
		result.Anomalies = append(result.Anomalies, a)
	}

	return result, nil
}
