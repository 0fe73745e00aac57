package anomaly

import (
	"fmt"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/stats"
)

// MovingWindowDetector compares each point with the trailing window of
// points before it.
type MovingWindowDetector struct{}

func init() {
	RegisterDetector("moving_window", &MovingWindowDetector{})
}

// Name returns the algorithm name
func (m *MovingWindowDetector) Name() string {
	return "moving_window"
}

// Detect finds anomalies against a trailing window of config.WindowSize points
func (m *MovingWindowDetector) Detect(series analytics.Series, config Config) ([]Anomaly, error) {
	return DetectAnomaliesMovingWindowWithConfig(series, config)
}

// DetectAnomaliesMovingWindow flags point i when its z-score against
// points [i-windowSize, i) exceeds sensitivity. The first windowSize points
// have no full history and are never flagged.
func DetectAnomaliesMovingWindow(series analytics.Series, windowSize int, sensitivity float64) ([]Anomaly, error) {
	config := DefaultConfig()
	config.WindowSize = windowSize
	config.SensitivityMultiplier = sensitivity
	return DetectAnomaliesMovingWindowWithConfig(series, config)
}

// DetectAnomaliesMovingWindowWithConfig is DetectAnomaliesMovingWindow with
// full control over severity cut-offs, the deviation floor and smoothing.
func DetectAnomaliesMovingWindowWithConfig(series analytics.Series, config Config) ([]Anomaly, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.WindowSize < 1 {
		return nil, fmt.Errorf("moving window %d: %w", config.WindowSize, analytics.ErrInvalidWindow)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("moving window detection: %w", analytics.ErrEmptyInput)
	}

	scored, offset, err := prepare(series, config)
	if err != nil {
		return nil, err
	}

	values := scored.Values()
	var anomalies []Anomaly
	for i := config.WindowSize; i < len(scored); i++ {
		window := values[i-config.WindowSize : i]
		mean, stdDev, err := stats.MeanStdDev(window)
		if err != nil {
			return nil, err
		}

		stdDev = config.flooredStdDev(mean, stdDev)
		z := stats.ZScore(values[i], mean, stdDev)
		if !config.exceedsSensitivity(z) {
			continue
		}

		a := newAnomaly(scored[i], i+offset, mean, z, config, "moving_window")
		a.Expected = &Range{
			Min: mean - config.SensitivityMultiplier*stdDev,
			Max: mean + config.SensitivityMultiplier*stdDev,
		}
		anomalies = append(anomalies, a)
	}

	return anomalies, nil
}
