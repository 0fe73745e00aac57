// Package movingavg smooths a series with simple or exponential moving averages.
package movingavg

import (
	"fmt"
	"math"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
)

// Kind selects the moving average algorithm
type Kind string

const (
	KindSimple      Kind = "simple"
	KindExponential Kind = "exponential"
)

// Point is one smoothed value. WindowSize is the number of points averaged
// (simple) or the equivalent span 2/alpha - 1 (exponential).
type Point struct {
	Time       time.Time `json:"time"`
	Average    float64   `json:"average"`
	WindowSize int       `json:"window_size"`
}

// Config selects and parameterises a moving average
type Config struct {
	Kind            Kind
	WindowSize      int     // simple only
	SmoothingFactor float64 // exponential only, in (0, 1]
}

// DefaultConfig returns default moving average configuration
func DefaultConfig() Config {
	return Config{
		Kind:            KindSimple,
		WindowSize:      3,
		SmoothingFactor: 0.3,
	}
}

// Simple computes a trailing simple moving average. The output has
// len(series)-windowSize+1 points, each stamped with the time of the last
// point in its window.
func Simple(series analytics.Series, windowSize int) ([]Point, error) {
	if windowSize < 1 || windowSize > len(series) {
		return nil, fmt.Errorf("window %d for series of %d points: %w", windowSize, len(series), analytics.ErrInvalidWindow)
	}

	result := make([]Point, 0, len(series)-windowSize+1)

	var sum float64
	for i := 0; i < windowSize; i++ {
		sum += series[i].Value
	}
	result = append(result, Point{
		Time:       series[windowSize-1].Time,
		Average:    sum / float64(windowSize),
		WindowSize: windowSize,
	})

	for i := windowSize; i < len(series); i++ {
		sum += series[i].Value - series[i-windowSize].Value
		result = append(result, Point{
			Time:       series[i].Time,
			Average:    sum / float64(windowSize),
			WindowSize: windowSize,
		})
	}

	return result, nil
}

// Exponential computes an exponential moving average seeded with the first
// value: ema[0] = v[0], ema[i] = alpha*v[i] + (1-alpha)*ema[i-1].
func Exponential(series analytics.Series, alpha float64) ([]Point, error) {
	if math.IsNaN(alpha) || alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("smoothing factor %v outside (0, 1]: %w", alpha, analytics.ErrInvalidParameter)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("exponential moving average: %w", analytics.ErrEmptyInput)
	}

	span := EquivalentSpan(alpha)
	result := make([]Point, len(series))
	ema := series[0].Value
	result[0] = Point{Time: series[0].Time, Average: ema, WindowSize: span}

	for i := 1; i < len(series); i++ {
		ema = alpha*series[i].Value + (1-alpha)*ema
		result[i] = Point{Time: series[i].Time, Average: ema, WindowSize: span}
	}

	return result, nil
}

// Get dispatches on config.Kind so callers need not branch.
func Get(series analytics.Series, config Config) ([]Point, error) {
	switch config.Kind {
	case KindSimple, "":
		return Simple(series, config.WindowSize)
	case KindExponential:
		return Exponential(series, config.SmoothingFactor)
	default:
		return nil, fmt.Errorf("unknown moving average kind %q: %w", config.Kind, analytics.ErrInvalidParameter)
	}
}

// Smooth returns a copy of series whose values are replaced by the moving
// average. Timestamps follow the averaged points, so a simple average drops
// the first windowSize-1 points.
func Smooth(series analytics.Series, config Config) (analytics.Series, error) {
	points, err := Get(series, config)
	if err != nil {
		return nil, err
	}
	smoothed := make(analytics.Series, len(points))
	for i, p := range points {
		smoothed[i] = analytics.DataPoint{Time: p.Time, Value: p.Average}
	}
	return smoothed, nil
}

// EquivalentSpan converts an EMA smoothing factor into the window size of
// the SMA with the same centre of mass.
func EquivalentSpan(alpha float64) int {
	if alpha <= 0 {
		return 0
	}
	return int(math.Round(2/alpha - 1))
}
