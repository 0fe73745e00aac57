// Package stats holds the statistics primitives shared by the trend,
// moving-average and anomaly packages: mean, population standard
// deviation, z-score and ordinary least squares regression.
package stats

import (
	"errors"
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
	"github.com/soltixdb/insights/internal/analytics"
	"gonum.org/v1/gonum/stat"
)

// Point is an (x, y) pair fed to LinearRegression.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Regression is the result of an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"` // clamped to [0, 1]
}

// At returns the fitted value at x.
func (r Regression) At(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	mean, err := mstats.Mean(values)
	if err != nil {
		return 0, wrapStatsError("mean", err)
	}
	return mean, nil
}

// StdDev returns the population standard deviation (divides by N).
func StdDev(values []float64) (float64, error) {
	sd, err := mstats.StandardDeviationPopulation(values)
	if err != nil {
		return 0, wrapStatsError("standard deviation", err)
	}
	return sd, nil
}

// StdDevWithMean is StdDev for callers that already hold the mean.
func StdDevWithMean(values []float64, mean float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("standard deviation: %w", analytics.ErrEmptyInput)
	}

	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values))), nil
}

// Quartiles returns the first quartile, median and third quartile of
// values. The outer quartiles are the medians of the lower and upper halves.
func Quartiles(values []float64) (q1, median, q3 float64, err error) {
	if len(values) < 2 {
		return 0, 0, 0, fmt.Errorf("quartiles need at least 2 values, got %d: %w", len(values), analytics.ErrInsufficientData)
	}
	qs, err := mstats.Quartile(values)
	if err != nil {
		return 0, 0, 0, wrapStatsError("quartiles", err)
	}
	return qs.Q1, qs.Q2, qs.Q3, nil
}

// MeanStdDev computes mean and population standard deviation in one call.
func MeanStdDev(values []float64) (mean, stdDev float64, err error) {
	mean, err = Mean(values)
	if err != nil {
		return 0, 0, err
	}
	stdDev, err = StdDevWithMean(values, mean)
	return mean, stdDev, err
}

// ZScore returns how many standard deviations value lies from mean.
// A zero standard deviation yields 0: a flat series has no outliers.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// LinearRegression fits an ordinary least squares line through points.
// It needs at least two points with distinct x values.
func LinearRegression(points []Point) (Regression, error) {
	if len(points) < 2 {
		return Regression{}, fmt.Errorf("linear regression needs at least 2 points, got %d: %w",
			len(points), analytics.ErrInsufficientData)
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	if stat.Variance(xs, nil) == 0 {
		return Regression{}, fmt.Errorf("linear regression needs distinct x values: %w",
			analytics.ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	var rSquared float64
	if stat.Variance(ys, nil) > 0 {
		rSquared = clamp01(stat.RSquared(xs, ys, nil, intercept, slope))
	}

	return Regression{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
	}, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// wrapStatsError maps montanaflynn/stats errors onto the analytics taxonomy.
func wrapStatsError(op string, err error) error {
	if errors.Is(err, mstats.ErrEmptyInput) {
		return fmt.Errorf("%s: %w", op, analytics.ErrEmptyInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}
