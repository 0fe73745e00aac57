// Package trend classifies the direction and strength of a business metric
// over time using a least squares fit of the series.
package trend

import (
	"fmt"
	"math"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/stats"
)

// Direction of a fitted trend
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Strength of a trend, bucketed from the percentage change over the period
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// XAxis selects how points are placed on the regression x axis.
type XAxis string

const (
	XAxisIndex XAxis = "index" // 0, 1, 2, ... regardless of spacing
	XAxisDays  XAxis = "days"  // days elapsed since the first point
)

// Config holds tunables for trend analysis
type Config struct {
	// StabilityFraction is the fraction of |mean| below which |slope| counts as stable.
	// The slope is per x-axis unit (per point for XAxisIndex, per day for XAxisDays).
	StabilityFraction float64

	// WeakBelowPct and StrongAbovePct bound the strength buckets:
	// |change| < WeakBelowPct is weak, > StrongAbovePct is strong, otherwise moderate.
	WeakBelowPct   float64
	StrongAbovePct float64

	XAxis XAxis

	// Metric is the display name used in the description (optional).
	Metric string

	// Locale is a BCP 47 tag for number formatting in the description.
	Locale string
}

// DefaultConfig returns default trend configuration
func DefaultConfig() Config {
	return Config{
		StabilityFraction: 0.01,
		WeakBelowPct:      10,
		StrongAbovePct:    30,
		XAxis:             XAxisIndex,
		Locale:            "en",
	}
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if c.StabilityFraction < 0 {
		return fmt.Errorf("stability fraction must be >= 0, got %v: %w", c.StabilityFraction, analytics.ErrInvalidParameter)
	}
	if c.WeakBelowPct < 0 || c.StrongAbovePct < c.WeakBelowPct {
		return fmt.Errorf("strength boundaries must satisfy 0 <= weak (%v) <= strong (%v): %w",
			c.WeakBelowPct, c.StrongAbovePct, analytics.ErrInvalidParameter)
	}
	switch c.XAxis {
	case "", XAxisIndex, XAxisDays:
	default:
		return fmt.Errorf("unknown x axis %q: %w", c.XAxis, analytics.ErrInvalidParameter)
	}
	return nil
}

// Result is the outcome of AnalyzeTrend
type Result struct {
	Direction        Direction `json:"direction"`
	Strength         Strength  `json:"strength"`
	Slope            float64   `json:"slope"`
	Intercept        float64   `json:"intercept"`
	RSquared         float64   `json:"r_squared"`
	StartValue       float64   `json:"start_value"` // regression-implied value at the first point
	EndValue         float64   `json:"end_value"`   // regression-implied value at the last point
	PercentageChange float64   `json:"percentage_change"`
	DataPoints       int       `json:"data_points"`
	Description      string    `json:"description"`
}

// AnalyzeTrend fits a line through the series and classifies it.
// The series must hold at least two points.
func AnalyzeTrend(series analytics.Series, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(series) < 2 {
		return nil, fmt.Errorf("trend needs at least 2 points, got %d: %w", len(series), analytics.ErrInsufficientData)
	}

	points := toRegressionPoints(series, config.XAxis)
	reg, err := stats.LinearRegression(points)
	if err != nil {
		return nil, fmt.Errorf("trend regression: %w", err)
	}

	mean, err := stats.Mean(series.Values())
	if err != nil {
		return nil, err
	}

	start := reg.At(points[0].X)
	end := reg.At(points[len(points)-1].X)
	pct := percentageChange(start, end, mean)

	direction := classifyDirection(reg.Slope, mean, config.StabilityFraction)
	strength := ClassifyChangeStrength(pct, config)

	return &Result{
		Direction:        direction,
		Strength:         strength,
		Slope:            reg.Slope,
		Intercept:        reg.Intercept,
		RSquared:         reg.RSquared,
		StartValue:       start,
		EndValue:         end,
		PercentageChange: pct,
		DataPoints:       len(series),
		Description:      FormatTrendDescriptionLocale(config.Metric, direction, strength, pct, config.Locale),
	}, nil
}

// ClassifyChangeStrength buckets the magnitude of a percentage change.
func ClassifyChangeStrength(pct float64, config Config) Strength {
	magnitude := math.Abs(pct)
	switch {
	case magnitude < config.WeakBelowPct:
		return StrengthWeak
	case magnitude > config.StrongAbovePct:
		return StrengthStrong
	default:
		return StrengthModerate
	}
}

func classifyDirection(slope, mean, stabilityFraction float64) Direction {
	threshold := stabilityFraction * math.Abs(mean)
	if slope == 0 || math.Abs(slope) < threshold {
		return DirectionStable
	}
	if slope > 0 {
		return DirectionIncreasing
	}
	return DirectionDecreasing
}

// percentageChange is relative to |start|; when the fitted start is zero it
// falls back to |mean| and finally to 0 so the result is always finite.
func percentageChange(start, end, mean float64) float64 {
	base := math.Abs(start)
	if base == 0 {
		base = math.Abs(mean)
	}
	if base == 0 {
		return 0
	}
	return (end - start) / base * 100
}

func toRegressionPoints(series analytics.Series, axis XAxis) []stats.Point {
	points := make([]stats.Point, len(series))
	origin := series[0].Time
	for i, p := range series {
		x := float64(i)
		if axis == XAxisDays {
			x = p.Time.Sub(origin).Hours() / 24
		}
		points[i] = stats.Point{X: x, Y: p.Value}
	}
	return points
}
