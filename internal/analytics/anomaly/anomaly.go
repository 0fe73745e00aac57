// Package anomaly flags data points that deviate from their statistical
// baseline. Three detectors are provided: a z-score detector over the whole
// series, a trailing moving window detector and a fixed threshold detector.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/movingavg"
)

// Type represents the type of anomaly detected
type Type string

const (
	TypeSpike           Type = "spike"            // value above its expected range
	TypeDrop            Type = "drop"             // value below its expected range
	TypeThresholdBreach Type = "threshold_breach" // value outside a fixed business limit
)

// Severity of an anomaly, graded by |z|
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Baseline selects which points the z-score of a candidate is measured against.
type Baseline string

const (
	// BaselineLeaveOneOut scores each point against the other n-1 points.
	BaselineLeaveOneOut Baseline = "leave_one_out"
	// BaselineWholeSeries scores each point against all n points, itself included.
	// |z| can then never exceed sqrt(n-1).
	BaselineWholeSeries Baseline = "whole_series"
)

// Anomaly is a single flagged point. Index refers to the input series.
type Anomaly struct {
	Time          time.Time `json:"time"`
	Index         int       `json:"index"`
	Value         float64   `json:"value"`
	ExpectedValue float64   `json:"expected_value"`
	Deviation     float64   `json:"deviation"` // Value - ExpectedValue
	ZScore        float64   `json:"z_score"`
	Severity      Severity  `json:"severity"`
	Type          Type      `json:"type"`
	Expected      *Range    `json:"expected,omitempty"`
	Algorithm     string    `json:"algorithm"`
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds are the statistical bounds of a series:
// Lower/Upper = Mean -/+ multiplier*StdDev.
type Bounds struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// Thresholds are fixed business limits. A nil side is not checked.
type Thresholds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Validate checks that at least one side is set and Min <= Max
func (t Thresholds) Validate() error {
	if t.Min == nil && t.Max == nil {
		return fmt.Errorf("threshold needs min or max: %w", analytics.ErrInvalidParameter)
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return fmt.Errorf("threshold min %v above max %v: %w", *t.Min, *t.Max, analytics.ErrInvalidParameter)
	}
	return nil
}

// Config holds configuration for anomaly detection
type Config struct {
	// SensitivityMultiplier is the |z| a point must exceed to be flagged.
	SensitivityMultiplier float64

	// Severity cut-offs on |z|: above HighSeverityZ is high,
	// above MediumSeverityZ is medium, otherwise low.
	MediumSeverityZ float64
	HighSeverityZ   float64

	Baseline Baseline

	// StdDevFloorFraction replaces a zero baseline deviation with
	// fraction*|baseline mean| so a lone outlier in a flat series still scores.
	StdDevFloorFraction float64

	// MinDataPoints is the series length below which the z-score detector
	// reports nothing.
	MinDataPoints int

	// IQRMultiplier is k in the iqr detector fences [Q1-k*IQR, Q3+k*IQR].
	IQRMultiplier float64

	// WindowSize is the trailing window of the moving window detector.
	WindowSize int

	// Smoothing, when set, runs detection on the smoothed series.
	Smoothing *movingavg.Config

	// Thresholds is used by the threshold detector.
	Thresholds Thresholds

	// MetricThresholds adds per-metric threshold checks to DetectBusinessAnomalies.
	MetricThresholds map[string]Thresholds

	// BreachMediumRatio and BreachHighRatio grade threshold breaches by
	// |value-limit|/|limit|.
	BreachMediumRatio float64
	BreachHighRatio   float64
}

// DefaultConfig returns default detector configuration
func DefaultConfig() Config {
	return Config{
		SensitivityMultiplier: 2.0,
		MediumSeverityZ:       2.0,
		HighSeverityZ:         3.0,
		Baseline:              BaselineLeaveOneOut,
		StdDevFloorFraction:   0.01,
		MinDataPoints:         3,
		IQRMultiplier:         1.5,
		WindowSize:            6,
		BreachMediumRatio:     0.1,
		BreachHighRatio:       0.5,
	}
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if !(c.SensitivityMultiplier > 0) {
		return fmt.Errorf("sensitivity multiplier must be > 0, got %v: %w", c.SensitivityMultiplier, analytics.ErrInvalidParameter)
	}
	if c.MediumSeverityZ < 0 || c.HighSeverityZ < c.MediumSeverityZ {
		return fmt.Errorf("severity cut-offs must satisfy 0 <= medium (%v) <= high (%v): %w",
			c.MediumSeverityZ, c.HighSeverityZ, analytics.ErrInvalidParameter)
	}
	if c.StdDevFloorFraction < 0 {
		return fmt.Errorf("stddev floor fraction must be >= 0, got %v: %w", c.StdDevFloorFraction, analytics.ErrInvalidParameter)
	}
	if c.IQRMultiplier < 0 {
		return fmt.Errorf("iqr multiplier must be >= 0, got %v: %w", c.IQRMultiplier, analytics.ErrInvalidParameter)
	}
	switch c.Baseline {
	case "", BaselineLeaveOneOut, BaselineWholeSeries:
	default:
		return fmt.Errorf("unknown baseline %q: %w", c.Baseline, analytics.ErrInvalidParameter)
	}
	return nil
}

// ClassifySeverity grades |z| against the configured cut-offs.
func (c Config) ClassifySeverity(z float64) Severity {
	magnitude := math.Abs(z)
	switch {
	case magnitude > c.HighSeverityZ:
		return SeverityHigh
	case magnitude > c.MediumSeverityZ:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// zTolerance absorbs rounding in |z| at the sensitivity boundary.
const zTolerance = 1e-9

// exceedsSensitivity reports whether |z| is beyond the sensitivity multiplier.
func (c Config) exceedsSensitivity(z float64) bool {
	return math.Abs(z) > c.SensitivityMultiplier+zTolerance
}

// flooredStdDev substitutes the configured floor for a zero deviation.
func (c Config) flooredStdDev(mean, stdDev float64) float64 {
	if stdDev > 0 {
		return stdDev
	}
	return c.StdDevFloorFraction * math.Abs(mean)
}

// Detector is implemented by every anomaly detection algorithm
type Detector interface {
	// Name returns the algorithm name
	Name() string

	// Detect finds anomalies in a time ordered series
	Detect(series analytics.Series, config Config) ([]Anomaly, error)
}

// Registry holds available anomaly detectors
var detectorRegistry = make(map[string]Detector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector Detector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (Detector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector %q: %w", name, analytics.ErrInvalidParameter)
}

// ListDetectors returns the registered detector names in order
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect runs the named detector on series
func Detect(algorithm string, series analytics.Series, config Config) ([]Anomaly, error) {
	detector, err := GetDetector(algorithm)
	if err != nil {
		return nil, err
	}
	return detector.Detect(series, config)
}

// prepare applies optional smoothing and returns the series to score along
// with the offset of its first point in the input.
func prepare(series analytics.Series, config Config) (analytics.Series, int, error) {
	if config.Smoothing == nil {
		return series, 0, nil
	}
	smoothed, err := movingavg.Smooth(series, *config.Smoothing)
	if err != nil {
		return nil, 0, fmt.Errorf("smoothing before detection: %w", err)
	}
	return smoothed, len(series) - len(smoothed), nil
}

func newAnomaly(p analytics.DataPoint, index int, expected, z float64, config Config, algorithm string) Anomaly {
	typ := TypeDrop
	if p.Value > expected {
		typ = TypeSpike
	}
	return Anomaly{
		Time:          p.Time,
		Index:         index,
		Value:         p.Value,
		ExpectedValue: expected,
		Deviation:     p.Value - expected,
		ZScore:        z,
		Severity:      config.ClassifySeverity(z),
		Type:          typ,
		Algorithm:     algorithm,
	}
}
