package models

import "time"

// PointInput is one time-stamped value in a request body
type PointInput struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// MonthlyInput is one monthly business metric value
type MonthlyInput struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// ThresholdInput holds optional business limits
type ThresholdInput struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// SmoothingInput selects a moving average applied before detection
type SmoothingInput struct {
	Kind            string  `json:"kind"` // simple, exponential
	WindowSize      int     `json:"window_size,omitempty"`
	SmoothingFactor float64 `json:"smoothing_factor,omitempty"`
}

// TrendRequest represents a trend analysis request
type TrendRequest struct {
	Metric string       `json:"metric,omitempty"`
	Points []PointInput `json:"points"`
	XAxis  string       `json:"x_axis,omitempty"` // index (default), days
}

// MovingAverageRequest represents a moving average request.
// Zero values fall back to the configured defaults.
type MovingAverageRequest struct {
	Points          []PointInput `json:"points"`
	Kind            string       `json:"kind,omitempty"`
	WindowSize      int          `json:"window_size,omitempty"`
	SmoothingFactor float64      `json:"smoothing_factor,omitempty"`
}

// AnomalyRequest represents a detection request against a named detector
type AnomalyRequest struct {
	Points      []PointInput    `json:"points"`
	Method      string          `json:"method,omitempty"` // zscore (default), moving_window, threshold, iqr
	Sensitivity *float64        `json:"sensitivity,omitempty"`
	Baseline    string          `json:"baseline,omitempty"`
	WindowSize  int             `json:"window_size,omitempty"`
	Smoothing   *SmoothingInput `json:"smoothing,omitempty"`
	Thresholds  *ThresholdInput `json:"thresholds,omitempty"`
}

// ThresholdRequest represents a threshold breach request
type ThresholdRequest struct {
	Points []PointInput `json:"points"`
	ThresholdInput
}

// WindowAnomalyRequest represents a moving window detection request
type WindowAnomalyRequest struct {
	Points      []PointInput `json:"points"`
	WindowSize  int          `json:"window_size,omitempty"`
	Sensitivity *float64     `json:"sensitivity,omitempty"`
}

// BusinessAnomalyRequest represents a multi-metric monthly detection request
type BusinessAnomalyRequest struct {
	Metrics     map[string][]MonthlyInput `json:"metrics"`
	Thresholds  map[string]ThresholdInput `json:"thresholds,omitempty"`
	Sensitivity *float64                  `json:"sensitivity,omitempty"`
	Notify      bool                      `json:"notify,omitempty"`
}

// YoYArraysRequest pairs two series position by position
type YoYArraysRequest struct {
	Current []PointInput `json:"current"`
	Prior   []PointInput `json:"prior"`
}

// YoYChartRequest buckets raw points into a two-year monthly chart.
// Reference defaults to now; Partial truncates the current year at it.
type YoYChartRequest struct {
	Points    []PointInput `json:"points"`
	Reference *time.Time   `json:"reference,omitempty"`
	Partial   bool         `json:"partial,omitempty"`
	Timezone  string       `json:"timezone,omitempty"`
}

// SummaryRequest asks for trend, anomalies and moving average of one metric
type SummaryRequest struct {
	Metric     string       `json:"metric,omitempty"`
	Points     []PointInput `json:"points"`
	WindowSize int          `json:"window_size,omitempty"`
}
