package models

import (
	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/analytics/movingavg"
	"github.com/soltixdb/insights/internal/analytics/trend"
	"github.com/soltixdb/insights/internal/analytics/yoy"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MovingAverageResponse represents moving average response
type MovingAverageResponse struct {
	Kind   movingavg.Kind    `json:"kind"`
	Points []movingavg.Point `json:"points"`
	Count  int               `json:"count"`
}

// AnomalyResponse represents single-series detection response
type AnomalyResponse struct {
	Method      string               `json:"method"`
	Anomalies   []anomaly.Anomaly    `json:"anomalies"`
	Count       int                  `json:"count"`
	TotalPoints int                  `json:"total_points"`
	Bounds      *anomaly.Bounds      `json:"bounds,omitempty"`
	Chart       []anomaly.ChartPoint `json:"chart"`
}

// MetricFailure names a metric that could not be analysed
type MetricFailure struct {
	Metric string `json:"metric"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// BusinessAnomalyResponse represents multi-metric detection response
type BusinessAnomalyResponse struct {
	Anomalies       []anomaly.BusinessAnomaly `json:"anomalies"`
	Count           int                       `json:"count"`
	Metrics         int                       `json:"metrics"`
	Failures        []MetricFailure           `json:"failures,omitempty"`
	AlertsPublished int                       `json:"alerts_published"`
}

// YoYRangeResponse represents the calendar ranges of a YoY comparison
type YoYRangeResponse struct {
	Range  yoy.DateRange    `json:"range"`
	Months []yoy.MonthRange `json:"months"`
}

// SummaryResponse bundles the dashboard widgets of one metric
type SummaryResponse struct {
	Metric        string            `json:"metric,omitempty"`
	Trend         *trend.Result     `json:"trend,omitempty"`
	MovingAverage []movingavg.Point `json:"moving_average"`
	Anomalies     []anomaly.Anomaly `json:"anomalies"`
	Bounds        *anomaly.Bounds   `json:"bounds,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// DetectorsResponse lists the registered anomaly detectors
type DetectorsResponse struct {
	Detectors []string `json:"detectors"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
