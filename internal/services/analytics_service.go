package services

import (
	"context"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/analytics/movingavg"
	"github.com/soltixdb/insights/internal/analytics/trend"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/metrics"
	"github.com/soltixdb/insights/internal/models"
)

// AlertNotifier publishes business anomalies for a tenant
type AlertNotifier interface {
	Notify(ctx context.Context, tenantID string, found []anomaly.BusinessAnomaly) (int, error)
}

// AnalyticsService handles analytics business logic
type AnalyticsService struct {
	logger   *logging.Logger
	config   config.AnalyticsConfig
	notifier AlertNotifier
	metrics  *metrics.Collector
	now      func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. notifier and
// collector may be nil.
func NewAnalyticsService(
	logger *logging.Logger,
	cfg config.AnalyticsConfig,
	notifier AlertNotifier,
	collector *metrics.Collector,
) *AnalyticsService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AnalyticsService{
		logger:   logger,
		config:   cfg,
		notifier: notifier,
		metrics:  collector,
		now:      time.Now,
	}
}

// Trend fits a trend line through the points
func (s *AnalyticsService) Trend(ctx context.Context, req *models.TrendRequest) (*trend.Result, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "trend", err)
	}

	cfg := s.config.TrendConfig()
	cfg.Metric = req.Metric
	if req.XAxis != "" {
		cfg.XAxis = trend.XAxis(req.XAxis)
	}

	result, err := trend.AnalyzeTrend(series, cfg)
	if err != nil {
		return nil, s.fail(ctx, "trend", err)
	}
	return result, nil
}

// MovingAverage smooths the points with the requested or configured average
func (s *AnalyticsService) MovingAverage(ctx context.Context, req *models.MovingAverageRequest) (*models.MovingAverageResponse, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "moving_average", err)
	}

	cfg := s.config.MovingAverageConfig()
	if req.Kind != "" {
		cfg.Kind = movingavg.Kind(req.Kind)
	}
	if req.WindowSize != 0 {
		cfg.WindowSize = req.WindowSize
	}
	if req.SmoothingFactor != 0 {
		cfg.SmoothingFactor = req.SmoothingFactor
	}

	points, err := movingavg.Get(series, cfg)
	if err != nil {
		return nil, s.fail(ctx, "moving_average", err)
	}

	kind := cfg.Kind
	if kind == "" {
		kind = movingavg.KindSimple
	}
	return &models.MovingAverageResponse{
		Kind:   kind,
		Points: points,
		Count:  len(points),
	}, nil
}

// Anomalies runs the named detector (zscore by default)
func (s *AnalyticsService) Anomalies(ctx context.Context, req *models.AnomalyRequest) (*models.AnomalyResponse, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "anomalies", err)
	}

	cfg := s.config.AnomalyConfig()
	if req.Sensitivity != nil {
		cfg.SensitivityMultiplier = *req.Sensitivity
	}
	if req.Baseline != "" {
		cfg.Baseline = anomaly.Baseline(req.Baseline)
	}
	if req.WindowSize != 0 {
		cfg.WindowSize = req.WindowSize
	}
	if req.Smoothing != nil {
		cfg.Smoothing = &movingavg.Config{
			Kind:            movingavg.Kind(req.Smoothing.Kind),
			WindowSize:      req.Smoothing.WindowSize,
			SmoothingFactor: req.Smoothing.SmoothingFactor,
		}
	}
	if req.Thresholds != nil {
		cfg.Thresholds = anomaly.Thresholds{Min: req.Thresholds.Min, Max: req.Thresholds.Max}
	}

	method := req.Method
	if method == "" {
		method = "zscore"
	}

	resp := &models.AnomalyResponse{Method: method, TotalPoints: len(series)}
	if method == "zscore" {
		result, err := anomaly.DetectAnomalies(series, cfg)
		if err != nil {
			return nil, s.fail(ctx, "anomalies", err)
		}
		bounds := result.Bounds
		resp.Bounds = &bounds
		resp.Anomalies = result.Anomalies
	} else {
		found, err := anomaly.Detect(method, series, cfg)
		if err != nil {
			return nil, s.fail(ctx, "anomalies", err)
		}
		resp.Anomalies = found
	}

	return s.finishAnomalies(series, resp), nil
}

// ThresholdBreaches flags points outside fixed business limits
func (s *AnalyticsService) ThresholdBreaches(ctx context.Context, req *models.ThresholdRequest) (*models.AnomalyResponse, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "thresholds", err)
	}

	found, err := anomaly.DetectThresholdBreaches(series,
		anomaly.Thresholds{Min: req.Min, Max: req.Max},
		s.config.AnomalyConfig())
	if err != nil {
		return nil, s.fail(ctx, "thresholds", err)
	}

	return s.finishAnomalies(series, &models.AnomalyResponse{
		Method:      "threshold",
		Anomalies:   found,
		TotalPoints: len(series),
	}), nil
}

// MovingWindowAnomalies scores each point against its trailing window
func (s *AnalyticsService) MovingWindowAnomalies(ctx context.Context, req *models.WindowAnomalyRequest) (*models.AnomalyResponse, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "moving_window", err)
	}

	cfg := s.config.AnomalyConfig()
	if req.WindowSize != 0 {
		cfg.WindowSize = req.WindowSize
	}
	if req.Sensitivity != nil {
		cfg.SensitivityMultiplier = *req.Sensitivity
	}

	found, err := anomaly.DetectAnomaliesMovingWindowWithConfig(series, cfg)
	if err != nil {
		return nil, s.fail(ctx, "moving_window", err)
	}

	return s.finishAnomalies(series, &models.AnomalyResponse{
		Method:      "moving_window",
		Anomalies:   found,
		TotalPoints: len(series),
	}), nil
}

// Summary bundles trend, anomalies and moving average of one metric. Parts
// that cannot be computed for the series are reported as warnings; only an
// invalid request fails the call.
func (s *AnalyticsService) Summary(ctx context.Context, req *models.SummaryRequest) (*models.SummaryResponse, error) {
	series, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "summary", err)
	}
	if len(series) == 0 {
		return nil, s.fail(ctx, "summary", NewServiceError(CodeEmptyInput, "points are required"))
	}

	resp := &models.SummaryResponse{
		Metric:        req.Metric,
		MovingAverage: []movingavg.Point{},
		Anomalies:     []anomaly.Anomaly{},
	}

	trendCfg := s.config.TrendConfig()
	trendCfg.Metric = req.Metric
	if result, err := trend.AnalyzeTrend(series, trendCfg); err != nil {
		resp.Warnings = append(resp.Warnings, "trend: "+err.Error())
	} else {
		resp.Trend = result
	}

	maCfg := s.config.MovingAverageConfig()
	if req.WindowSize != 0 {
		maCfg.WindowSize = req.WindowSize
	}
	if maCfg.Kind != movingavg.KindExponential && maCfg.WindowSize > len(series) {
		maCfg.WindowSize = len(series)
	}
	if points, err := movingavg.Get(series, maCfg); err != nil {
		resp.Warnings = append(resp.Warnings, "moving average: "+err.Error())
	} else {
		resp.MovingAverage = points
	}

	if result, err := anomaly.DetectAnomalies(series, s.config.AnomalyConfig()); err != nil {
		resp.Warnings = append(resp.Warnings, "anomalies: "+err.Error())
	} else {
		bounds := result.Bounds
		resp.Bounds = &bounds
		if result.Anomalies != nil {
			resp.Anomalies = result.Anomalies
		}
		s.recordAnomalies(result.Anomalies)
	}

	return resp, nil
}

func (s *AnalyticsService) finishAnomalies(series analytics.Series, resp *models.AnomalyResponse) *models.AnomalyResponse {
	if resp.Anomalies == nil {
		resp.Anomalies = []anomaly.Anomaly{}
	}
	resp.Count = len(resp.Anomalies)
	resp.Chart = anomaly.GetAnomalyChartPoints(series, resp.Anomalies)
	s.recordAnomalies(resp.Anomalies)
	return resp
}

func (s *AnalyticsService) recordAnomalies(found []anomaly.Anomaly) {
	for _, a := range found {
		s.metrics.AnomalyDetected(a.Algorithm, string(a.Severity))
	}
}

// fail converts err to a ServiceError, counts it and logs it at debug level
func (s *AnalyticsService) fail(ctx context.Context, operation string, err error) *ServiceError {
	se := FromAnalyticsError(err)
	s.metrics.AnalyticsError(operation, se.Code)
	s.logger.WithContext(ctx).Debug("Analytics request rejected",
		"operation", operation,
		"code", se.Code,
		"error", err,
	)
	return se
}
