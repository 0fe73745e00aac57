package services

import (
	"context"
	"sort"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/models"
)

// BusinessAnomalies analyses every monthly metric in parallel. Metrics that
// fail are reported in the response and logged; they never fail the call.
// When req.Notify is set and a notifier is configured, one alert is
// published per anomaly for the tenant in ctx.
func (s *AnalyticsService) BusinessAnomalies(ctx context.Context, req *models.BusinessAnomalyRequest) (*models.BusinessAnomalyResponse, error) {
	if len(req.Metrics) == 0 {
		return nil, s.fail(ctx, "business_anomalies", NewServiceError(CodeInvalidRequest, "metrics are required"))
	}

	cfg := s.config.AnomalyConfig()
	if req.Sensitivity != nil {
		cfg.SensitivityMultiplier = *req.Sensitivity
	}
	if len(req.Thresholds) > 0 {
		cfg.MetricThresholds = make(map[string]anomaly.Thresholds, len(req.Thresholds))
		for name, t := range req.Thresholds {
			cfg.MetricThresholds[name] = anomaly.Thresholds{Min: t.Min, Max: t.Max}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, s.fail(ctx, "business_anomalies", err)
	}

	metrics := make(map[string][]analytics.MonthlyMetric, len(req.Metrics))
	for name, values := range req.Metrics {
		metrics[name] = toMonthly(values)
	}

	report := anomaly.DetectBusinessAnomalies(metrics, cfg)
	logger := s.logger.WithContext(ctx)

	resp := &models.BusinessAnomalyResponse{
		Anomalies: report.Anomalies,
		Count:     len(report.Anomalies),
		Metrics:   len(report.Outcomes),
	}
	if resp.Anomalies == nil {
		resp.Anomalies = []anomaly.BusinessAnomaly{}
	}

	for _, o := range report.Failures() {
		code := ErrorCode(o.Err)
		logger.Warn("Metric analysis failed",
			"metric", o.Metric,
			"code", code,
			"error", o.Err,
		)
		s.metrics.AnalyticsError("business_anomalies", code)
		resp.Failures = append(resp.Failures, models.MetricFailure{
			Metric: o.Metric,
			Code:   code,
			Error:  o.Err.Error(),
		})
	}
	sort.Slice(resp.Failures, func(i, j int) bool { return resp.Failures[i].Metric < resp.Failures[j].Metric })

	for _, a := range report.Anomalies {
		s.metrics.AnomalyDetected(a.Algorithm, string(a.Severity))
	}

	if req.Notify && len(report.Anomalies) > 0 {
		resp.AlertsPublished = s.publishAlerts(ctx, report.Anomalies)
	}

	logger.Debug("Business anomaly detection completed",
		"metrics", resp.Metrics,
		"anomalies", resp.Count,
		"failures", len(resp.Failures),
	)
	return resp, nil
}

// publishAlerts never fails the request; errors are logged and counted
func (s *AnalyticsService) publishAlerts(ctx context.Context, found []anomaly.BusinessAnomaly) int {
	if s.notifier == nil {
		return 0
	}

	tenant := logging.TenantID(ctx)
	sent, err := s.notifier.Notify(ctx, tenant, found)
	s.metrics.AlertsPublished(sent)
	if err != nil {
		s.metrics.AlertPublishFailed()
		s.logger.WithContext(ctx).Error("Failed to publish anomaly alerts",
			"tenant_id", tenant,
			"anomalies", len(found),
			"error", err,
		)
	}
	return sent
}
