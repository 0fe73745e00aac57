package services

import (
	"context"
	"time"

	"github.com/soltixdb/insights/internal/analytics/yoy"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/models"
)

// YoYCompare compares two scalar values
func (s *AnalyticsService) YoYCompare(_ context.Context, current, prior float64) yoy.Comparison {
	return yoy.CalculateYoYComparison(current, prior)
}

// YoYRange returns the YoY calendar ranges around reference. An empty
// timezone uses the configured one.
func (s *AnalyticsService) YoYRange(ctx context.Context, reference time.Time, timezone string) (*models.YoYRangeResponse, error) {
	loc, err := s.ResolveLocation(timezone)
	if err != nil {
		return nil, s.fail(ctx, "yoy_range", err)
	}
	return &models.YoYRangeResponse{
		Range:  yoy.GetYoYDateRange(reference, loc),
		Months: yoy.GetYearlyMonthRanges(reference, loc),
	}, nil
}

// YoYFromArrays pairs two monthly series by position
func (s *AnalyticsService) YoYFromArrays(ctx context.Context, req *models.YoYArraysRequest) (*yoy.Result, error) {
	current, err := toSeries(req.Current)
	if err != nil {
		return nil, s.fail(ctx, "yoy", err)
	}
	prior, err := toSeries(req.Prior)
	if err != nil {
		return nil, s.fail(ctx, "yoy", err)
	}
	if len(current) == 0 && len(prior) == 0 {
		return nil, s.fail(ctx, "yoy", NewServiceError(CodeEmptyInput, "current or prior points are required"))
	}
	return yoy.CalculateYoYFromArrays(current, prior), nil
}

// YoYChart buckets raw points by month and pairs the reference year with
// the year before it
func (s *AnalyticsService) YoYChart(ctx context.Context, req *models.YoYChartRequest) (*yoy.ChartData, error) {
	history, err := toSeries(req.Points)
	if err != nil {
		return nil, s.fail(ctx, "yoy_chart", err)
	}
	loc, err := s.ResolveLocation(req.Timezone)
	if err != nil {
		return nil, s.fail(ctx, "yoy_chart", err)
	}

	reference := s.now()
	if req.Reference != nil {
		reference = *req.Reference
	}

	if req.Partial {
		return yoy.BuildPartialYoYChartData(history, reference, loc), nil
	}
	return yoy.BuildYoYChartData(history, reference, loc), nil
}

// ResolveLocation parses timezone, falling back to the configured one when empty
func (s *AnalyticsService) ResolveLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return s.config.Location(), nil
	}
	loc, err := config.ParseTimezone(timezone)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidParameter, err.Error(),
			map[string]interface{}{"timezone": timezone})
	}
	return loc, nil
}
