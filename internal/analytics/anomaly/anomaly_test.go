package anomaly

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/movingavg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseMonth = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createSeries(values ...float64) analytics.Series {
	s := make(analytics.Series, len(values))
	for i, v := range values {
		s[i] = analytics.DataPoint{Time: baseMonth.AddDate(0, i, 0), Value: v}
	}
	return s
}

func createMonthly(values ...float64) []analytics.MonthlyMetric {
	m := make([]analytics.MonthlyMetric, len(values))
	for i, v := range values {
		m[i] = analytics.MonthlyMetric{Month: baseMonth.AddDate(0, i, 0), Value: v}
	}
	return m
}

func ptr(v float64) *float64 { return &v }

func TestDetectAnomalies_SpikeInFlatSeries(t *testing.T) {
	s := createSeries(10, 10, 10, 10, 1000)

	result, err := DetectAnomalies(s, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)

	a := result.Anomalies[0]
	assert.Equal(t, 4, a.Index)
	assert.Equal(t, s[4].Time, a.Time)
	assert.Equal(t, 1000.0, a.Value)
	assert.Equal(t, 10.0, a.ExpectedValue)
	assert.Equal(t, 990.0, a.Deviation)
	assert.Equal(t, TypeSpike, a.Type)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, "zscore", a.Algorithm)

	// bounds describe the whole series
	assert.InDelta(t, 208.0, result.Bounds.Mean, 1e-9)
	assert.InDelta(t, 396.0, result.Bounds.StdDev, 1e-9)
	assert.Equal(t, 5, result.TotalPoints)
	assert.Equal(t, BaselineLeaveOneOut, result.Baseline)
}

func TestDetectAnomalies_WholeSeriesBaselineIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baseline = BaselineWholeSeries

	// with the outlier inside its own baseline |z| cannot exceed sqrt(n-1) = 2
	result, err := DetectAnomalies(createSeries(10, 10, 10, 10, 1000), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)
	assert.False(t, IsAnomaly(1000, result.Bounds))

	cfg.SensitivityMultiplier = 1.5
	result, err = DetectAnomalies(createSeries(10, 10, 10, 10, 1000), cfg)
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	assert.InDelta(t, 2.0, result.Anomalies[0].ZScore, 1e-9)
	assert.Equal(t, SeverityLow, result.Anomalies[0].Severity)
}

func TestDetectAnomalies_WholeSeriesBoundaryRounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baseline = BaselineWholeSeries

	// the last point sits exactly at the sqrt(n-1) bound; rounding lands just above 2
	result, err := DetectAnomalies(createSeries(10, 10, 10, 10, 10.3), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)
}

func TestDetectAnomaliesMovingWindow_BoundaryRounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 4

	// window mean 1.2 and stddev 0.2 put 1.6 exactly at z = 2
	anomalies, err := DetectAnomaliesMovingWindowWithConfig(createSeries(1, 1.4, 1, 1.4, 1.6), cfg)
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestDetectAnomalies_LeaveOneOutFlagsTrendEnds(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		z      float64
	}{
		{"three points", []float64{1, 2, 3}, 3},
		{"steady growth", []float64{100, 110, 120, 130, 140, 150}, 3 / math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createSeries(tt.values...)
			last := len(tt.values) - 1

			result, err := DetectAnomalies(s, DefaultConfig())
			require.NoError(t, err)
			require.Len(t, result.Anomalies, 2)

			first, end := result.Anomalies[0], result.Anomalies[1]
			assert.Equal(t, 0, first.Index)
			assert.Equal(t, last, end.Index)
			assert.InDelta(t, -tt.z, first.ZScore, 1e-9)
			assert.InDelta(t, tt.z, end.ZScore, 1e-9)
			assert.Equal(t, TypeDrop, first.Type)
			assert.Equal(t, TypeSpike, end.Type)
			assert.Equal(t, SeverityMedium, first.Severity)
			assert.Equal(t, SeverityMedium, end.Severity)

			cfg := DefaultConfig()
			cfg.Baseline = BaselineWholeSeries
			result, err = DetectAnomalies(s, cfg)
			require.NoError(t, err)
			assert.Empty(t, result.Anomalies)
		})
	}
}

func TestDetectAnomalies_Drop(t *testing.T) {
	result, err := DetectAnomalies(createSeries(50, 50, 50, 50, 50, 0), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 5, result.Anomalies[0].Index)
	assert.Equal(t, TypeDrop, result.Anomalies[0].Type)
	assert.Less(t, result.Anomalies[0].ZScore, 0.0)
}

func TestDetectAnomalies_FlatAndZeroSeries(t *testing.T) {
	for _, s := range []analytics.Series{
		createSeries(7, 7, 7, 7),
		createSeries(0, 0, 0, 0, 0),
	} {
		result, err := DetectAnomalies(s, DefaultConfig())
		require.NoError(t, err)
		assert.Empty(t, result.Anomalies)
	}
}

func TestDetectAnomalies_ShortSeries(t *testing.T) {
	_, err := DetectAnomalies(nil, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))

	result, err := DetectAnomalies(createSeries(42), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)

	result, err = DetectAnomalies(createSeries(1, 1000), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)
}

func TestDetectAnomalies_FlaggedPointsExceedSensitivity(t *testing.T) {
	s := createSeries(12, 14, 13, 15, 80, 14, 13, 12, -40, 15, 14, 13)
	cfg := DefaultConfig()

	for _, baseline := range []Baseline{BaselineLeaveOneOut, BaselineWholeSeries} {
		cfg.Baseline = baseline
		result, err := DetectAnomalies(s, cfg)
		require.NoError(t, err)
		require.NotEmpty(t, result.Anomalies, "baseline=%s", baseline)

		prev := -1
		for _, a := range result.Anomalies {
			assert.Greater(t, math.Abs(a.ZScore), cfg.SensitivityMultiplier)
			assert.Greater(t, a.Index, prev, "anomalies must follow series order")
			assert.Equal(t, s[a.Index].Value, a.Value)
			prev = a.Index
		}
	}
}

func TestDetectAnomalies_WithSmoothing(t *testing.T) {
	s := createSeries(10, 10, 10, 10, 10, 10, 500)
	cfg := DefaultConfig()
	cfg.Smoothing = &movingavg.Config{Kind: movingavg.KindSimple, WindowSize: 2}

	result, err := DetectAnomalies(s, cfg)
	require.NoError(t, err)
	assert.True(t, result.Smoothed)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 6, result.Anomalies[0].Index)
	assert.Equal(t, s[6].Time, result.Anomalies[0].Time)
	assert.InDelta(t, 255.0, result.Anomalies[0].Value, 1e-9)

	cfg.Smoothing = &movingavg.Config{Kind: movingavg.KindSimple, WindowSize: 10}
	_, err = DetectAnomalies(s, cfg)
	assert.True(t, errors.Is(err, analytics.ErrInvalidWindow))
}

func TestDetectAnomalies_InvalidConfig(t *testing.T) {
	s := createSeries(1, 2, 3)

	cfg := DefaultConfig()
	cfg.SensitivityMultiplier = 0
	_, err := DetectAnomalies(s, cfg)
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))

	cfg = DefaultConfig()
	cfg.Baseline = "median"
	_, err = DetectAnomalies(s, cfg)
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))

	cfg = DefaultConfig()
	cfg.HighSeverityZ = 1
	_, err = DetectAnomalies(s, cfg)
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))
}

func TestClassifySeverity(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		z    float64
		want Severity
	}{
		{0, SeverityLow},
		{2, SeverityLow},
		{2.01, SeverityMedium},
		{3, SeverityMedium},
		{3.01, SeverityHigh},
		{-2.5, SeverityMedium},
		{-10, SeverityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.ClassifySeverity(tt.z), "z=%v", tt.z)
	}
}

func TestCalculateStatisticalBounds(t *testing.T) {
	b, err := CalculateStatisticalBounds([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, b.Mean, 1e-9)
	assert.InDelta(t, 2.0, b.StdDev, 1e-9)
	assert.InDelta(t, 1.0, b.Lower, 1e-9)
	assert.InDelta(t, 9.0, b.Upper, 1e-9)

	assert.True(t, IsAnomaly(0.5, b))
	assert.True(t, IsAnomaly(9.5, b))
	assert.False(t, IsAnomaly(9, b))
	assert.False(t, IsAnomaly(5, b))

	_, err = CalculateStatisticalBounds(nil, 2)
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))
}

func TestDetectAnomaliesMovingWindow(t *testing.T) {
	anomalies, err := DetectAnomaliesMovingWindow(createSeries(10, 10, 10, 10, 1000), 3, 2.0)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 4, anomalies[0].Index)
	assert.Equal(t, TypeSpike, anomalies[0].Type)
	assert.Equal(t, 10.0, anomalies[0].ExpectedValue)
	assert.Equal(t, "moving_window", anomalies[0].Algorithm)
}

func TestDetectAnomaliesMovingWindow_WarmupNeverFlagged(t *testing.T) {
	s := createSeries(1000, 10, 10, 10, 10, 900, 10, 10)
	for w := 1; w <= len(s)+1; w++ {
		anomalies, err := DetectAnomaliesMovingWindow(s, w, 2.0)
		require.NoError(t, err, "window=%d", w)
		for _, a := range anomalies {
			assert.GreaterOrEqual(t, a.Index, w, "window=%d", w)
		}
	}
}

func TestDetectAnomaliesMovingWindow_Errors(t *testing.T) {
	_, err := DetectAnomaliesMovingWindow(createSeries(1, 2, 3), 0, 2.0)
	assert.True(t, errors.Is(err, analytics.ErrInvalidWindow))

	_, err = DetectAnomaliesMovingWindow(nil, 3, 2.0)
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))

	_, err = DetectAnomaliesMovingWindow(createSeries(1, 2, 3), 2, -1)
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))
}

func TestDetectThresholdBreaches(t *testing.T) {
	s := createSeries(100, -5, 250, 150)
	thresholds := Thresholds{Min: ptr(0), Max: ptr(200)}

	anomalies, err := DetectThresholdBreaches(s, thresholds, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, anomalies, 2)

	assert.Equal(t, 1, anomalies[0].Index)
	assert.Equal(t, 0.0, anomalies[0].ExpectedValue)
	assert.Equal(t, -5.0, anomalies[0].Deviation)
	assert.Equal(t, SeverityHigh, anomalies[0].Severity)
	assert.Equal(t, TypeThresholdBreach, anomalies[0].Type)

	assert.Equal(t, 2, anomalies[1].Index)
	assert.Equal(t, 200.0, anomalies[1].ExpectedValue)
	assert.Equal(t, SeverityMedium, anomalies[1].Severity)
	require.NotNil(t, anomalies[1].Expected)
	assert.Equal(t, Range{Min: 0, Max: 200}, *anomalies[1].Expected)
}

func TestDetectThresholdBreaches_OneSided(t *testing.T) {
	anomalies, err := DetectThresholdBreaches(createSeries(100, 104, 300), Thresholds{Max: ptr(100)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
	assert.Equal(t, SeverityLow, anomalies[0].Severity)
	assert.Equal(t, SeverityHigh, anomalies[1].Severity)
	assert.Nil(t, anomalies[0].Expected)

	anomalies, err = DetectThresholdBreaches(nil, Thresholds{Max: ptr(100)}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestDetectThresholdBreaches_InvalidThresholds(t *testing.T) {
	_, err := DetectThresholdBreaches(createSeries(1), Thresholds{}, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))

	_, err = DetectThresholdBreaches(createSeries(1), Thresholds{Min: ptr(10), Max: ptr(5)}, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))
}

func TestDetectIQROutliers(t *testing.T) {
	// Q1 = 11, median = 11.5, Q3 = 12: fences [9.5, 13.5], outer fences [8, 15]
	s := createSeries(10, 12, 11, 13, 12, 11, 100, 12, 8.5, 11)

	anomalies, err := DetectIQROutliers(s, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, anomalies, 2)

	spike, drop := anomalies[0], anomalies[1]
	assert.Equal(t, 6, spike.Index)
	assert.Equal(t, TypeSpike, spike.Type)
	assert.Equal(t, SeverityHigh, spike.Severity)
	assert.Equal(t, 11.5, spike.ExpectedValue)
	assert.Equal(t, 88.5, spike.Deviation)
	assert.Equal(t, "iqr", spike.Algorithm)
	require.NotNil(t, spike.Expected)
	assert.Equal(t, Range{Min: 9.5, Max: 13.5}, *spike.Expected)

	assert.Equal(t, 8, drop.Index)
	assert.Equal(t, TypeDrop, drop.Type)
	assert.Equal(t, SeverityMedium, drop.Severity)
	assert.Less(t, drop.ZScore, 0.0)
}

func TestDetectIQROutliers_Multiplier(t *testing.T) {
	s := createSeries(10, 12, 11, 13, 12, 11, 100, 12, 8.5, 11)
	cfg := DefaultConfig()
	cfg.IQRMultiplier = 3

	anomalies, err := DetectIQROutliers(s, cfg)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 6, anomalies[0].Index)

	cfg.IQRMultiplier = -1
	_, err = DetectIQROutliers(s, cfg)
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))
}

func TestDetectIQROutliers_ShortAndEmpty(t *testing.T) {
	_, err := DetectIQROutliers(nil, DefaultConfig())
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))

	anomalies, err := DetectIQROutliers(createSeries(1, 1000), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)

	anomalies, err = DetectIQROutliers(createSeries(5, 5, 5, 5), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestDetectBusinessAnomalies_FailureIsolation(t *testing.T) {
	metrics := map[string][]analytics.MonthlyMetric{
		"revenue": {},
		"profit":  createMonthly(1, 2, 3),
	}

	var report *BusinessReport
	require.NotPanics(t, func() {
		report = DetectBusinessAnomalies(metrics, DefaultConfig())
	})

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "profit", report.Outcomes[0].Metric)
	assert.NoError(t, report.Outcomes[0].Err)
	assert.Equal(t, "revenue", report.Outcomes[1].Metric)
	assert.True(t, errors.Is(report.Outcomes[1].Err, analytics.ErrEmptyInput))

	for _, a := range report.Anomalies {
		assert.Equal(t, "profit", a.Metric)
	}

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "revenue", failures[0].Metric)
	assert.ErrorContains(t, report.Err(), "metric revenue")
}

func TestDetectBusinessAnomalies_MergedOrder(t *testing.T) {
	metrics := map[string][]analytics.MonthlyMetric{
		"revenue": createMonthly(100, 100, 100, 100, 100, 100, 5000),
		"orders":  createMonthly(20, 20, 20, 400, 20, 20, 20),
		"churn":   createMonthly(3, 3, 3, 3, 3, 3, 90),
	}

	report := DetectBusinessAnomalies(metrics, DefaultConfig())
	require.NoError(t, report.Err())
	require.Len(t, report.Anomalies, 3)

	assert.Equal(t, "orders", report.Anomalies[0].Metric)
	assert.Equal(t, baseMonth.AddDate(0, 3, 0), report.Anomalies[0].Month)
	assert.Equal(t, "churn", report.Anomalies[1].Metric)
	assert.Equal(t, "revenue", report.Anomalies[2].Metric)
	assert.Equal(t, report.Anomalies[1].Month, report.Anomalies[2].Month)
}

func TestDetectBusinessAnomalies_MetricThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricThresholds = map[string]Thresholds{"profit": {Min: ptr(0)}}

	report := DetectBusinessAnomalies(map[string][]analytics.MonthlyMetric{
		"profit": createMonthly(40, 42, -3, 41, 43, 40),
	}, cfg)
	require.NoError(t, report.Err())

	var breaches int
	for _, a := range report.Anomalies {
		if a.Type == TypeThresholdBreach {
			breaches++
			assert.Equal(t, baseMonth.AddDate(0, 2, 0), a.Month)
		}
	}
	assert.Equal(t, 1, breaches)
}

func TestDetectBusinessAnomalies_UnsortedMonths(t *testing.T) {
	months := createMonthly(1, 2, 3)
	months[0], months[2] = months[2], months[0]

	report := DetectBusinessAnomalies(map[string][]analytics.MonthlyMetric{"revenue": months}, DefaultConfig())
	require.Len(t, report.Outcomes, 1)
	assert.True(t, errors.Is(report.Outcomes[0].Err, analytics.ErrInvalidParameter))
	assert.Empty(t, report.Anomalies)
}

func TestDetectBusinessAnomalies_NoMetrics(t *testing.T) {
	report := DetectBusinessAnomalies(nil, DefaultConfig())
	assert.Empty(t, report.Anomalies)
	assert.Empty(t, report.Outcomes)
	assert.NoError(t, report.Err())
}

func TestGetAnomalyChartPoints(t *testing.T) {
	s := createSeries(10, 10, 10, 10, 1000)
	result, err := DetectAnomalies(s, DefaultConfig())
	require.NoError(t, err)

	breach, err := DetectThresholdBreaches(s, Thresholds{Max: ptr(999)}, DefaultConfig())
	require.NoError(t, err)

	points := GetAnomalyChartPoints(s, append(result.Anomalies, breach...))
	require.Len(t, points, len(s))
	for i := 0; i < 4; i++ {
		assert.False(t, points[i].IsAnomaly)
		assert.Nil(t, points[i].ExpectedValue)
	}
	assert.True(t, points[4].IsAnomaly)
	assert.Equal(t, SeverityHigh, points[4].Severity)
	assert.Equal(t, TypeSpike, points[4].Type)
	require.NotNil(t, points[4].ExpectedValue)
	assert.Equal(t, 10.0, *points[4].ExpectedValue)
}

func TestGetAnomalyChartPoints_IgnoresForeignAnomalies(t *testing.T) {
	s := createSeries(1, 2, 3)
	points := GetAnomalyChartPoints(s, []Anomaly{
		{Index: 7, Time: s[0].Time},
		{Index: 1, Time: s[0].Time},
	})
	for _, p := range points {
		assert.False(t, p.IsAnomaly)
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"iqr", "moving_window", "threshold", "zscore"}, ListDetectors())

	for _, name := range ListDetectors() {
		d, err := GetDetector(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}

	_, err := GetDetector("auto")
	assert.True(t, errors.Is(err, analytics.ErrInvalidParameter))
}

func TestDetect_ByName(t *testing.T) {
	s := createSeries(10, 10, 10, 10, 10, 10, 10, 1000)
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{Max: ptr(500)}

	for _, name := range []string{"zscore", "moving_window", "threshold", "iqr"} {
		anomalies, err := Detect(name, s, cfg)
		require.NoError(t, err, name)
		require.Len(t, anomalies, 1, name)
		assert.Equal(t, 7, anomalies[0].Index, name)
	}
}
