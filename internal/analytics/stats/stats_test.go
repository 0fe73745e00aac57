package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	mean, err := Mean([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, mean, 1e-9)
}

func TestMean_Empty(t *testing.T) {
	_, err := Mean(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))
}

func TestStdDev_Population(t *testing.T) {
	// Classic example: population stddev is exactly 2, sample stddev is ~2.138.
	sd, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sd, 1e-9)
}

func TestStdDevWithMean_MatchesStdDev(t *testing.T) {
	values := []float64{1, 3, 3, 8, 13}
	mean, err := Mean(values)
	require.NoError(t, err)

	a, err := StdDev(values)
	require.NoError(t, err)
	b, err := StdDevWithMean(values, mean)
	require.NoError(t, err)

	assert.InDelta(t, a, b, 1e-9)
}

func TestStdDev_Empty(t *testing.T) {
	_, err := StdDev([]float64{})
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))

	_, err = StdDevWithMean(nil, 0)
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))
}

func TestStdDev_NeverNegative(t *testing.T) {
	inputs := [][]float64{
		{0},
		{5, 5, 5},
		{-10, 10},
		{1e9, -1e9, 3},
		{0.1, 0.2, 0.3, 0.4},
	}
	for _, values := range inputs {
		sd, err := StdDev(values)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sd, 0.0, "values=%v", values)
	}
}

func TestMeanStdDev(t *testing.T) {
	mean, sd, err := MeanStdDev([]float64{10, 10, 10, 10, 1000})
	require.NoError(t, err)
	assert.InDelta(t, 208.0, mean, 1e-9)
	assert.InDelta(t, 396.0, sd, 1e-9)

	_, _, err = MeanStdDev(nil)
	assert.True(t, errors.Is(err, analytics.ErrEmptyInput))
}

func TestQuartiles(t *testing.T) {
	q1, median, q3, err := Quartiles([]float64{7, 1, 5, 3, 9, 11})
	require.NoError(t, err)
	assert.Equal(t, 3.0, q1)
	assert.Equal(t, 6.0, median)
	assert.Equal(t, 9.0, q3)

	q1, median, q3, err = Quartiles([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 1.5, q1)
	assert.Equal(t, 3.0, median)
	assert.Equal(t, 4.5, q3)

	_, _, _, err = Quartiles([]float64{1})
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))
}

func TestZScore(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		mean   float64
		stdDev float64
		want   float64
	}{
		{"value equals mean", 5, 5, 2, 0},
		{"value equals mean with any stddev", -3, -3, 1000, 0},
		{"zero stddev", 100, 5, 0, 0},
		{"one sigma above", 7, 5, 2, 1},
		{"two sigma below", 1, 5, 2, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ZScore(tt.value, tt.mean, tt.stdDev), 1e-12)
		})
	}
}

func TestLinearRegression_TwoPoints(t *testing.T) {
	reg, err := LinearRegression([]Point{{0, 0}, {1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, reg.Slope, 1e-9)
	assert.InDelta(t, 0.0, reg.Intercept, 1e-9)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-9)
}

func TestLinearRegression_Line(t *testing.T) {
	points := []Point{{0, 3}, {1, 5}, {2, 7}, {3, 9}}
	reg, err := LinearRegression(points)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 1e-9)
	assert.InDelta(t, 3.0, reg.Intercept, 1e-9)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-9)
	assert.InDelta(t, 11.0, reg.At(4), 1e-9)
}

func TestLinearRegression_Noisy(t *testing.T) {
	points := []Point{{0, 1}, {1, 3}, {2, 2}, {3, 5}, {4, 4}}
	reg, err := LinearRegression(points)
	require.NoError(t, err)
	assert.Greater(t, reg.Slope, 0.0)
	assert.GreaterOrEqual(t, reg.RSquared, 0.0)
	assert.LessOrEqual(t, reg.RSquared, 1.0)
}

func TestLinearRegression_ConstantY(t *testing.T) {
	reg, err := LinearRegression([]Point{{0, 5}, {1, 5}, {2, 5}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, reg.Slope)
	assert.InDelta(t, 5.0, reg.Intercept, 1e-9)
	assert.False(t, math.IsNaN(reg.RSquared))
	assert.Equal(t, 0.0, reg.RSquared)
}

func TestLinearRegression_InsufficientData(t *testing.T) {
	_, err := LinearRegression(nil)
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))

	_, err = LinearRegression([]Point{{1, 1}})
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))

	_, err = LinearRegression([]Point{{1, 1}, {1, 2}})
	assert.True(t, errors.Is(err, analytics.ErrInsufficientData))
}
