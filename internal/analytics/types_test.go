package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_ValuesAndTimes(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		{Time: base, Value: 1},
		{Time: base.AddDate(0, 1, 0), Value: 2},
	}

	assert.Equal(t, []float64{1, 2}, s.Values())
	assert.Equal(t, []time.Time{base, base.AddDate(0, 1, 0)}, s.Times())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.IsSorted())

	s[0], s[1] = s[1], s[0]
	assert.False(t, s.IsSorted())
}

func TestBucketByMonth(t *testing.T) {
	s := Series{
		{Time: time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC), Value: 5},
		{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Value: 10},
		{Time: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), Value: 2.5},
	}

	months := BucketByMonth(s, time.UTC)
	require.Len(t, months, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), months[0].Month)
	assert.InDelta(t, 12.5, months[0].Value, 1e-9)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), months[1].Month)
	assert.InDelta(t, 5.0, months[1].Value, 1e-9)
}

func TestBucketByMonth_Timezone(t *testing.T) {
	tokyo := time.FixedZone("+09:00", 9*3600)
	// 2024-01-31 20:00 UTC is already February in Tokyo.
	s := Series{{Time: time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), Value: 1}}

	months := BucketByMonth(s, tokyo)
	require.Len(t, months, 1)
	assert.Equal(t, time.February, months[0].Month.Month())
}

func TestBucketByMonth_Empty(t *testing.T) {
	assert.Nil(t, BucketByMonth(nil, time.UTC))
}

func TestMonthlySeries(t *testing.T) {
	m := []MonthlyMetric{{Month: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 7}}
	s := MonthlySeries(m)
	require.Len(t, s, 1)
	assert.Equal(t, m[0].Month, s[0].Time)
	assert.Equal(t, 7.0, s[0].Value)
}
