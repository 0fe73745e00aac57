package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
)

// readMetrics parses "date,metric,value" rows into one sorted series per
// metric. A header row is skipped when its value column is not numeric.
// Dates are YYYY-MM-DD (read in loc) or RFC3339.
func readMetrics(r io.Reader, loc *time.Location) (map[string]analytics.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	metrics := make(map[string]analytics.Series)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid value %q", line, record[2])
		}
		ts, err := parseTime(strings.TrimSpace(record[0]), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line, record[0])
		}
		metric := strings.TrimSpace(record[1])
		if metric == "" {
			return nil, fmt.Errorf("line %d: empty metric name", line)
		}
		metrics[metric] = append(metrics[metric], analytics.DataPoint{Time: ts, Value: value})
	}

	for _, series := range metrics {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Time.Before(series[j].Time)
		})
	}
	return metrics, nil
}

func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// latest returns the newest timestamp across all series
func latest(metrics map[string]analytics.Series) time.Time {
	var newest time.Time
	for _, series := range metrics {
		if n := len(series); n > 0 && series[n-1].Time.After(newest) {
			newest = series[n-1].Time
		}
	}
	return newest
}
