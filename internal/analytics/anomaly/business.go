package anomaly

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
)

// BusinessAnomaly is an anomaly in a named monthly business metric
type BusinessAnomaly struct {
	Metric string    `json:"metric"`
	Month  time.Time `json:"month"`
	Anomaly
}

// MetricOutcome reports what happened to one metric. Err is set when the
// metric could not be analysed; the other metrics are unaffected.
type MetricOutcome struct {
	Metric    string            `json:"metric"`
	Anomalies []BusinessAnomaly `json:"anomalies"`
	Err       error             `json:"-"`
}

// Failed reports whether the metric could not be analysed
func (o MetricOutcome) Failed() bool {
	return o.Err != nil
}

// BusinessReport merges the anomalies of all metrics, ordered by month and
// then metric name, and keeps a per-metric outcome ordered by metric name.
type BusinessReport struct {
	Anomalies []BusinessAnomaly `json:"anomalies"`
	Outcomes  []MetricOutcome   `json:"outcomes"`
}

// Failures returns the outcomes that carry an error
func (r *BusinessReport) Failures() []MetricOutcome {
	var failed []MetricOutcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of all failed metrics, or returns nil
func (r *BusinessReport) Err() error {
	var errs []error
	for _, o := range r.Failures() {
		errs = append(errs, fmt.Errorf("metric %s: %w", o.Metric, o.Err))
	}
	return errors.Join(errs...)
}

// DetectBusinessAnomalies runs z-score detection, plus any configured
// threshold checks, on every metric concurrently. A metric that fails is
// recorded in its outcome and never aborts the others.
func DetectBusinessAnomalies(metrics map[string][]analytics.MonthlyMetric, config Config) *BusinessReport {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]MetricOutcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			outcomes[i] = detectMetric(name, metrics[name], config)
		}(i, name)
	}
	wg.Wait()

	report := &BusinessReport{Outcomes: outcomes}
	for _, o := range outcomes {
		report.Anomalies = append(report.Anomalies, o.Anomalies...)
	}
	sort.SliceStable(report.Anomalies, func(i, j int) bool {
		a, b := report.Anomalies[i], report.Anomalies[j]
		if !a.Month.Equal(b.Month) {
			return a.Month.Before(b.Month)
		}
		return a.Metric < b.Metric
	})

	return report
}

func detectMetric(name string, monthly []analytics.MonthlyMetric, config Config) (outcome MetricOutcome) {
	outcome.Metric = name
	defer func() {
		if r := recover(); r != nil {
			outcome.Anomalies = nil
			outcome.Err = fmt.Errorf("panic analysing %s: %v", name, r)
		}
	}()

	series := analytics.MonthlySeries(monthly)
	if !series.IsSorted() {
		outcome.Err = fmt.Errorf("months out of order: %w", analytics.ErrInvalidParameter)
		return outcome
	}

	result, err := DetectAnomalies(series, config)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	found := result.Anomalies

	if thresholds, ok := config.MetricThresholds[name]; ok {
		breaches, err := DetectThresholdBreaches(series, thresholds, config)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		found = append(found, breaches...)
		sort.SliceStable(found, func(i, j int) bool { return found[i].Index < found[j].Index })
	}

	for _, a := range found {
		outcome.Anomalies = append(outcome.Anomalies, BusinessAnomaly{
			Metric:  name,
			Month:   monthly[a.Index].Month,
			Anomaly: a,
		})
	}
	return outcome
}
