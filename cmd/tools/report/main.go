// report reads business metrics from a CSV file and prints the trend,
// anomalies and year-over-year change of every metric.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/soltixdb/insights/internal/analytics"
	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/analytics/trend"
	"github.com/soltixdb/insights/internal/analytics/yoy"
	"github.com/soltixdb/insights/internal/config"
)

func main() {
	input := flag.String("input", "", "CSV file with date,metric,value rows")
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	timezone := flag.String("timezone", "", "Timezone for month bucketing (defaults to analytics.timezone)")
	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input parameter is required")
	}

	cfg := config.LoadOrDefault(*configPath)
	if *timezone != "" {
		cfg.Analytics.Timezone = *timezone
	}
	loc, err := config.ParseTimezone(cfg.Analytics.Timezone)
	if err != nil {
		log.Fatalf("Error: invalid timezone '%s': %v\n", cfg.Analytics.Timezone, err)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Error opening input: %v\n", err)
	}
	metrics, err := readMetrics(f, loc)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Error reading %s: %v\n", *input, err)
	}
	if len(metrics) == 0 {
		log.Printf("Warning: No data points found\n")
		return
	}

	names := make([]string, 0, len(metrics))
	monthly := make(map[string][]analytics.MonthlyMetric, len(metrics))
	for name, series := range metrics {
		names = append(names, name)
		monthly[name] = analytics.BucketByMonth(series, loc)
	}
	sort.Strings(names)
	reference := latest(metrics)

	fmt.Printf("Report for %d metrics, reference month %s (%s)\n\n",
		len(names), reference.In(loc).Format("Jan 2006"), loc)

	trendCfg := cfg.Analytics.TrendConfig()
	for _, name := range names {
		printTrend(name, monthly[name], trendCfg)
		printYoY(yoy.BuildPartialYoYChartData(metrics[name], reference, loc))
		fmt.Println()
	}

	report := anomaly.DetectBusinessAnomalies(monthly, cfg.Analytics.AnomalyConfig())
	printAnomalies(report)
}

func printTrend(name string, months []analytics.MonthlyMetric, cfg trend.Config) {
	fmt.Printf("== %s (%d months)\n", name, len(months))
	cfg.Metric = name
	res, err := trend.AnalyzeTrend(analytics.MonthlySeries(months), cfg)
	if err != nil {
		fmt.Printf("   trend: %v\n", err)
		return
	}
	fmt.Printf("   trend: %s (slope %.2f/month, r2 %.2f)\n", res.Description, res.Slope, res.RSquared)
}

func printYoY(chart *yoy.ChartData) {
	total := chart.Total
	if total.PercentageChange == nil {
		fmt.Printf("   yoy:   %d YTD %.2f vs %d %.2f (n/a)\n",
			chart.CurrentYear, total.Current, chart.PriorYear, total.Prior)
		return
	}
	fmt.Printf("   yoy:   %d YTD %.2f vs %d %.2f (%+.1f%%)\n",
		chart.CurrentYear, total.Current, chart.PriorYear, total.Prior, *total.PercentageChange)
}

func printAnomalies(report *anomaly.BusinessReport) {
	fmt.Printf("Anomalies: %d\n", len(report.Anomalies))
	for _, a := range report.Anomalies {
		fmt.Printf("   %s  %-16s %-6s %-16s value %.2f expected %.2f (z %.2f)\n",
			a.Month.Format(time.DateOnly), a.Metric, a.Severity, a.Type, a.Value, a.ExpectedValue, a.ZScore)
	}
	for _, o := range report.Failures() {
		fmt.Printf("   %s skipped: %v\n", o.Metric, o.Err)
	}
}
