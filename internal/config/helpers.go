package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/analytics/movingavg"
	"github.com/soltixdb/insights/internal/analytics/trend"
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// Location returns the bucketing timezone, UTC when unset or invalid
func (c *AnalyticsConfig) Location() *time.Location {
	loc, err := ParseTimezone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TrendConfig builds the trend analyzer configuration
func (c *AnalyticsConfig) TrendConfig() trend.Config {
	cfg := trend.DefaultConfig()
	cfg.StabilityFraction = c.StabilityFraction
	cfg.WeakBelowPct = c.WeakChangePct
	cfg.StrongAbovePct = c.StrongChangePct
	if c.Locale != "" {
		cfg.Locale = c.Locale
	}
	return cfg
}

// AnomalyConfig builds the anomaly detector configuration
func (c *AnalyticsConfig) AnomalyConfig() anomaly.Config {
	cfg := anomaly.DefaultConfig()
	cfg.SensitivityMultiplier = c.SensitivityMultiplier
	cfg.MediumSeverityZ = c.MediumSeverityZ
	cfg.HighSeverityZ = c.HighSeverityZ
	cfg.Baseline = anomaly.Baseline(c.Baseline)
	cfg.StdDevFloorFraction = c.StdDevFloorFraction
	cfg.MinDataPoints = c.MinDataPoints
	cfg.IQRMultiplier = c.IQRMultiplier
	cfg.WindowSize = c.WindowSize
	return cfg
}

// MovingAverageConfig builds the moving average configuration
func (c *AnalyticsConfig) MovingAverageConfig() movingavg.Config {
	return movingavg.Config{
		Kind:            movingavg.Kind(c.MovingAverageKind),
		WindowSize:      c.WindowSize,
		SmoothingFactor: c.SmoothingFactor,
	}
}

// ParseTimezone accepts IANA names ("Asia/Tokyo", "UTC") and fixed
// offsets ("+09:00", "-05:00"). An empty string is UTC.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	return parseOffsetTimezone(tz)
}

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid timezone: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, _ := strconv.Atoi(matches[2])
	minutes, _ := strconv.Atoi(matches[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset out of range: %s", offset)
	}

	return time.FixedZone(offset, sign*(hours*3600+minutes*60)), nil
}
