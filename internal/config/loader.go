package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file, defaults and INSIGHTS_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/insights")
	}

	setDefaults(v)

	// INSIGHTS_ANALYTICS_WINDOW_SIZE overrides analytics.window_size
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults registers every key so env overrides work without a file
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	v.SetDefault("auth.mode", d.Auth.Mode)
	v.SetDefault("auth.api_keys", d.Auth.APIKeys)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.jwt_issuer", d.Auth.JWTIssuer)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)

	v.SetDefault("analytics.timezone", d.Analytics.Timezone)
	v.SetDefault("analytics.sensitivity_multiplier", d.Analytics.SensitivityMultiplier)
	v.SetDefault("analytics.medium_severity_z", d.Analytics.MediumSeverityZ)
	v.SetDefault("analytics.high_severity_z", d.Analytics.HighSeverityZ)
	v.SetDefault("analytics.baseline", d.Analytics.Baseline)
	v.SetDefault("analytics.stddev_floor_fraction", d.Analytics.StdDevFloorFraction)
	v.SetDefault("analytics.min_data_points", d.Analytics.MinDataPoints)
	v.SetDefault("analytics.iqr_multiplier", d.Analytics.IQRMultiplier)
	v.SetDefault("analytics.stability_fraction", d.Analytics.StabilityFraction)
	v.SetDefault("analytics.weak_change_pct", d.Analytics.WeakChangePct)
	v.SetDefault("analytics.strong_change_pct", d.Analytics.StrongChangePct)
	v.SetDefault("analytics.window_size", d.Analytics.WindowSize)
	v.SetDefault("analytics.smoothing_factor", d.Analytics.SmoothingFactor)
	v.SetDefault("analytics.moving_average_kind", d.Analytics.MovingAverageKind)
	v.SetDefault("analytics.locale", d.Analytics.Locale)

	v.SetDefault("alerts.enabled", d.Alerts.Enabled)
	v.SetDefault("alerts.type", d.Alerts.Type)
	v.SetDefault("alerts.url", d.Alerts.URL)
	v.SetDefault("alerts.subject", d.Alerts.Subject)
	v.SetDefault("alerts.compression", d.Alerts.Compression)
	v.SetDefault("alerts.username", d.Alerts.Username)
	v.SetDefault("alerts.password", d.Alerts.Password)
	v.SetDefault("alerts.publish_timeout", d.Alerts.PublishTimeout)
	v.SetDefault("alerts.redis_db", d.Alerts.RedisDB)
	v.SetDefault("alerts.redis_stream", d.Alerts.RedisStream)
	v.SetDefault("alerts.redis_group", d.Alerts.RedisGroup)
	v.SetDefault("alerts.kafka_brokers", d.Alerts.KafkaBrokers)
	v.SetDefault("alerts.kafka_group_id", d.Alerts.KafkaGroupID)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    8 * 1024 * 1024,
		},
		Auth: AuthConfig{
			Mode: AuthModeNone,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
		Analytics: AnalyticsConfig{
			Timezone:              "UTC",
			SensitivityMultiplier: 2.0,
			MediumSeverityZ:       2.0,
			HighSeverityZ:         3.0,
			Baseline:              "leave_one_out",
			StdDevFloorFraction:   0.01,
			MinDataPoints:         3,
			IQRMultiplier:         1.5,
			StabilityFraction:     0.01,
			WeakChangePct:         10,
			StrongChangePct:       30,
			WindowSize:            6,
			SmoothingFactor:       0.3,
			MovingAverageKind:     "simple",
			Locale:                "en",
		},
		Alerts: AlertsConfig{
			Enabled:        false,
			Type:           "memory",
			URL:            "nats://localhost:4222",
			Subject:        "insights.alerts",
			Compression:    "none",
			PublishTimeout: 5 * time.Second,
			RedisStream:    "insights",
			RedisGroup:     "insights-group",
			KafkaGroupID:   "insights-alerts",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "insights",
		},
	}
}
