package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
}

// Auth modes
const (
	AuthModeNone   = "none"
	AuthModeAPIKey = "api_key"
	AuthModeJWT    = "jwt"
)

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Mode      string   `mapstructure:"mode"`       // none, api_key, jwt
	APIKeys   []string `mapstructure:"api_keys"`   // Valid API keys for api_key mode
	JWTSecret string   `mapstructure:"jwt_secret"` // HMAC secret for jwt mode
	JWTIssuer string   `mapstructure:"jwt_issuer"` // Expected iss claim, empty to skip the check
}

// RateLimitConfig limits requests per client IP
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// AnalyticsConfig holds the engine tunables
type AnalyticsConfig struct {
	Timezone string `mapstructure:"timezone"` // Month bucketing timezone ("Asia/Tokyo", "+09:00", "UTC")

	SensitivityMultiplier float64 `mapstructure:"sensitivity_multiplier"`
	MediumSeverityZ       float64 `mapstructure:"medium_severity_z"`
	HighSeverityZ         float64 `mapstructure:"high_severity_z"`
	Baseline              string  `mapstructure:"baseline"` // leave_one_out, whole_series
	StdDevFloorFraction   float64 `mapstructure:"stddev_floor_fraction"`
	MinDataPoints         int     `mapstructure:"min_data_points"`
	IQRMultiplier         float64 `mapstructure:"iqr_multiplier"` // fence width of the iqr detector

	StabilityFraction float64 `mapstructure:"stability_fraction"`
	WeakChangePct     float64 `mapstructure:"weak_change_pct"`
	StrongChangePct   float64 `mapstructure:"strong_change_pct"`

	WindowSize        int     `mapstructure:"window_size"`
	SmoothingFactor   float64 `mapstructure:"smoothing_factor"`
	MovingAverageKind string  `mapstructure:"moving_average_kind"` // simple, exponential

	Locale string `mapstructure:"locale"` // BCP 47 tag for trend descriptions
}

// AlertsConfig represents the anomaly alert queue configuration
type AlertsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Type           string        `mapstructure:"type"`        // memory, nats, redis, kafka
	URL            string        `mapstructure:"url"`         // nats://localhost:4222, redis://localhost:6379
	Subject        string        `mapstructure:"subject"`     // Base subject, tenant is appended
	Compression    string        `mapstructure:"compression"` // none, snappy
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`
	RedisStream string `mapstructure:"redis_stream"` // Stream key prefix
	RedisGroup  string `mapstructure:"redis_group"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}

	if err := c.Alerts.Validate(); err != nil {
		return fmt.Errorf("alerts config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	switch c.Mode {
	case "", AuthModeNone:
	case AuthModeAPIKey:
		if len(c.APIKeys) == 0 {
			return fmt.Errorf("auth.api_keys is required in api_key mode")
		}
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in jwt mode")
		}
	default:
		return fmt.Errorf("auth.mode must be one of: none, api_key, jwt")
	}
	return nil
}

// Validate validates rate limit configuration
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// Validate checks the engine tunables by building each engine config
func (c *AnalyticsConfig) Validate() error {
	if _, err := ParseTimezone(c.Timezone); err != nil {
		return fmt.Errorf("analytics.timezone: %w", err)
	}

	if err := c.TrendConfig().Validate(); err != nil {
		return err
	}

	if err := c.AnomalyConfig().Validate(); err != nil {
		return err
	}

	if c.WindowSize < 1 {
		return fmt.Errorf("analytics.window_size must be at least 1")
	}

	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("analytics.smoothing_factor must be in (0, 1]")
	}

	if c.MovingAverageKind != "simple" && c.MovingAverageKind != "exponential" {
		return fmt.Errorf("analytics.moving_average_kind must be 'simple' or 'exponential'")
	}

	return nil
}

// Validate validates alert queue configuration
func (c *AlertsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Type {
	case "memory", "nats", "redis":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("alerts.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("alerts.type must be one of: memory, nats, redis, kafka")
	}

	if c.Compression != "" && c.Compression != "none" && c.Compression != "snappy" {
		return fmt.Errorf("alerts.compression must be 'none' or 'snappy'")
	}

	if c.Subject == "" {
		return fmt.Errorf("alerts.subject is required")
	}

	return nil
}
