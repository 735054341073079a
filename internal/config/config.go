// Package config provides configuration management for the health gateway.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the health gateway.
type Config struct {
	Server         ServerConfig      `mapstructure:"server"`
	Health         HealthConfig      `mapstructure:"health"`
	Proxy          ProxyConfig       `mapstructure:"proxy"`
	Registry       RegistryConfig    `mapstructure:"registry"`
	Errors         ErrorsConfig      `mapstructure:"errors"`
	Messages       map[string]string `mapstructure:"messages"`
	SupportContact string            `mapstructure:"support_contact"`
	RateLimiter    RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics        MetricsConfig     `mapstructure:"metrics"`
	Logging        LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// HealthConfig holds probe and background loop settings.
type HealthConfig struct {
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	Interval     time.Duration `mapstructure:"interval"`
	ProbePath    string        `mapstructure:"probe_path"`
}

// ProxyConfig holds proxy gateway settings.
type ProxyConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RegistryConfig holds the registry seed.
type RegistryConfig struct {
	Services map[string]string `mapstructure:"services"`
	SeedFile string            `mapstructure:"seed_file"`
	Watch    bool              `mapstructure:"watch"`
}

// ErrorsConfig holds error log query settings.
type ErrorsConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DefaultServices is the registry seed used when nothing else is configured.
func DefaultServices() map[string]string {
	return map[string]string{
		"api-gateway":     "http://api-gateway:8084",
		"bus-booking":     "http://bus-booking:8001",
		"bus-service":     "http://bus-service:8002",
		"user-service":    "http://user-service:8003",
		"agent-service":   "http://agent-service:8006",
		"booking-service": "http://booking-service:8007",
	}
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/service-health/")
	}

	v.SetEnvPrefix("SERVICE_HEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logging.level", "SERVICE_HEALTH_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "SERVICE_HEALTH_LOGGING_FORMAT", "LOG_FORMAT")

	// a missing file is fine, defaults and env still apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Health defaults
	v.SetDefault("health.probe_timeout", "3s")
	v.SetDefault("health.interval", "30s")
	v.SetDefault("health.probe_path", "/")

	v.SetDefault("proxy.timeout", "10s")

	// Registry defaults
	v.SetDefault("registry.services", DefaultServices())
	v.SetDefault("registry.seed_file", "")
	v.SetDefault("registry.watch", false)

	v.SetDefault("errors.default_limit", 50)
	v.SetDefault("support_contact", "support@example.com")

	// Rate limiter defaults
	v.SetDefault("rate_limiter.enabled", false)
	v.SetDefault("rate_limiter.requests_per_second", 1000.0)
	v.SetDefault("rate_limiter.burst_size", 100)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Health.ProbeTimeout <= 0 {
		return fmt.Errorf("health probe timeout must be positive")
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("health interval must be positive")
	}
	if !strings.HasPrefix(c.Health.ProbePath, "/") {
		return fmt.Errorf("health probe path must start with '/': %q", c.Health.ProbePath)
	}

	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("proxy timeout must be positive")
	}

	for name, raw := range c.Registry.Services {
		if name == "" {
			return fmt.Errorf("registry service name must not be empty")
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid url for service %q: %q", name, raw)
		}
	}
	if c.Registry.Watch && c.Registry.SeedFile == "" {
		return fmt.Errorf("registry watch requires a seed file")
	}

	if c.Errors.DefaultLimit <= 0 {
		return fmt.Errorf("errors default limit must be positive")
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics port must differ from server port: %d", c.Metrics.Port)
		}
	}

	return nil
}
