package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 3*time.Second, cfg.Health.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
	assert.Equal(t, "/", cfg.Health.ProbePath)
	assert.Equal(t, 10*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, 50, cfg.Errors.DefaultLimit)
	assert.Equal(t, map[string]string{
		"api-gateway":     "http://api-gateway:8084",
		"bus-booking":     "http://bus-booking:8001",
		"bus-service":     "http://bus-service:8002",
		"user-service":    "http://user-service:8003",
		"agent-service":   "http://agent-service:8006",
		"booking-service": "http://booking-service:8007",
	}, cfg.Registry.Services)
	assert.False(t, cfg.Registry.Watch)
	assert.False(t, cfg.RateLimiter.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
health:
  probe_timeout: 1s
  interval: 5s
proxy:
  timeout: 2s
registry:
  services:
    payments: http://payments:8080
errors:
  default_limit: 10
messages:
  payments: Payments are delayed.
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Health.ProbeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Health.Interval)
	assert.Equal(t, 2*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, 10, cfg.Errors.DefaultLimit)
	assert.Equal(t, "http://payments:8080", cfg.Registry.Services["payments"])
	assert.Equal(t, "Payments are delayed.", cfg.Messages["payments"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVICE_HEALTH_SERVER_PORT", "8181")
	t.Setenv("SERVICE_HEALTH_PROXY_TIMEOUT", "4s")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 4*time.Second, cfg.Proxy.Timeout)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Health:   HealthConfig{ProbeTimeout: time.Second, Interval: time.Second, ProbePath: "/"},
			Proxy:    ProxyConfig{Timeout: time.Second},
			Registry: RegistryConfig{Services: DefaultServices()},
			Errors:   ErrorsConfig{DefaultLimit: 50},
			Metrics:  MetricsConfig{Enabled: true, Port: 9090},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero probe timeout", func(c *Config) { c.Health.ProbeTimeout = 0 }},
		{"zero interval", func(c *Config) { c.Health.Interval = 0 }},
		{"relative probe path", func(c *Config) { c.Health.ProbePath = "health" }},
		{"zero proxy timeout", func(c *Config) { c.Proxy.Timeout = 0 }},
		{"bad service url", func(c *Config) { c.Registry.Services["broken"] = "not a url" }},
		{"watch without file", func(c *Config) { c.Registry.Watch = true }},
		{"zero default limit", func(c *Config) { c.Errors.DefaultLimit = 0 }},
		{"rate limiter without rate", func(c *Config) { c.RateLimiter.Enabled = true }},
		{"metrics on server port", func(c *Config) { c.Metrics.Port = 8080 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_LogEnvAliases(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}
