package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://app.example.com"]

log:
  level: debug

session:
  store: redis
  redis_url: "redis://localhost:6379/0"
  ttl_minutes: 30

upload:
  max_bytes: 2048

delivery:
  driver: webhook
  webhook:
    url: "https://backend.example.com/invitations"
    timeout_seconds: 5

template:
  s3_bucket: "invite-assets"
  s3_region: "us-west-2"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL())
	assert.Equal(t, int64(2048), cfg.Upload.MaxBytes)

	assert.Equal(t, DriverWebhook, cfg.Delivery.Driver)
	assert.Equal(t, 5*time.Second, cfg.Delivery.Webhook.Timeout())

	assert.True(t, cfg.Template.Enabled())
	assert.Equal(t, "templates/invite-users-template.xlsx", cfg.Template.S3Key)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 3000\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, "invite_session", cfg.Session.CookieName)
	assert.Equal(t, 10*time.Second, cfg.Session.LockTTL())
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, DriverLog, cfg.Delivery.Driver)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delivery.Log.Delay())
	assert.Equal(t, "us-east-1", cfg.Delivery.SES.Region)
	assert.False(t, cfg.Template.Enabled())

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Delivery.Driver = "carrier-pigeon" },
			wantErr: "invalid config",
		},
		{
			name:    "redis store without url",
			mutate:  func(c *Config) { c.Session.Store = StoreRedis },
			wantErr: "RedisURL",
		},
		{
			name:    "webhook driver without url",
			mutate:  func(c *Config) { c.Delivery.Driver = DriverWebhook },
			wantErr: "invalid delivery.webhook config",
		},
		{
			name:    "ses driver without sender address",
			mutate:  func(c *Config) { c.Delivery.Driver = DriverSES },
			wantErr: "FromEmail",
		},
		{
			name: "ses driver configured",
			mutate: func(c *Config) {
				c.Delivery.Driver = DriverSES
				c.Delivery.SES.FromEmail = "team@example.com"
			},
		},
		{
			name: "unselected driver sections are ignored",
			mutate: func(c *Config) {
				c.Delivery.Webhook.URL = "not a url"
			},
		},
		{
			name:    "postgres driver without database",
			mutate:  func(c *Config) { c.Delivery.Driver = DriverPostgres },
			wantErr: "DatabaseURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INVITE_PORT", "7070")
	t.Setenv("INVITE_LOG_LEVEL", "WARN")
	t.Setenv("INVITE_DELIVERY_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/invites?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("AWS_SES_REGION", "eu-west-1")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Delivery.Driver)
	assert.Equal(t, "postgres://localhost/invites?sslmode=disable", cfg.Delivery.Postgres.DatabaseURL)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Session.RedisURL)
	assert.Equal(t, "eu-west-1", cfg.Delivery.SES.Region)
}

func TestLoadFromEnvBadPort(t *testing.T) {
	t.Setenv("INVITE_PORT", "http")
	_, err := LoadFromEnv("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVITE_PORT")
}

func TestGetHostOverride(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "127.0.0.1")

	cfg := ServerConfig{Host: "localhost", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}
