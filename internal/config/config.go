package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Delivery drivers.
const (
	DriverSES      = "ses"
	DriverPostgres = "postgres"
	DriverWebhook  = "webhook"
	DriverLog      = "log"
)

// Session stores.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var validate = validator.New()

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Session  SessionConfig  `yaml:"session"`
	Upload   UploadConfig   `yaml:"upload"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Template TemplateConfig `yaml:"template"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port" validate:"min=1,max=65535"`
	Host                   string   `yaml:"host"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" validate:"min=1"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level" validate:"oneof=debug info warn error"`
	ShowEmail bool   `yaml:"show_email"` // disables address redaction, local use only
}

// SessionConfig controls where form sessions live.
type SessionConfig struct {
	Store          string `yaml:"store" validate:"oneof=memory redis"`
	RedisURL       string `yaml:"redis_url" validate:"required_if=Store redis"`
	TTLMinutes     int    `yaml:"ttl_minutes" validate:"min=1"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds" validate:"min=1"`
	LockWaitMillis int    `yaml:"lock_wait_millis" validate:"min=0"`
	CookieName     string `yaml:"cookie_name" validate:"required"`
	CookieSecure   bool   `yaml:"cookie_secure"`
}

// TTL returns how long an idle session is kept.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// LockTTL returns the expiry of a session lock.
func (c SessionConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// LockWait returns how long a request waits for a busy session.
func (c SessionConfig) LockWait() time.Duration {
	return time.Duration(c.LockWaitMillis) * time.Millisecond
}

// UploadConfig limits spreadsheet uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" validate:"min=1"`
}

// DeliveryConfig selects and configures the invitation sender. Only the
// section named by Driver is validated.
type DeliveryConfig struct {
	Driver   string          `yaml:"driver" validate:"oneof=ses postgres webhook log"`
	SES      SESConfig       `yaml:"ses" validate:"-"`
	Postgres PostgresConfig  `yaml:"postgres" validate:"-"`
	Webhook  WebhookConfig   `yaml:"webhook" validate:"-"`
	Log      LogDriverConfig `yaml:"log" validate:"-"`
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region" validate:"required"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key" validate:"required_with=AccessKey"`
	FromEmail      string `yaml:"from_email" validate:"required,email"`
	FromName       string `yaml:"from_name"`
	Subject        string `yaml:"subject" validate:"required"`
	Body           string `yaml:"body" validate:"required"`
	AcceptURL      string `yaml:"accept_url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PostgresConfig holds the invitation table connection.
type PostgresConfig struct {
	DatabaseURL string `yaml:"database_url" validate:"required"`
}

// WebhookConfig holds the backend invitation endpoint.
type WebhookConfig struct {
	URL            string `yaml:"url" validate:"required,url"`
	AuthToken      string `yaml:"auth_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1"`
}

// Timeout returns the configured timeout as a duration
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogDriverConfig configures the development sender.
type LogDriverConfig struct {
	DelayMillis int `yaml:"delay_millis" validate:"min=0"`
}

// Delay returns the simulated send latency.
func (c LogDriverConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

// TemplateConfig controls the optional S3 mirror of the import template.
type TemplateConfig struct {
	S3Bucket         string `yaml:"s3_bucket"`
	S3Region         string `yaml:"s3_region"`
	S3Key            string `yaml:"s3_key"`
	AWSProfile       string `yaml:"aws_profile"` // Empty string uses default credential chain
	URLExpiryMinutes int    `yaml:"url_expiry_minutes" validate:"min=1"`
}

// Enabled reports whether the template is served from S3.
func (c TemplateConfig) Enabled() bool { return c.S3Bucket != "" }

// URLExpiry returns the lifetime of a presigned template URL.
func (c TemplateConfig) URLExpiry() time.Duration {
	return time.Duration(c.URLExpiryMinutes) * time.Minute
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c TemplateConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 15
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = StoreMemory
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 60
	}
	if cfg.Session.LockTTLSeconds == 0 {
		cfg.Session.LockTTLSeconds = 10
	}
	if cfg.Session.LockWaitMillis == 0 {
		cfg.Session.LockWaitMillis = 2000
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "invite_session"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Delivery.Driver == "" {
		cfg.Delivery.Driver = DriverLog
	}
	if cfg.Delivery.SES.Region == "" {
		cfg.Delivery.SES.Region = "us-east-1"
	}
	if cfg.Delivery.SES.TimeoutSeconds == 0 {
		cfg.Delivery.SES.TimeoutSeconds = 30
	}
	if cfg.Delivery.SES.Subject == "" {
		cfg.Delivery.SES.Subject = "You've been invited to join as {{ role_label }}"
	}
	if cfg.Delivery.SES.Body == "" {
		cfg.Delivery.SES.Body = "Hello,\n\nYou have been invited as {{ role_label }} ({{ role_description }}).\n" +
			"{% if accept_url != \"\" %}Accept the invitation: {{ accept_url }}?email={{ email | url_encode }}\n{% endif %}"
	}
	if cfg.Delivery.Webhook.TimeoutSeconds == 0 {
		cfg.Delivery.Webhook.TimeoutSeconds = 30
	}
	if cfg.Delivery.Log.DelayMillis == 0 {
		cfg.Delivery.Log.DelayMillis = 1500
	}
	if cfg.Template.S3Key == "" {
		cfg.Template.S3Key = "templates/invite-users-template.xlsx"
	}
	if cfg.Template.URLExpiryMinutes == 0 {
		cfg.Template.URLExpiryMinutes = 15
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS. An empty
// path starts from the defaults.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("INVITE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INVITE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("INVITE_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("INVITE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("INVITE_DELIVERY_DRIVER"); v != "" {
		cfg.Delivery.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("INVITE_WEBHOOK_URL"); v != "" {
		cfg.Delivery.Webhook.URL = v
	}
	if v := os.Getenv("INVITE_WEBHOOK_TOKEN"); v != "" {
		cfg.Delivery.Webhook.AuthToken = v
	}
	if v := os.Getenv("INVITE_FROM_EMAIL"); v != "" {
		cfg.Delivery.SES.FromEmail = v
	}
	if v := os.Getenv("INVITE_TEMPLATE_BUCKET"); v != "" {
		cfg.Template.S3Bucket = v
	}

	// Redis switches the session store on when set
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Session.RedisURL = v
		cfg.Session.Store = StoreRedis
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Delivery.Postgres.DatabaseURL = v
	}

	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.Delivery.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.Delivery.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.Delivery.SES.Region = region
	}
	return nil
}

// Validate checks the configuration, including the section of the
// selected delivery driver.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var driver any
	switch c.Delivery.Driver {
	case DriverSES:
		driver = c.Delivery.SES
	case DriverPostgres:
		driver = c.Delivery.Postgres
	case DriverWebhook:
		driver = c.Delivery.Webhook
	case DriverLog:
		driver = c.Delivery.Log
	}
	if err := validate.Struct(driver); err != nil {
		return fmt.Errorf("invalid delivery.%s config: %w", c.Delivery.Driver, err)
	}
	return nil
}
