package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env           string              `mapstructure:"env" envconfig:"APP_ENV" default:"development"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" envconfig:"BACKEND_BASE_URL" default:"http://localhost:8080/api/"`
	Timeout time.Duration `mapstructure:"timeout" envconfig:"BACKEND_TIMEOUT" default:"10s"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver        string `mapstructure:"driver" envconfig:"STORAGE_DRIVER" default:"sqlite"`
	Source        string `mapstructure:"source" envconfig:"STORAGE_SOURCE" default:"asset-portal.db"`
	EncryptionKey string `mapstructure:"encryption_key" envconfig:"STORAGE_ENCRYPTION_KEY"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"HTTP_PORT" default:"8090"`
	AllowedHosts      string        `mapstructure:"allowed_hosts" envconfig:"HTTP_ALLOWED_HOSTS"`
	RateLimitPerMin   int           `mapstructure:"rate_limit_per_min" envconfig:"HTTP_RATE_LIMIT_PER_MIN" default:"300"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
}

type NotificationConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"NOTIFICATIONS_POLL_INTERVAL" default:"1m"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"METRICS_ENABLED"`
	Path    string `mapstructure:"path" envconfig:"METRICS_PATH" default:"/metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format string `mapstructure:"format" envconfig:"LOG_FORMAT" default:"text"`
}

// Defaults returns the configuration used when no config file is present.
func Defaults() *Config {
	return &Config{
		Env: "development",
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080/api/",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Source: "asset-portal.db",
		},
		Server: ServerConfig{
			Port:              8090,
			RateLimitPerMin:   300,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		Notifications: NotificationConfig{PollInterval: time.Minute},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Path: "/metrics"},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// LoadConfigFromEnv reads the whole configuration from environment variables (container deployments).
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backend config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if c.Notifications.PollInterval < time.Second {
		errs = append(errs, "notifications config: poll_interval must be at least 1s")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Source == "" {
			return errors.New("source is required")
		}
	case "postgres":
		if _, err := pgx.ParseConfig(c.Source); err != nil {
			return fmt.Errorf("invalid postgres source: %w", err)
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.EncryptionKey != "" {
		if _, err := c.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key decodes the base64 encryption key. A nil key means tokens are stored unsealed.
func (c *StorageConfig) Key() (*[32]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Hosts splits the comma separated allowed_hosts value.
func (c *ServerConfig) Hosts() []string {
	if c.AllowedHosts == "" {
		return nil
	}
	var hosts []string
	for _, h := range strings.Split(c.AllowedHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
