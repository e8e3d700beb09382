package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/asset-portal/internal"
)

var (
	configPath   string
	outputFormat string
	ephemeral    bool
)

var rootCmd = &cobra.Command{
	Use:   "asset-portal",
	Short: "Asset Portal",
	Long:  `Client for the asset and IT-request backend: approvals, privileges, users, assets and notifications.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case formatTable, formatJSON, formatYAML:
			return nil
		}
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFormat)
	},
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	// Check if we're running in a container
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg, err := internal.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	// Load configuration from file (development)
	v := viper.New()
	setDefaults(v, internal.Defaults())
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so that env overrides apply even without a config file.
func setDefaults(v *viper.Viper, d *internal.Config) {
	v.SetDefault("env", d.Env)
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.source", d.Storage.Source)
	v.SetDefault("storage.encryption_key", d.Storage.EncryptionKey)
	v.SetDefault("http_server.port", d.Server.Port)
	v.SetDefault("http_server.allowed_hosts", d.Server.AllowedHosts)
	v.SetDefault("http_server.rate_limit_per_min", d.Server.RateLimitPerMin)
	v.SetDefault("http_server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("http_server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("http_server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("http_server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("notifications.poll_interval", d.Notifications.PollInterval)
	v.SetDefault("observability.metrics.enabled", d.Observability.Metrics.Enabled)
	v.SetDefault("observability.metrics.path", d.Observability.Metrics.Path)
	v.SetDefault("observability.logging.level", d.Observability.Logging.Level)
	v.SetDefault("observability.logging.format", d.Observability.Logging.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session token in memory only")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
}
