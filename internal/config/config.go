// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Book      BookConfig      `mapstructure:"book"`
	Feeds     []FeedConfig    `mapstructure:"feeds"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// BookConfig configures the aggregation core itself.
type BookConfig struct {
	Symbol            string   `mapstructure:"symbol"`
	ExpectedExchanges []string `mapstructure:"expected_exchanges"`
	PublishIntervalMs uint32   `mapstructure:"publish_interval_ms"`
}

// FeedConfig describes one upstream venue feed, consumed only by the
// external feed adapter, never by the core.
type FeedConfig struct {
	Name      string        `mapstructure:"name"`
	URL       string        `mapstructure:"url"`
	AuthToken string        `mapstructure:"auth_token"`
	Interval  time.Duration `mapstructure:"interval"`
}

// GRPCConfig configures the streaming RPC transport.
type GRPCConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	Port          int    `mapstructure:"port"`
	AuthToken     string `mapstructure:"auth_token"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LOBAGG")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "LOBAGG_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LOBAGG_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LOBAGG_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("book.symbol", "LOBAGG_SYMBOL")
	v.BindEnv("book.expected_exchanges", "LOBAGG_EXPECTED_EXCHANGES")
	v.BindEnv("book.publish_interval_ms", "LOBAGG_PUBLISH_INTERVAL_MS")

	v.BindEnv("grpc.listen_address", "LOBAGG_GRPC_LISTEN_ADDRESS")
	v.BindEnv("grpc.port", "LOBAGG_GRPC_PORT")
	v.BindEnv("grpc.auth_token", "LOBAGG_GRPC_AUTH_TOKEN")

	v.BindEnv("telemetry.enabled", "LOBAGG_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LOBAGG_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LOBAGG_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lobagg")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("book.symbol", "BTC-USD")
	v.SetDefault("book.expected_exchanges", []string{})
	v.SetDefault("book.publish_interval_ms", 100)

	v.SetDefault("grpc.listen_address", "0.0.0.0")
	v.SetDefault("grpc.port", 7070)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "lobagg")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Book.Symbol == "" {
		return fmt.Errorf("book.symbol is required")
	}
	if c.GRPC.Port <= 0 {
		return fmt.Errorf("grpc.port must be positive")
	}
	for _, f := range c.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feeds: name is required")
		}
	}
	return nil
}
