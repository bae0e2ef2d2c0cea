// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Health    HealthConfig    `mapstructure:"health"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // a full scan can take minutes
}

// HealthConfig holds the health probe server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// BinanceConfig holds Binance REST API configuration.
type BinanceConfig struct {
	BaseURL           string        `mapstructure:"base_url"` // https://api.binance.com or https://api.binance.us
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"` // weight units, 0 = unlimited
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
	StreamEnabled     bool          `mapstructure:"stream_enabled"` // serve prices from the miniTicker stream
	StreamURL         string        `mapstructure:"stream_url"`
	StreamMaxAge      time.Duration `mapstructure:"stream_max_age"` // older cached prices fall back to REST
}

// CatalogConfig narrows the exchange catalog before triples are generated.
type CatalogConfig struct {
	Symbols     []string `mapstructure:"symbols"`      // allowlist, empty = all
	QuoteAssets []string `mapstructure:"quote_assets"` // e.g. BTC, ETH, USDT
	TradingOnly bool     `mapstructure:"trading_only"`
	MaxSymbols  int      `mapstructure:"max_symbols"` // 0 = unlimited
}

// FetcherConfig controls price fetch pacing and retries.
type FetcherConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	PaceDelay   time.Duration `mapstructure:"pace_delay"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// ScannerConfig controls scan concurrency.
type ScannerConfig struct {
	Workers            int   `mapstructure:"workers"`
	MaxInFlightFetches int64 `mapstructure:"max_in_flight_fetches"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp-grpc, otlp-http, console, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"` // key=value[,key=value]
	MetricsBackend string `mapstructure:"metrics_backend"` // prometheus, otlp
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Headers parses OTLPHeaders into a map, ignoring malformed pairs.
func (t TelemetryConfig) Headers() map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(t.OTLPHeaders, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
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

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
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
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Server
	v.BindEnv("server.port", "ARB_SERVER_PORT", "PORT")
	v.BindEnv("server.cors_origins", "ARB_CORS_ORIGINS", "CORS_ORIGINS")

	// Health
	v.BindEnv("health.port", "ARB_HEALTH_PORT", "HEALTH_PORT")

	// Binance
	v.BindEnv("binance.base_url", "ARB_BINANCE_BASE_URL", "BINANCE_BASE_URL")
	v.BindEnv("binance.requests_per_minute", "ARB_BINANCE_RPM", "BINANCE_RPM")
	v.BindEnv("binance.stream_enabled", "ARB_BINANCE_STREAM", "BINANCE_STREAM")

	// Catalog
	v.BindEnv("catalog.symbols", "ARB_CATALOG_SYMBOLS", "BINANCE_SYMBOLS")
	v.BindEnv("catalog.max_symbols", "ARB_CATALOG_MAX_SYMBOLS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "triarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30m")

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	// Binance defaults
	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.timeout", "10s")
	v.SetDefault("binance.requests_per_minute", 3000) // request weight, half of the 6000/min Binance budget
	v.SetDefault("binance.breaker_failures", 3)
	v.SetDefault("binance.breaker_timeout", "30s")
	v.SetDefault("binance.stream_enabled", false)
	v.SetDefault("binance.stream_url", "wss://stream.binance.com:9443/ws/!miniTicker@arr")
	v.SetDefault("binance.stream_max_age", "5s")

	// Catalog defaults
	v.SetDefault("catalog.symbols", []string{})
	v.SetDefault("catalog.quote_assets", []string{})
	v.SetDefault("catalog.trading_only", false)
	v.SetDefault("catalog.max_symbols", 0)

	// Fetcher defaults
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.pace_delay", "100ms")
	v.SetDefault("fetcher.cooldown", "1s")

	// Scanner defaults
	v.SetDefault("scanner.workers", 4)
	v.SetDefault("scanner.max_in_flight_fetches", 12)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "triarb")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.metrics_backend", "prometheus")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Health.Enabled && c.Health.Port == c.Server.Port {
		return fmt.Errorf("health.port must differ from server.port (%d)", c.Server.Port)
	}
	if c.Binance.BaseURL == "" {
		return fmt.Errorf("binance.base_url is required")
	}
	if c.Binance.RequestsPerMinute < 0 {
		return fmt.Errorf("binance.requests_per_minute cannot be negative")
	}
	if c.Binance.StreamEnabled {
		if c.Binance.StreamURL == "" {
			return fmt.Errorf("binance.stream_url is required when streaming is enabled")
		}
		if c.Binance.StreamMaxAge <= 0 {
			return fmt.Errorf("binance.stream_max_age must be positive")
		}
	}
	if c.Catalog.MaxSymbols < 0 {
		return fmt.Errorf("catalog.max_symbols cannot be negative")
	}
	if c.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be at least 1")
	}
	if c.Fetcher.PaceDelay < 0 || c.Fetcher.Cooldown < 0 {
		return fmt.Errorf("fetcher delays cannot be negative")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be at least 1")
	}
	if c.Scanner.MaxInFlightFetches < 1 {
		return fmt.Errorf("scanner.max_in_flight_fetches must be at least 1")
	}
	switch c.Telemetry.MetricsBackend {
	case "prometheus", "otlp":
	default:
		return fmt.Errorf("unknown telemetry.metrics_backend: %s", c.Telemetry.MetricsBackend)
	}
	return nil
}
