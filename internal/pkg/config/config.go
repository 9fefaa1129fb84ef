package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

// DSN builds a pgx connection string. pool_max_conns is read by pgxpool.
func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf("&pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// KafkaConfig enables the Kafka event feed. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	RouteTopic    string   `mapstructure:"route_topic"`
	PositionTopic string   `mapstructure:"position_topic"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// ProviderConfig configures the Google Maps Platform backend.
type ProviderConfig struct {
	APIKey       string `mapstructure:"api_key"`
	MapsBaseURL  string `mapstructure:"maps_base_url"`
	RoutesURL    string `mapstructure:"routes_url"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
	LanguageCode string `mapstructure:"language_code"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// GeolocationConfig holds the fallback used when a device cannot be located.
type GeolocationConfig struct {
	FallbackLat float64 `mapstructure:"fallback_lat"`
	FallbackLon float64 `mapstructure:"fallback_lon"`
	// AllowFallbackNavigation lets navigation start from a fallback fix.
	AllowFallbackNavigation bool `mapstructure:"allow_fallback_navigation"`
}

func (g GeolocationConfig) Fallback() domain.Coordinate {
	return domain.Coordinate{Lat: g.FallbackLat, Lon: g.FallbackLon}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wayfinder")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "wayfinder")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.route_topic", "wayfinder.route-updates")
	v.SetDefault("kafka.position_topic", "wayfinder.device-positions")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.maps_base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("provider.routes_url", "https://routes.googleapis.com/directions/v2:computeRoutes")
	v.SetDefault("provider.timeout_sec", 5)
	v.SetDefault("provider.language_code", "fr")
	// Conakry city centre
	v.SetDefault("geolocation.fallback_lat", 9.6412)
	v.SetDefault("geolocation.fallback_lon", -13.5784)
	v.SetDefault("geolocation.allow_fallback_navigation", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// A local .env file feeds the environment; variables already set win.
	_ = godotenv.Load()

	// Environment variables: WAYFINDER_PROVIDER_API_KEY → provider.api_key
	v.SetEnvPrefix("WAYFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.Provider.TimeoutSec <= 0 {
		errs = append(errs, "provider.timeout_sec must be positive")
	}
	if c.Kafka.Enabled() && (c.Kafka.RouteTopic == "" || c.Kafka.PositionTopic == "") {
		errs = append(errs, "kafka topics are required when brokers are set")
	}
	if err := c.Geolocation.Fallback().Validate(); err != nil {
		errs = append(errs, "geolocation fallback: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
