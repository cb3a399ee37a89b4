package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Tariff   TariffConfig
	Tap      TapConfig
	Reader   ReaderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// TariffConfig holds the fare structure.
type TariffConfig struct {
	BaseFare      decimal.Decimal
	PerKmRate     decimal.Decimal
	PerMinuteRate decimal.Decimal
	FreeMinutes   float64
	MinimumFare   decimal.Decimal
	MaximumFare   decimal.Decimal
}

// TapConfig holds tap-handling configuration.
type TapConfig struct {
	// DefaultLat/DefaultLng are used when a reader reports no
	// coordinates. Deployments with fixed gates set these per station.
	DefaultLat float64
	DefaultLng float64

	// EstimatedKmPerMinute drives the fallback distance estimate when
	// no routing backend is configured.
	EstimatedKmPerMinute float64

	// DebounceTTL suppresses repeat taps of the same card within the
	// window (reader double-fire). Zero disables debouncing.
	DebounceTTL time.Duration
}

// ReaderConfig holds the card-reader broker polling configuration.
type ReaderConfig struct {
	BrokerGetURL   string
	BrokerClearURL string
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			ReadTimeout: getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			// Card detection long-polls the reader broker for up to
			// READER_POLL_TIMEOUT; the write timeout must outlast it.
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 75*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "faregate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "faregate"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Tariff: TariffConfig{
			BaseFare:      getDecimalEnv("TARIFF_BASE_FARE", "10.00"),
			PerKmRate:     getDecimalEnv("TARIFF_PER_KM_RATE", "5.00"),
			PerMinuteRate: getDecimalEnv("TARIFF_PER_MINUTE_RATE", "0.50"),
			FreeMinutes:   getFloatEnv("TARIFF_FREE_MINUTES", 5.0),
			MinimumFare:   getDecimalEnv("TARIFF_MINIMUM_FARE", "15.00"),
			MaximumFare:   getDecimalEnv("TARIFF_MAXIMUM_FARE", "100.00"),
		},
		Tap: TapConfig{
			DefaultLat:           getFloatEnv("TAP_DEFAULT_LAT", 12.9716),
			DefaultLng:           getFloatEnv("TAP_DEFAULT_LNG", 77.5946),
			EstimatedKmPerMinute: getFloatEnv("TAP_ESTIMATED_KM_PER_MINUTE", 0.5),
			DebounceTTL:          getDurationEnv("TAP_DEBOUNCE_TTL", 0),
		},
		Reader: ReaderConfig{
			BrokerGetURL:   getEnv("READER_BROKER_GET_URL", ""),
			BrokerClearURL: getEnv("READER_BROKER_CLEAR_URL", ""),
			PollInterval:   getDurationEnv("READER_POLL_INTERVAL", 2*time.Second),
			PollTimeout:    getDurationEnv("READER_POLL_TIMEOUT", 60*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDecimalEnv(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
