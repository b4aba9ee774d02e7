// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/motomuse/service-routes/internal/pipeline"
)

const envPrefix = "ROUTES"

// DatabaseConfig holds the postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the GORM postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServiceConfig holds all configuration for the route service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DBConfig DatabaseConfig

	JWTSecret    string
	JWTAccessTTL time.Duration

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	MapsAPIKey    string
	GeminiAPIKey  string
	GeminiModel   string
	StreetViewKey string

	Pipeline pipeline.Config
}

// Load reads configuration from ROUTES_-prefixed environment variables,
// falling back to development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8084")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "routes")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_TTL", "1h")

	v.SetDefault("MAPS_API_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")

	v.SetDefault("MAX_ATTEMPTS", 0)
	v.SetDefault("REQUEST_BUDGET", "")

	cfg := &ServiceConfig{
		Port:   ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTAccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
		KafkaBrokers:  strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),
		MapsAPIKey:    v.GetString("MAPS_API_KEY"),
		GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),
		GeminiModel:   v.GetString("GEMINI_MODEL"),
		Pipeline:      pipeline.DefaultConfig(),
	}
	// The imagery endpoints take a bare API key rather than a client.
	cfg.StreetViewKey = cfg.MapsAPIKey

	if n := v.GetInt("MAX_ATTEMPTS"); n > 0 {
		cfg.Pipeline.MaxAttempts = n
	}
	if d := v.GetDuration("REQUEST_BUDGET"); d > 0 {
		cfg.Pipeline.RequestBudget = d
	}

	if cfg.AppEnv != "development" {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("ROUTES_JWT_SECRET is required outside development")
		}
		if cfg.MapsAPIKey == "" || cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("ROUTES_MAPS_API_KEY and ROUTES_GEMINI_API_KEY are required outside development")
		}
	}

	return cfg, nil
}
