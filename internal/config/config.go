// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/medevalink/be-ts-requests/internal/errors"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
}

// ServiceConfig identifies the running service instance.
type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
}

// DatabaseConfig holds the PostgreSQL pool settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	MaxConnTime time.Duration
	MaxIdleTime time.Duration
	HealthCheck time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_NAME", "be-ts-requests")
	v.SetDefault("SERVICE_VERSION", "dev")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "ts_requests")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_TIME", time.Hour)
	v.SetDefault("DB_MAX_IDLE_TIME", 30*time.Minute)
	v.SetDefault("DB_HEALTH_CHECK", time.Minute)

	cfg := &Config{
		Service: ServiceConfig{
			Name:        v.GetString("SERVICE_NAME"),
			Version:     v.GetString("SERVICE_VERSION"),
			Environment: v.GetString("ENVIRONMENT"),
			LogLevel:    v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Database:    v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MinConns:    v.GetInt32("DB_MIN_CONNS"),
			MaxConnTime: v.GetDuration("DB_MAX_CONN_TIME"),
			MaxIdleTime: v.GetDuration("DB_MAX_IDLE_TIME"),
			HealthCheck: v.GetDuration("DB_HEALTH_CHECK"),
		},
	}

	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		return nil, errors.InvalidInput("DB_PORT", "database port out of range")
	}

	return cfg, nil
}
