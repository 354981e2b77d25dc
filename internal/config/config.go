package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port      string
	StoreName string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	Timeout  time.Duration
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	SMTP     SMTPConfig
}

// NewConfig reads environment variables, optionally seeded from a
// .env file in the working directory.
func NewConfig() (*Config, error) {
	// A missing .env is fine: containers pass real env vars.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = getenv("APP_PORT", "8080")
	cfg.App.StoreName = getenv("STORE_NAME", "LinhKien5AE")

	var err error
	if cfg.Postgres.Host, err = require("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = require("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = require("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = require("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = require("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getenv("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = getenv("DB_MIGRATIONS_PATH", "migrations")

	cfg.SMTP.Host = getenv("SMTP_HOST", "")
	cfg.SMTP.Port = getenv("SMTP_PORT", "587")
	cfg.SMTP.From = getenv("SMTP_FROM", "no-reply@linhkien5ae.local")
	cfg.SMTP.Username = getenv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getenv("SMTP_PASSWORD", "")
	cfg.SMTP.Timeout = 10 * time.Second
	if raw := os.Getenv("SMTP_TIMEOUT"); raw != "" {
		timeout, parseErr := time.ParseDuration(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid SMTP_TIMEOUT %q: %w", raw, parseErr)
		}
		cfg.SMTP.Timeout = timeout
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func require(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}
