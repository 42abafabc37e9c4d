// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. It is public, so
// Validate refuses it in production.
const DevJWTSecret = "dev-secret-change-me"

var ErrInsecureJWTSecret = errors.New("config: JWT_SECRET must be set to a non-default value in production")

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Hostel   HostelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins []string
	IdempotencyTTL     time.Duration
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type HostelConfig struct {
	// Timezone decides which calendar day "today" is for date validation.
	Timezone             string
	OverdueCheckInterval time.Duration
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

// Location resolves the hostel time zone, falling back to UTC when the
// name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Hostel.Timezone)
	if err != nil {
		log.Printf("config: unknown HOSTEL_TIMEZONE %q, using UTC", c.Hostel.Timezone)
		return time.UTC
	}
	return loc
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() {
		secret := strings.TrimSpace(c.Auth.JWTSecret)
		if secret == "" || secret == DevJWTSecret {
			return ErrInsecureJWTSecret
		}
	}
	return nil
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "hostel-leave.log"),
			CorsAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			IdempotencyTTL:     getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "hostel.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Hostel: HostelConfig{
			Timezone:             getEnv("HOSTEL_TIMEZONE", "UTC"),
			OverdueCheckInterval: getEnvAsDuration("OVERDUE_CHECK_INTERVAL", time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "10m") or a bare number of
// seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
