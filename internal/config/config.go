package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Telemetry  TelemetryConfig
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
	// FixturesPath seeds the memory driver from a YAML file.
	FixturesPath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
	Skew             time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AttendanceConfig struct {
	TimeZone            string
	BackfillConcurrency int
	// BackfillInterval is how often the API process backfills the previous
	// day for BackfillCompanyIDs. Zero, the default, disables the job.
	BackfillInterval   time.Duration
	BackfillCompanyIDs []string
}

type TelemetryConfig struct {
	ServiceName   string
	TraceExporter string
}

// Load reads the environment, optionally from a .env file in the working
// directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "2"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:       getEnv("DB_DRIVER", DriverPostgres),
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         dbPort,
		User:         getEnv("DB_USER", "postgres"),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", "attendance"),
		SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		MaxConns:     int32(maxConns),
		MinConns:     int32(minConns),
		FixturesPath: getEnv("FIXTURES_PATH", ""),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	accessExpiration, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	skew, err := time.ParseDuration(getEnv("JWT_ACCEPTABLE_SKEW", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCEPTABLE_SKEW: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
		Skew:             skew,
	}

	// Attendance configuration
	backfillConcurrency, err := strconv.Atoi(getEnv("BACKFILL_CONCURRENCY", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_CONCURRENCY: %w", err)
	}

	backfillInterval, err := time.ParseDuration(getEnv("BACKFILL_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		TimeZone:            getEnv("COMPANY_TIMEZONE", "UTC"),
		BackfillConcurrency: backfillConcurrency,
		BackfillInterval:    backfillInterval,
		BackfillCompanyIDs:  getEnvSlice("BACKFILL_COMPANY_IDS"),
	}

	config.Telemetry = TelemetryConfig{
		ServiceName:   getEnv("OTEL_SERVICE_NAME", "attendance-engine"),
		TraceExporter: getEnv("OTEL_TRACES_EXPORTER", "none"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid COMPANY_TIMEZONE: %w", err)
	}
	if c.Attendance.BackfillConcurrency < 1 {
		return fmt.Errorf("BACKFILL_CONCURRENCY must be at least 1")
	}
	if c.Attendance.BackfillInterval < 0 {
		return fmt.Errorf("BACKFILL_INTERVAL must not be negative")
	}
	return nil
}

// Location returns the company time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Attendance.TimeZone)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
