package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("COMPANY_TIMEZONE", "Asia/Jakarta")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://hr.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BACKFILL_COMPANY_IDS", "company-a,company-b")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"http://localhost:3000", "https://hr.example.com"}, cfg.App.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, 30*time.Second, cfg.JWT.Skew)
	assert.Equal(t, 8, cfg.Attendance.BackfillConcurrency)
	assert.Zero(t, cfg.Attendance.BackfillInterval)
	assert.Equal(t, []string{"company-a", "company-b"}, cfg.Attendance.BackfillCompanyIDs)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without password", map[string]string{"DB_DRIVER": "postgres", "DB_PASSWORD": "", "JWT_SECRET_KEY": "secret"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "sqlite", "JWT_SECRET_KEY": "secret"}},
		{"missing secret", map[string]string{"DB_DRIVER": "memory", "JWT_SECRET_KEY": ""}},
		{"bad time zone", map[string]string{"DB_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "COMPANY_TIMEZONE": "Mars/Olympus"}},
		{"bad port", map[string]string{"DB_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "APP_PORT": "http"}},
		{"negative interval", map[string]string{"DB_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "BACKFILL_INTERVAL": "-1h"}},
		{"zero concurrency", map[string]string{"DB_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "BACKFILL_CONCURRENCY": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw", Name: "attendance", SSLMode: "disable",
	}}

	assert.Equal(t, "postgres://app:pw@db:5432/attendance?sslmode=disable", cfg.DatabaseURL())
}
