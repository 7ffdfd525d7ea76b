package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luminex/nursery-backend/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.Env != "development" || cfg.ServiceName != "nursery" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Database.Driver != db.DriverPostgres || cfg.Database.Port != "5432" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.AccessTokenTTL != time.Hour || cfg.RedisTTL != 5*time.Minute {
		t.Fatalf("unexpected durations: jwt=%s redis=%s", cfg.AccessTokenTTL, cfg.RedisTTL)
	}
	if cfg.RedisAddr != "" || cfg.MetricsEnabled || cfg.OtelEnabled {
		t.Fatalf("optional integrations should default off: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors origins should default empty, got %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:cfg?mode=memory")
	t.Setenv("JWT_TTL_SECONDS", "120")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OTEL_HEADERS", "x-team=nursery")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPPort != "9090" || cfg.Database.Driver != db.DriverSQLite || cfg.Database.SQLitePath != "file:cfg?mode=memory" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 2*time.Minute || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("env not applied: ttl=%s redis=%q", cfg.AccessTokenTTL, cfg.RedisAddr)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.OtelHeaders["x-team"] != "nursery" {
		t.Fatalf("otel headers: %v", cfg.OtelHeaders)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nursery.yaml")
	body := "http:\n  port: \"7000\"\npostgres:\n  host: db.internal\n  name: plants\nmetrics:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("POSTGRES_NAME", "plants_env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPPort != "7000" || cfg.Database.Host != "db.internal" || !cfg.MetricsEnabled {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.Database.Name != "plants_env" {
		t.Fatalf("environment should win over file, got %q", cfg.Database.Name)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"default secret in production", map[string]string{"APP_ENV": "production"}},
		{"zero ttl", map[string]string{"JWT_TTL_SECONDS": "0"}},
		{"sample ratio out of range", map[string]string{"OTEL_SAMPLE_RATIO": "1.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("production with secret: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
}
