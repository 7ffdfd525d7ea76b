package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/luminex/nursery-backend/internal/data/db"
	"github.com/luminex/nursery-backend/internal/observability"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Env         string
	ServiceName string
	Version     string
	HTTPPort    string

	LogMode      string
	LogLevel     string
	LogRedaction bool
	LogHashSalt  string

	Database db.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	MetricsEnabled bool

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     map[string]string
	OtelInsecure    bool
	OtelSampleRatio float64

	CORSOrigins []string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "nursery")
	v.SetDefault("app.version", "dev")
	v.SetDefault("http.port", "8080")

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "")
	v.SetDefault("log.redaction_enabled", true)
	v.SetDefault("log.hash_salt", "")

	v.SetDefault("database.driver", db.DriverPostgres)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_seconds", 1800)
	v.SetDefault("database.slow_threshold_ms", 200)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "nursery")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("sqlite.path", "nursery.db")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.ttl_seconds", 3600)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_seconds", 300)

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.headers", "")
	v.SetDefault("otel.insecure", false)
	v.SetDefault("otel.sample_ratio", 1.0)

	v.SetDefault("cors.origins", "")
}

// LoadConfig reads defaults, then the optional config file, then the environment.
// Environment keys are the upper-cased key with dots replaced by underscores (POSTGRES_HOST).
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(configFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:         strings.ToLower(strings.TrimSpace(v.GetString("app.env"))),
		ServiceName: strings.TrimSpace(v.GetString("app.name")),
		Version:     strings.TrimSpace(v.GetString("app.version")),
		HTTPPort:    strings.TrimSpace(v.GetString("http.port")),

		LogMode:      strings.TrimSpace(v.GetString("log.mode")),
		LogLevel:     strings.TrimSpace(v.GetString("log.level")),
		LogRedaction: v.GetBool("log.redaction_enabled"),
		LogHashSalt:  v.GetString("log.hash_salt"),

		Database: db.Config{
			Driver:          strings.TrimSpace(v.GetString("database.driver")),
			Host:            v.GetString("postgres.host"),
			Port:            v.GetString("postgres.port"),
			User:            v.GetString("postgres.user"),
			Password:        v.GetString("postgres.password"),
			Name:            v.GetString("postgres.name"),
			SSLMode:         v.GetString("postgres.sslmode"),
			SQLitePath:      v.GetString("sqlite.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: time.Duration(v.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
			SlowThreshold:   time.Duration(v.GetInt("database.slow_threshold_ms")) * time.Millisecond,
		},

		JWTSecretKey:   v.GetString("jwt.secret"),
		AccessTokenTTL: time.Duration(v.GetInt("jwt.ttl_seconds")) * time.Second,

		RedisAddr:     strings.TrimSpace(v.GetString("redis.addr")),
		RedisPassword: v.GetString("redis.password"),
		RedisDB:       v.GetInt("redis.db"),
		RedisTTL:      time.Duration(v.GetInt("redis.ttl_seconds")) * time.Second,

		MetricsEnabled: v.GetBool("metrics.enabled"),

		OtelEnabled:     v.GetBool("otel.enabled"),
		OtelEndpoint:    strings.TrimSpace(v.GetString("otel.endpoint")),
		OtelInsecure:    v.GetBool("otel.insecure"),
		OtelSampleRatio: v.GetFloat64("otel.sample_ratio"),

		CORSOrigins: splitList(v.GetString("cors.origins")),
	}
	cfg.OtelHeaders = observability.ParseHeaders(v.GetString("otel.headers"))
	if cfg.ServiceName == "" {
		cfg.ServiceName = "nursery"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPPort == "" {
		return errors.New("http.port is required")
	}
	switch strings.ToLower(c.Database.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return errors.New("jwt.secret is required")
	}
	if c.IsProduction() && c.JWTSecretKey == defaultJWTSecret {
		return errors.New("jwt.secret must be set in production")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("jwt.ttl_seconds must be positive")
	}
	if c.OtelSampleRatio < 0 || c.OtelSampleRatio > 1 {
		return fmt.Errorf("otel.sample_ratio must be within [0,1], got %v", c.OtelSampleRatio)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
