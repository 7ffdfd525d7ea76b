package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func postgresDialector(cfg Config) (gorm.Dialector, error) {
	host := orDefault(cfg.Host, "localhost")
	port := orDefault(cfg.Port, "5432")
	user := orDefault(cfg.User, "postgres")
	name := orDefault(cfg.Name, "nursery")
	sslMode := orDefault(cfg.SSLMode, "disable")
	if strings.ContainsAny(name, "/?") {
		return nil, fmt.Errorf("invalid postgres database name %q", name)
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user,
		cfg.Password,
		host,
		port,
		name,
		sslMode,
	)
	return postgres.Open(dsn), nil
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
