package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// EnsureNurseryIndexes adds the case-insensitive uniqueness rules the application checks on
// write. Expression indexes are supported by both postgres and sqlite.
func EnsureNurseryIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_batches_batch_number_lower", `CREATE UNIQUE INDEX IF NOT EXISTS idx_batches_batch_number_lower ON batches (LOWER(batch_number));`},
		{"idx_species_name_lower", `CREATE UNIQUE INDEX IF NOT EXISTS idx_species_name_lower ON species (LOWER(name));`},
		{"idx_zones_name_lower", `CREATE UNIQUE INDEX IF NOT EXISTS idx_zones_name_lower ON zones (LOWER(name));`},
		{"idx_batches_bed_status", `CREATE INDEX IF NOT EXISTS idx_batches_bed_status ON batches (bed_id, status);`},
		{"idx_measurements_batch_created", `CREATE INDEX IF NOT EXISTS idx_measurements_batch_created ON measurements (batch_id, created_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if s.driver == DriverPostgres {
		if err := s.db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return fmt.Errorf("enable uuid-ossp: %w", err)
		}
	}
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureNurseryIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
