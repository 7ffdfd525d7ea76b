package db

import (
	"testing"

	"github.com/luminex/nursery-backend/internal/platform/logger"
)

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"":                                "nursery.db?_foreign_keys=1",
		"dev.db":                          "dev.db?_foreign_keys=1",
		"file:x?mode=memory&cache=shared": "file:x?mode=memory&cache=shared&_foreign_keys=1",
		"file:y?_foreign_keys=0":          "file:y?_foreign_keys=0",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Fatalf("SQLiteDSN(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestNewServiceRejectsUnknownDriver(t *testing.T) {
	if _, err := NewService(Config{Driver: "oracle"}, logger.Nop()); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestSQLiteMigrate(t *testing.T) {
	svc, err := NewService(Config{Driver: DriverSQLite, SQLitePath: "file:dbtest?mode=memory&cache=shared", Silent: true}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable("batches") || !svc.DB().Migrator().HasTable("stage_history") {
		t.Fatalf("expected nursery tables after migration")
	}
}
