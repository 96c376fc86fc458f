package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
			if m.Name == "" {
				t.Errorf("migration version %d missing name", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		if _, err = db.Exec("INSERT INTO preferences (key, value) VALUES ('hypertrack-theme', 'dark')"); err != nil {
			t.Errorf("preferences table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err = db.Exec("SELECT 1 FROM preferences LIMIT 1"); err == nil {
			t.Error("preferences table should be dropped after rollback")
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("OpenStore", func(t *testing.T) {
		db, err := OpenStore(":memory:")
		if err != nil {
			t.Fatalf("OpenStore() error = %v", err)
		}
		defer db.Close()

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='preferences'").Scan(&name)
		if err != nil {
			t.Fatalf("expected preferences table: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Status", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		migrations, _ := loadMigrations()

		before, err := GetMigrationStatus(db)
		if err != nil {
			t.Fatalf("GetMigrationStatus() error = %v", err)
		}
		if before.Version != -1 || before.Applied != 0 || before.Pending != len(migrations) || before.Current() {
			t.Errorf("unexpected status before migrating: %+v", before)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		after, err := GetMigrationStatus(db)
		if err != nil {
			t.Fatalf("GetMigrationStatus() error = %v", err)
		}
		latest := migrations[len(migrations)-1].Version
		if after.Version != latest || after.Latest != latest || after.Applied != len(migrations) || !after.Current() {
			t.Errorf("unexpected status after migrating: %+v", after)
		}
	})
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		label     string
		direction string
		ok        bool
	}{
		{"0000_create_preferences_up.sql", 0, "create_preferences", "up", true},
		{"0012_add_index_down.sql", 12, "add_index", "down", true},
		{"README.md", 0, "", "", false},
		{"abcd_thing_up.sql", 0, "", "", false},
		{"0001_sideways.sql", 0, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, label, direction, ok := parseMigrationName(tt.name)
			if ok != tt.ok || version != tt.version || label != tt.label || direction != tt.direction {
				t.Errorf("parseMigrationName(%q) = (%d, %q, %q, %v)", tt.name, version, label, direction, ok)
			}
		})
	}
}
