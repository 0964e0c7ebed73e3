package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMigrationsSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_cards.sql", "CREATE TABLE b (id int);")
	writeFile(t, dir, "001_core.sql", "CREATE TABLE a (id int);")
	writeFile(t, dir, "010_audit.sql", "CREATE TABLE c (id int);")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "no_prefix.sql", "ignored")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	for i, w := range wantVersions {
		if migrations[i].Version != w {
			t.Errorf("migration[%d].Version = %d, want %d", i, migrations[i].Version, w)
		}
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("first migration = %s, want 001_core.sql", migrations[0].Name)
	}
	if migrations[0].SQL == "" {
		t.Error("migration SQL not loaded")
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "missing"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
