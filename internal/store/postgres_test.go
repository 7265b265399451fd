package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "001_a.sql" || filepath.Base(got[1]) != "002_b.sql" {
		t.Fatalf("unexpected files: %v", got)
	}
}

func TestMigrationFilesMissingDir(t *testing.T) {
	if _, err := migrationFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestRepoMigrationsPresent(t *testing.T) {
	got, err := migrationFiles("../../db/migrations")
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no migrations found")
	}
}

func TestPageLimit(t *testing.T) {
	cases := map[int]int{0: defaultPageSize, -3: defaultPageSize, 5: 5, maxPageSize: maxPageSize, maxPageSize + 1: defaultPageSize}
	for in, want := range cases {
		if got := pageLimit(in); got != want {
			t.Fatalf("pageLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
