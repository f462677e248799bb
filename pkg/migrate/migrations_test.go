package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbhardware/shop-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestUsersMigrationContainsAggregateColumns(t *testing.T) {
	content := readMigration(t, "*_create_users_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"addresses jsonb NOT NULL DEFAULT '[]'::jsonb",
		"cart jsonb NOT NULL DEFAULT '{\"items\":[],\"totalAmount\":0}'::jsonb",
		"orders jsonb NOT NULL DEFAULT '[]'::jsonb",
		"version integer NOT NULL DEFAULT 1",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower",
		"DROP TABLE IF EXISTS users",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationContainsTables(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"price numeric(12,2) NOT NULL",
		"CHECK (price >= 0)",
		"CREATE TABLE IF NOT EXISTS categories",
		"CREATE TABLE IF NOT EXISTS colors",
		"CREATE TABLE IF NOT EXISTS materials",
		"DROP TABLE IF EXISTS products",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Wishlist Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_wishlist_index.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestParseCommand(t *testing.T) {
	for _, raw := range []string{"up", "down", "status"} {
		cmd, err := migrate.ParseCommand(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if string(cmd) != raw {
			t.Fatalf("expected %q, got %q", raw, cmd)
		}
	}
	if _, err := migrate.ParseCommand("reset"); err == nil {
		t.Fatal("expected reset to be rejected")
	}
}
