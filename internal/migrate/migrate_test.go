package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func tableExists(t *testing.T, dsn, name string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n == 1
}

func TestUpDownSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "migrate.db")

	if err := Up(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Up: %v", err)
	}
	for _, table := range []string{"valuation_runs", "configuration_scalars", "site_valuations", "scheduled_jobs"} {
		if !tableExists(t, dsn, table) {
			t.Errorf("expected table %s after Up", table)
		}
	}
	if err := Status(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Status: %v", err)
	}

	if err := Down(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if tableExists(t, dsn, "scheduled_jobs") {
		t.Errorf("scheduled_jobs should be dropped by Down")
	}
	if !tableExists(t, dsn, "valuation_runs") {
		t.Errorf("Down should only roll back one migration")
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if err := Up(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error")
	}
}
