package migrations_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/drydeck/drydeck/internal/migrations"
	"github.com/drydeck/drydeck/pkg/testsupport"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS drydeck_migrations",
		"DROP TABLE IF EXISTS widgets",
		"DROP TABLE IF EXISTS gadgets",
		"DROP TABLE IF EXISTS addresses",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("reset: %v", err)
		}
	}
	return db
}

func sampleSource() fstest.MapFS {
	return fstest.MapFS{
		"sqlite/0001_widgets.up.sql": {Data: []byte(`
-- widgets table
CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE INDEX idx_widgets_name ON widgets (name);
`)},
		"sqlite/0001_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"sqlite/0002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"sqlite/0002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
		"sqlite/README.md":             {Data: []byte("ignored")},
		"postgres/0001_other.up.sql":   {Data: []byte("SELECT 1;")},
	}
}

func tableExists(t *testing.T, db *bun.DB, name string) bool {
	t.Helper()
	var count int
	err := db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(context.Background(), &count)
	if err != nil {
		t.Fatalf("inspect %s: %v", name, err)
	}
	return count > 0
}

func TestLoadOrdersAndPairsScripts(t *testing.T) {
	loaded, err := migrations.Load(sampleSource(), migrations.DialectSQLite)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(loaded))
	}
	if loaded[0].ID() != "0001_widgets" || loaded[1].ID() != "0002_gadgets" {
		t.Fatalf("unexpected order %s, %s", loaded[0].ID(), loaded[1].ID())
	}
	if loaded[0].Down == "" {
		t.Fatalf("expected down script to be paired")
	}
}

func TestSplitStatementsDropsComments(t *testing.T) {
	stmts := migrations.SplitStatements("-- heading\nCREATE TABLE a (id INT);\n\n  ;CREATE TABLE b (id INT)")
	if len(stmts) != 2 || stmts[0] != "CREATE TABLE a (id INT)" || stmts[1] != "CREATE TABLE b (id INT)" {
		t.Fatalf("unexpected statements %q", stmts)
	}
}

func TestRunnerUpDownStatus(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	runner, err := migrations.NewRunner(db, sampleSource(), migrations.WithNow(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if runner.Dialect() != migrations.DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %s", runner.Dialect())
	}

	applied, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied migrations, got %d", len(applied))
	}
	if !tableExists(t, db, "widgets") || !tableExists(t, db, "gadgets") {
		t.Fatalf("expected migrated tables to exist")
	}

	again, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("second up: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no pending migrations, got %d", len(again))
	}

	reverted, err := runner.Down(ctx)
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if reverted.ID() != "0002_gadgets" {
		t.Fatalf("expected latest migration to be reverted, got %s", reverted.ID())
	}
	if tableExists(t, db, "gadgets") {
		t.Fatalf("expected gadgets table to be dropped")
	}

	statuses, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(statuses) != 2 || !statuses[0].Applied || statuses[1].Applied {
		t.Fatalf("unexpected status %+v", statuses)
	}
	if !statuses[0].AppliedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected applied_at %v", statuses[0].AppliedAt)
	}

	if _, err := runner.Down(ctx); err != nil {
		t.Fatalf("second down: %v", err)
	}
	if _, err := runner.Down(ctx); !errors.Is(err, migrations.ErrNothingToRollback) {
		t.Fatalf("expected ErrNothingToRollback, got %v", err)
	}
}

func TestRunnerRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	source := fstest.MapFS{
		"sqlite/0001_widgets.up.sql": {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY); CREATE TABLE widgets (id INTEGER);")},
	}
	runner, err := migrations.NewRunner(db, source)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, err := runner.Up(ctx); err == nil {
		t.Fatalf("expected failing migration to return error")
	}
	if tableExists(t, db, "widgets") {
		t.Fatalf("expected failed migration to be rolled back")
	}
	statuses, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if statuses[0].Applied {
		t.Fatalf("failed migration must not be recorded")
	}
}

func TestRunnerAppliesBundledSQLiteScripts(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	runner, err := migrations.NewRunner(db, os.DirFS("../../data/sql/migrations"))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, err := runner.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}
	if !tableExists(t, db, "addresses") {
		t.Fatalf("expected addresses table")
	}

	insert := "INSERT INTO addresses (id, address_alphanumeric, streetname, location, stateabbrev, zip) VALUES (?, '1', 'Main', 'Springfield', 'IL', '62701')"
	if _, err := db.ExecContext(ctx, insert, "a"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "b"); err == nil {
		t.Fatalf("expected unique_address violation")
	}
}

func TestNewRunnerRequiresInputs(t *testing.T) {
	if _, err := migrations.NewRunner(nil, sampleSource()); !errors.Is(err, migrations.ErrDatabaseRequired) {
		t.Fatalf("expected ErrDatabaseRequired, got %v", err)
	}
	if _, err := migrations.NewRunner(newSQLiteDB(t), nil); !errors.Is(err, migrations.ErrSourceRequired) {
		t.Fatalf("expected ErrSourceRequired, got %v", err)
	}
}
