package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/drydeck/drydeck/internal/identity"
	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Record is a row in the drydeck_migrations ledger.
type Record struct {
	bun.BaseModel `bun:"table:drydeck_migrations,alias:dm"`

	ID        uuid.UUID `bun:",pk,type:uuid"`
	Version   string    `bun:"version,notnull,unique"`
	Name      string    `bun:"name,notnull"`
	Dialect   string    `bun:"dialect,notnull"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// Status reports whether a known migration has been applied.
type Status struct {
	Migration Migration
	Applied   bool
	AppliedAt time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNow overrides the ledger clock.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDialect overrides the dialect detected from the database.
func WithDialect(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.dialect = name
		}
	}
}

// Runner applies embedded migrations for the database dialect and tracks them
// in the drydeck_migrations table.
type Runner struct {
	db      *bun.DB
	source  fs.FS
	dialect string
	logger  interfaces.Logger
	now     func() time.Time
}

// NewRunner constructs a runner reading scripts from source.
func NewRunner(db *bun.DB, source fs.FS, opts ...Option) (*Runner, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	if source == nil {
		return nil, ErrSourceRequired
	}
	r := &Runner{
		db:     db,
		source: source,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dialect == "" {
		name, err := DialectOf(db)
		if err != nil {
			return nil, err
		}
		r.dialect = name
	}
	return r, nil
}

// DialectOf maps a bun dialect onto a migrations directory name.
func DialectOf(db *bun.DB) (string, error) {
	switch db.Dialect().Name() {
	case dialect.PG:
		return DialectPostgres, nil
	case dialect.SQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, db.Dialect().Name())
	}
}

// Dialect returns the migrations directory in use.
func (r *Runner) Dialect() string {
	return r.dialect
}

func (r *Runner) ensureLedger(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create migrations ledger: %w", err)
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) (map[string]Record, error) {
	var records []Record
	if err := r.db.NewSelect().Model(&records).Where("?TableAlias.dialect = ?", r.dialect).Scan(ctx); err != nil {
		return nil, fmt.Errorf("read migrations ledger: %w", err)
	}
	out := make(map[string]Record, len(records))
	for _, record := range records {
		out[record.Version] = record
	}
	return out, nil
}

// Up applies every pending migration in order, each in its own transaction,
// and returns the ones applied.
func (r *Runner) Up(ctx context.Context) ([]Migration, error) {
	migrations, err := Load(r.source, r.dialect)
	if err != nil {
		return nil, err
	}
	if err := r.ensureLedger(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, migration := range migrations {
		if _, ok := done[migration.Version]; ok {
			continue
		}
		if err := r.apply(ctx, migration); err != nil {
			return applied, err
		}
		applied = append(applied, migration)
		r.logger.Info("migrations.applied", "dialect", r.dialect, "migration", migration.ID())
	}
	if len(applied) == 0 {
		r.logger.Debug("migrations.up_to_date", "dialect", r.dialect)
	}
	return applied, nil
}

func (r *Runner) apply(ctx context.Context, migration Migration) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i, stmt := range SplitStatements(migration.Up) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply %s [%d]: %w", migration.ID(), i+1, err)
			}
		}
		record := &Record{
			ID:        identity.MigrationUUID(r.dialect, migration.ID()),
			Version:   migration.Version,
			Name:      migration.Name,
			Dialect:   r.dialect,
			AppliedAt: r.now().UTC(),
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("record %s: %w", migration.ID(), err)
		}
		return nil
	})
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) (*Migration, error) {
	migrations, err := Load(r.source, r.dialect)
	if err != nil {
		return nil, err
	}
	if err := r.ensureLedger(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var latest *Record
	for version, record := range done {
		if latest == nil || version > latest.Version {
			rec := record
			latest = &rec
		}
	}
	if latest == nil {
		return nil, ErrNothingToRollback
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == latest.Version {
			target = &migrations[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMigration, latest.Version)
	}
	statements := SplitStatements(target.Down)
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingDownScript, target.ID())
	}

	err = r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("revert %s [%d]: %w", target.ID(), i+1, err)
			}
		}
		_, err := tx.NewDelete().Model((*Record)(nil)).
			Where("version = ?", target.Version).
			Where("dialect = ?", r.dialect).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("migrations.reverted", "dialect", r.dialect, "migration", target.ID())
	return target, nil
}

// Status lists every known migration with its applied state.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	migrations, err := Load(r.source, r.dialect)
	if err != nil {
		return nil, err
	}
	if err := r.ensureLedger(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(migrations))
	for _, migration := range migrations {
		status := Status{Migration: migration}
		if record, ok := done[migration.Version]; ok {
			status.Applied = true
			status.AppliedAt = record.AppliedAt
		}
		out = append(out, status)
	}
	return out, nil
}
