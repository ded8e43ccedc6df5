package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
)

const defaultPingTimeout = 5 * time.Second

var (
	ErrDriverRequired    = errors.New("storage: driver is required")
	ErrDSNRequired       = errors.New("storage: dsn is required")
	ErrDriverUnsupported = errors.New("storage: driver is not supported")
)

// Options configures a bun database connection.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	Debug           bool
	Logger          interfaces.Logger
}

// Open connects to PostgreSQL (lib/pq) or SQLite (mattn/go-sqlite3), wraps
// the pool in a bun.DB for the matching dialect and verifies it with a ping.
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		return nil, ErrDriverRequired
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, ErrDSNRequired
	}
	logger := logging.Ensure(opts.Logger)

	var (
		sqlDriver string
		db        *bun.DB
	)
	switch driver {
	case "postgres", "postgresql", "pg":
		sqlDriver = "postgres"
	case "sqlite", "sqlite3":
		sqlDriver = "sqlite3"
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnsupported, opts.Driver)
	}

	pool, err := sql.Open(sqlDriver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sqlDriver, err)
	}
	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", sqlDriver, err)
	}

	if sqlDriver == "postgres" {
		db = bun.NewDB(pool, pgdialect.New())
	} else {
		db = bun.NewDB(pool, sqlitedialect.New())
	}
	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	logger.Info("storage.connected", "driver", sqlDriver, "debug", opts.Debug)
	return db, nil
}
