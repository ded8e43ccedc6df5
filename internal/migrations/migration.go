package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

var (
	ErrDatabaseRequired   = errors.New("migrations: database required")
	ErrSourceRequired     = errors.New("migrations: source filesystem required")
	ErrUnsupportedDialect = errors.New("migrations: unsupported dialect")
	ErrNothingToRollback  = errors.New("migrations: nothing to roll back")
	ErrMissingDownScript  = errors.New("migrations: down script missing")
	ErrUnknownMigration   = errors.New("migrations: applied migration missing from source")
)

// Migration is one versioned schema change for a dialect.
type Migration struct {
	Version string
	Name    string
	Dialect string
	Up      string
	Down    string
}

// ID returns the ledger identifier, e.g. "0002_create_addresses".
func (m Migration) ID() string {
	if m.Name == "" {
		return m.Version
	}
	return m.Version + "_" + m.Name
}

// Load reads <dialect>/NNNN_name.up.sql files (and their optional
// .down.sql counterparts) from fsys, ordered by file name.
func Load(fsys fs.FS, dialect string) ([]Migration, error) {
	if fsys == nil {
		return nil, ErrSourceRequired
	}
	dialect = strings.TrimSpace(dialect)
	if dialect == "" {
		return nil, ErrUnsupportedDialect
	}

	entries, err := fs.ReadDir(fsys, dialect)
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	out := make([]Migration, 0, len(entries)/2)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, upSuffix) {
			continue
		}
		base := strings.TrimSuffix(name, upSuffix)
		version, label, _ := strings.Cut(base, "_")
		if version == "" {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}

		up, err := fs.ReadFile(fsys, path.Join(dialect, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dialect, base+downSuffix))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read migration %s: %w", base+downSuffix, err)
		}

		out = append(out, Migration{
			Version: version,
			Name:    label,
			Dialect: dialect,
			Up:      string(up),
			Down:    string(down),
		})
	}

	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("migration version %s declared twice", out[i].Version)
		}
	}
	return out, nil
}

// SplitStatements breaks a script into statements on ";", dropping "--"
// comment lines and blank statements.
func SplitStatements(script string) []string {
	lines := strings.Split(script, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	raw := strings.Split(strings.Join(kept, "\n"), ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
