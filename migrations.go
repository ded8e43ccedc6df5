package drydeck

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations/*/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded SQL migrations rooted at the dialect
// directories (postgres/, sqlite/).
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
