// Package migrations embeds the SQL migration files for both SQL backends so
// they can be applied with the goose programmatic API at startup and in tests.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// FS holds the migrations of every dialect, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// dirs maps a goose dialect to its directory inside FS.
var dirs = map[goose.Dialect]string{
	goose.DialectPostgres: "postgres",
	goose.DialectSQLite3:  "sqlite",
}

// NewProvider returns a goose provider for the migrations of dialect.
func NewProvider(dialect goose.Dialect, db *sql.DB) (*goose.Provider, error) {
	dir, ok := dirs[dialect]
	if !ok {
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	sub, err := fs.Sub(FS, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return goose.NewProvider(dialect, db, sub)
}

// Up applies every pending migration of dialect to db.
func Up(ctx context.Context, dialect goose.Dialect, db *sql.DB) error {
	provider, err := NewProvider(dialect, db)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
