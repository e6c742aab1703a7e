// Package migrations exposes the embedded api_sessions schema, one
// filesystem per SQL dialect.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	apiclient "github.com/goliatone/go-apiclient"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	rootPath = "data/sql/migrations"
)

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Filesystem returns the migrations for dialect. Postgres files live at the
// root, sqlite files in the sqlite subdirectory.
func Filesystem(dialect string) (fs.FS, error) {
	path := rootPath
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		path += "/sqlite"
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	fsys, err := fs.Sub(apiclient.GetMigrationsFS(), path)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
	}
	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", dialect, path)
	}
	return fsys, nil
}

// RegisterDriver hands register the filesystem for driver's dialect and
// returns that dialect.
func RegisterDriver(driver string, register func(fs.FS)) (string, error) {
	if register == nil {
		return "", fmt.Errorf("migrations: register function is required")
	}
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return "", err
	}
	fsys, err := Filesystem(dialect)
	if err != nil {
		return "", err
	}
	register(fsys)
	return dialect, nil
}
