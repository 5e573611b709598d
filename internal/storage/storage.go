// Package storage classifies DATABASE_URL values and opens the SQLite backend
// shared by the session and memory stores.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Backend names a record store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Classify maps a database URL onto a backend and the DSN its driver expects.
func Classify(databaseURL string) (Backend, string, error) {
	u := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(u)
	switch {
	case u == "":
		return BackendMemory, "", nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres, u, nil
	case strings.HasPrefix(lower, "sqlite://"):
		path := u[len("sqlite://"):]
		if path == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", u)
		}
		return BackendSQLite, path, nil
	case strings.HasPrefix(lower, "file:"):
		return BackendSQLite, u, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme in %q", u)
	}
}

// OpenSQLite opens a pure-Go SQLite database with WAL and a busy timeout.
// A single connection is kept so concurrent writers queue instead of failing
// with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA foreign_keys=ON;`,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return db, nil
}
