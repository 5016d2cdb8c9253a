package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect covers the SQL differences between the supported databases.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	// In renders "col matches any of values" starting at placeholder n and
	// returns the clause with its arguments.
	In(col string, n int, values []string) (string, []any)
	ColumnType(ColumnType) string
	// TimeAsText reports whether instants are stored as RFC 3339 text.
	TimeAsText() bool
}

// Postgres works with both the pgx and lib/pq drivers.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (p Postgres) In(col string, n int, values []string) (string, []any) {
	if len(values) == 1 {
		return fmt.Sprintf("%s = %s", col, p.Placeholder(n)), []any{values[0]}
	}
	return fmt.Sprintf("%s = ANY(%s)", col, p.Placeholder(n)), []any{pq.Array(values)}
}

func (Postgres) ColumnType(t ColumnType) string {
	switch t {
	case ColumnInt:
		return "BIGINT"
	case ColumnFloat:
		return "DOUBLE PRECISION"
	case ColumnBool:
		return "BOOLEAN"
	case ColumnTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func (Postgres) TimeAsText() bool { return false }

// SQLite targets modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) In(col string, _ int, values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")), args
}

func (SQLite) ColumnType(t ColumnType) string {
	switch t {
	case ColumnInt, ColumnBool:
		return "INTEGER"
	case ColumnFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (SQLite) TimeAsText() bool { return true }

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
