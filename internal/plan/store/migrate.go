package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DDL renders CREATE TABLE statements for every kind.
func DDL(d Dialect) []string {
	stmts := make([]string, 0, len(Tables))
	for _, kind := range Kinds() {
		t := Tables[kind]
		defs := make([]string, 0, len(t.Columns)+1)
		defs = append(defs, "id TEXT PRIMARY KEY")
		for _, c := range t.Columns {
			defs = append(defs, fmt.Sprintf("%s %s", c.Name, d.ColumnType(c.Type)))
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Kind, strings.Join(defs, ", ")))
	}
	return stmts
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range DDL(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
