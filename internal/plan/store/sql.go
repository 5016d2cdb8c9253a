package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	id "arho/pkg/domain"
	"arho/pkg/platform/sentinel"
	"arho/pkg/platform/tx"
)

// SQL is a Gateway over database/sql. A transaction carried in the context via
// pkg/platform/tx is used when present.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	newID   func() id.ID
}

// NewSQL wraps an open database.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect, newID: id.NewID}
}

// DB exposes the underlying handle for transaction helpers.
func (s *SQL) DB() *sql.DB { return s.db }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQL) execer(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *SQL) Exists(ctx context.Context, kind Kind) (bool, error) {
	t, ok := TableFor(kind)
	if !ok {
		return false, nil
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1 = 0", t.Kind)
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, fmt.Errorf("probe %s: %w", kind, err)
	}
	return true, nil
}

func (s *SQL) GetByID(ctx context.Context, kind Kind, v id.ID) (Record, error) {
	rows, err := s.Query(ctx, kind, Where(IDColumn, string(v)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (s *SQL) Query(ctx context.Context, kind Kind, filter Filter) ([]Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}
	if err := validateFilter(t, filter); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, IDColumn)
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}

	var (
		where []string
		args  []any
	)
	for _, col := range filter.columns() {
		values := filter[col]
		if len(values) == 0 {
			// no value can match
			return []Record{}, nil
		}
		clause, clauseArgs := s.dialect.In(col, len(args)+1, values)
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), t.Kind)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := s.scan(t, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return out, nil
}

func (s *SQL) scan(t Table, rows *sql.Rows) (Record, error) {
	var key string
	dest := make([]any, 0, len(t.Columns)+1)
	dest = append(dest, &key)
	for _, c := range t.Columns {
		dest = append(dest, s.scanTarget(c.Type))
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := Record{IDColumn: key}
	for i, c := range t.Columns {
		v, err := s.decode(c.Type, dest[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		rec[c.Name] = v
	}
	return rec, nil
}

func (s *SQL) scanTarget(ct ColumnType) any {
	switch ct {
	case ColumnInt:
		return new(sql.NullInt64)
	case ColumnFloat:
		return new(sql.NullFloat64)
	case ColumnBool:
		return new(sql.NullBool)
	case ColumnTime:
		if s.dialect.TimeAsText() {
			return new(sql.NullString)
		}
		return new(sql.NullTime)
	default:
		return new(sql.NullString)
	}
}

func (s *SQL) decode(ct ColumnType, target any) (any, error) {
	switch v := target.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64, nil
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64, nil
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool, nil
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time.UTC(), nil
		}
	case *sql.NullString:
		if !v.Valid {
			return nil, nil
		}
		switch ct {
		case ColumnTime:
			return time.Parse(time.RFC3339Nano, v.String)
		case ColumnList:
			var list []string
			if err := json.Unmarshal([]byte(v.String), &list); err != nil {
				return nil, err
			}
			if list == nil {
				list = []string{}
			}
			return list, nil
		}
		return v.String, nil
	}
	return nil, nil
}

func (s *SQL) encode(ct ColumnType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch ct {
	case ColumnTime:
		t := v.(time.Time).UTC()
		if s.dialect.TimeAsText() {
			return t.Format(time.RFC3339Nano), nil
		}
		return t, nil
	case ColumnList:
		b, err := json.Marshal(v.([]string))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func (s *SQL) Upsert(ctx context.Context, kind Kind, record Record, v id.ID) (id.ID, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return "", err
	}
	if err := validate(t, record); err != nil {
		return "", err
	}

	var (
		names []string
		args  []any
	)
	for _, c := range t.Columns {
		val, ok := record[c.Name]
		if !ok {
			continue
		}
		enc, err := s.encode(c.Type, val)
		if err != nil {
			return "", fmt.Errorf("encode %s.%s: %w", kind, c.Name, err)
		}
		names = append(names, c.Name)
		args = append(args, enc)
	}

	if v.IsZero() {
		return s.insert(ctx, t, names, args)
	}
	return v, s.update(ctx, t, v, names, args)
}

func (s *SQL) insert(ctx context.Context, t Table, names []string, args []any) (id.ID, error) {
	v := s.newID()
	names = append([]string{IDColumn}, names...)
	args = append([]any{string(v)}, args...)
	marks := make([]string, len(names))
	for i := range names {
		marks[i] = s.dialect.Placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Kind, strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", t.Kind, err)
	}
	return v, nil
}

func (s *SQL) update(ctx context.Context, t Table, v id.ID, names []string, args []any) error {
	if len(names) == 0 {
		_, err := s.GetByID(ctx, t.Kind, v)
		return err
	}
	sets := make([]string, len(names))
	for i, n := range names {
		sets[i] = fmt.Sprintf("%s = %s", n, s.dialect.Placeholder(i+1))
	}
	args = append(args, string(v))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		t.Kind, strings.Join(sets, ", "), s.dialect.Placeholder(len(args)))
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.Kind, err)
	}
	return requireRow(res)
}

func (s *SQL) Delete(ctx context.Context, kind Kind, v id.ID) error {
	t, err := lookupTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", t.Kind, s.dialect.Placeholder(1))
	res, err := s.execer(ctx).ExecContext(ctx, query, string(v))
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
