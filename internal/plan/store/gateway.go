// Package store is the persistence gateway of the plan model: the only code that
// talks to the backing store. Records are column maps; entity mapping lives in
// the mapper package.
package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	id "arho/pkg/domain"
	"arho/pkg/platform/sentinel"
)

// Gateway is implemented by every backend.
//
// Upsert inserts when v is zero and returns the store-assigned id; otherwise it
// updates the given columns of row v and returns v. Update of a missing row and
// GetByID of a missing row return sentinel.ErrNotFound.
type Gateway interface {
	Exists(ctx context.Context, kind Kind) (bool, error)
	GetByID(ctx context.Context, kind Kind, v id.ID) (Record, error)
	Query(ctx context.Context, kind Kind, filter Filter) ([]Record, error)
	Upsert(ctx context.Context, kind Kind, record Record, v id.ID) (id.ID, error)
	Delete(ctx context.Context, kind Kind, v id.ID) error
}

// IDColumn is the key column of every table.
const IDColumn = "id"

// Record is one row. Values are string, int64, float64, bool, time.Time,
// []string or nil for NULL.
type Record map[string]any

// ID returns the row key.
func (r Record) ID() id.ID { return id.ID(r.String(IDColumn)) }

// String returns a text column, "" when NULL.
func (r Record) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Ref returns an identifier column.
func (r Record) Ref(col string) id.ID { return id.ID(r.String(col)) }

// Int returns an integer column, nil when NULL.
func (r Record) Int(col string) *int {
	switch v := r[col].(type) {
	case int64:
		n := int(v)
		return &n
	case int:
		return &v
	case float64:
		n := int(v)
		return &n
	}
	return nil
}

// Float returns a float column, nil when NULL.
func (r Record) Float(col string) *float64 {
	switch v := r[col].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

// Bool returns a boolean column, false when NULL.
func (r Record) Bool(col string) bool {
	v, _ := r[col].(bool)
	return v
}

// Time returns a time column, nil when NULL.
func (r Record) Time(col string) *time.Time {
	if v, ok := r[col].(time.Time); ok && !v.IsZero() {
		return &v
	}
	return nil
}

// List returns a list column, empty when NULL.
func (r Record) List(col string) []string {
	if v, ok := r[col].([]string); ok {
		return slices.Clone(v)
	}
	return []string{}
}

// Clone copies the record and its list values.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if l, ok := v.([]string); ok {
			v = slices.Clone(l)
		}
		out[k] = v
	}
	return out
}

// Filter selects rows whose column equals one of the listed values. Every column
// must match. A nil filter selects all rows.
type Filter map[string][]string

// Where starts a filter on one column.
func Where(col string, values ...string) Filter {
	return Filter{col: values}
}

// And narrows the filter with another column.
func (f Filter) And(col string, values ...string) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[col] = values
	return out
}

func (f Filter) columns() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (f Filter) matches(r Record) bool {
	for col, values := range f {
		if !slices.Contains(values, r.String(col)) {
			return false
		}
	}
	return true
}

func lookupTable(kind Kind) (Table, error) {
	t, ok := TableFor(kind)
	if !ok {
		return Table{}, fmt.Errorf("%s: %w", kind, sentinel.ErrUnknownKind)
	}
	return t, nil
}

// validate rejects columns the table does not have and values of the wrong type.
func validate(t Table, r Record) error {
	for col, v := range r {
		if col == IDColumn {
			continue
		}
		c, ok := t.Column(col)
		if !ok {
			return fmt.Errorf("%s: unknown column %q", t.Kind, col)
		}
		if v == nil {
			continue
		}
		if !typeMatches(c.Type, v) {
			return fmt.Errorf("%s.%s: unexpected value type %T", t.Kind, col, v)
		}
	}
	return nil
}

func validateFilter(t Table, f Filter) error {
	for col := range f {
		if col == IDColumn {
			continue
		}
		if _, ok := t.Column(col); !ok {
			return fmt.Errorf("%s: unknown filter column %q", t.Kind, col)
		}
	}
	return nil
}

func typeMatches(ct ColumnType, v any) bool {
	switch ct {
	case ColumnText:
		_, ok := v.(string)
		return ok
	case ColumnInt:
		_, ok := v.(int64)
		return ok
	case ColumnFloat:
		_, ok := v.(float64)
		return ok
	case ColumnBool:
		_, ok := v.(bool)
		return ok
	case ColumnTime:
		_, ok := v.(time.Time)
		return ok
	case ColumnList:
		_, ok := v.([]string)
		return ok
	}
	return false
}
