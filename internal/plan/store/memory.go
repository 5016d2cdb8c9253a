package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	id "arho/pkg/domain"
	"arho/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded Gateway for tests and local runs. Records are
// cloned on the way in and out so callers never share maps with the store.
type InMemory struct {
	mu     sync.RWMutex
	tables map[Kind]map[id.ID]Record
	newID  func() id.ID
}

// MemoryOption configures InMemory.
type MemoryOption func(*InMemory)

// WithIDGenerator replaces the uuid generator, mostly for deterministic tests.
func WithIDGenerator(gen func() id.ID) MemoryOption {
	return func(s *InMemory) {
		s.newID = gen
	}
}

// WithKinds limits the store to the given kinds; Exists reports false for others.
func WithKinds(kinds ...Kind) MemoryOption {
	return func(s *InMemory) {
		s.tables = make(map[Kind]map[id.ID]Record, len(kinds))
		for _, k := range kinds {
			s.tables[k] = make(map[id.ID]Record)
		}
	}
}

// NewInMemory returns an empty store holding every known kind.
func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{newID: id.NewID}
	WithKinds(Kinds()...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) table(kind Kind) (Table, map[id.ID]Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return Table{}, nil, err
	}
	rows, ok := s.tables[kind]
	if !ok {
		return Table{}, nil, fmt.Errorf("%s: %w", kind, sentinel.ErrUnknownKind)
	}
	return t, rows, nil
}

func (s *InMemory) Exists(_ context.Context, kind Kind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[kind]
	return ok, nil
}

func (s *InMemory) GetByID(_ context.Context, kind Kind, v id.ID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, rows, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	row, ok := rows[v]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *InMemory) Query(_ context.Context, kind Kind, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, rows, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	if err := validateFilter(t, filter); err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, row := range rows {
		if filter.matches(row) {
			out = append(out, row.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return compareIDs(a.ID(), b.ID()) })
	return out, nil
}

func (s *InMemory) Upsert(_ context.Context, kind Kind, record Record, v id.ID) (id.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, rows, err := s.table(kind)
	if err != nil {
		return "", err
	}
	if err := validate(t, record); err != nil {
		return "", err
	}

	if v.IsZero() {
		v = s.newID()
		row := make(Record, len(t.Columns)+1)
		for _, c := range t.Columns {
			row[c.Name] = nil
		}
		mergeInto(row, record)
		row[IDColumn] = string(v)
		rows[v] = row
		return v, nil
	}

	row, ok := rows[v]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	mergeInto(row, record)
	row[IDColumn] = string(v)
	return v, nil
}

func (s *InMemory) Delete(_ context.Context, kind Kind, v id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rows, err := s.table(kind)
	if err != nil {
		return err
	}
	if _, ok := rows[v]; !ok {
		return sentinel.ErrNotFound
	}
	delete(rows, v)
	return nil
}

// Count returns the number of rows of kind.
func (s *InMemory) Count(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[kind])
}

func mergeInto(dst, src Record) {
	for k, v := range src.Clone() {
		if k == IDColumn {
			continue
		}
		dst[k] = v
	}
}

func compareIDs(a, b id.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
