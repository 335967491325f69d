// Package memory provides an in-memory TableStore used by tests and demo
// pipeline runs. Semantics match the file-backed stores exactly.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/storage"
)

type table struct {
	schema domain.Schema
	rows   map[string]domain.Row // keyed by ISO date
}

// TableStore is an in-memory implementation of storage.TableStore.
type TableStore struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// NewTableStore creates an empty in-memory table store.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]*table)}
}

// InitializeTable creates or extends the named table.
func (s *TableStore) InitializeTable(_ context.Context, name string, schema domain.Schema) error {
	if !domain.ValidIdentifier(name) {
		return fmt.Errorf("table name %q: %w", name, storage.ErrInvalidInput)
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(name, schema)
}

func (s *TableStore) initLocked(name string, schema domain.Schema) error {
	t, ok := s.tables[name]
	if !ok {
		cols := make([]domain.Column, len(schema.Columns))
		copy(cols, schema.Columns)
		s.tables[name] = &table{
			schema: domain.Schema{Columns: cols},
			rows:   make(map[string]domain.Row),
		}
		return nil
	}

	// Detect type conflicts before mutating anything, so a failed migration
	// leaves the table untouched.
	var added []domain.Column
	for _, incoming := range schema.Columns {
		existing, found := t.schema.Column(incoming.Name)
		if !found {
			added = append(added, incoming)
			continue
		}
		if existing.Type != incoming.Type {
			return fmt.Errorf("table %s column %s: stored %s, incoming %s: %w",
				name, incoming.Name, existing.Type, incoming.Type, storage.ErrSchemaConflict)
		}
	}
	t.schema.Columns = append(t.schema.Columns, added...)
	return nil
}

// Upsert replaces whole rows by key date, extending the schema as needed.
func (s *TableStore) Upsert(ctx context.Context, name string, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.Date.IsZero() {
			return fmt.Errorf("table %s: %w", name, storage.ErrNilKey)
		}
	}

	if err := s.InitializeTable(ctx, name, domain.InferSchema(rows)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[name]
	for _, row := range rows {
		t.rows[row.Date.String()] = copyRow(row)
	}
	return nil
}

// Query returns matching rows ordered by date ascending.
func (s *TableStore) Query(_ context.Context, name string, q domain.Query) ([]domain.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, nil
	}

	result := make([]domain.Row, 0, len(t.rows))
	for _, row := range t.rows {
		if q.Matches(row.Date) {
			result = append(result, copyRow(row))
		}
	}
	domain.SortRows(result)
	return result, nil
}

// LastKey returns the maximum date present, false when absent or empty.
func (s *TableStore) LastKey(_ context.Context, name string) (domain.Date, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok || len(t.rows) == 0 {
		return domain.Date{}, false, nil
	}
	var last domain.Date
	for _, row := range t.rows {
		if last.IsZero() || row.Date.After(last) {
			last = row.Date
		}
	}
	return last, true, nil
}

// TableNames lists existing tables in lexical order.
func (s *TableStore) TableNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the in-memory store.
func (s *TableStore) Close() error { return nil }

func copyRow(row domain.Row) domain.Row {
	out := domain.NewRow(row.Date)
	for k, v := range row.Cells {
		out.Cells[k] = v
	}
	return out
}

var _ storage.TableStore = (*TableStore)(nil)
