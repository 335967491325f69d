package domain

import (
	"fmt"
	"regexp"
	"sort"
)

// ColumnType is the declared type of a table column for its lifetime.
type ColumnType int

const (
	ColumnFloat ColumnType = iota
	ColumnBool
	ColumnString
)

// String returns the type name used in logs and error messages.
func (t ColumnType) String() string {
	switch t {
	case ColumnFloat:
		return "float"
	case ColumnBool:
		return "bool"
	case ColumnString:
		return "string"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column is one named, typed field of a table schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema describes a named table: a unique date key plus typed value columns.
// Column growth is append-only; a column never changes type.
type Schema struct {
	Columns []Column
}

// Column returns the declared column and whether it exists.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or
// column identifier across all storage backends.
func ValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// Validate checks column names and uniqueness.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if !ValidIdentifier(c.Name) {
			return fmt.Errorf("invalid column name %q", c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Row is one date-keyed record of a named table. Cells absent from the map
// are missing, same as cells explicitly set to Null.
type Row struct {
	Date  Date
	Cells map[string]Value
}

// NewRow builds an empty row for the given date.
func NewRow(date Date) Row {
	return Row{Date: date, Cells: make(map[string]Value)}
}

// Set assigns a cell value.
func (r Row) Set(column string, v Value) {
	r.Cells[column] = v
}

// Get returns the cell value, Null if the column is absent.
func (r Row) Get(column string) Value {
	if v, ok := r.Cells[column]; ok {
		return v
	}
	return Null()
}

// Float returns the numeric cell value and whether one is present.
func (r Row) Float(column string) (float64, bool) {
	return r.Get(column).AsFloat()
}

// Bool returns the boolean cell value, false if missing.
func (r Row) Bool(column string) bool {
	b, _ := r.Get(column).AsBool()
	return b
}

// InferSchema derives the column set of a row batch: each column takes the
// type of its first non-null cell. Columns that are null in every row are
// omitted (their type cannot be known yet).
func InferSchema(rows []Row) Schema {
	types := make(map[string]ColumnType)
	order := make([]string, 0)
	for _, row := range rows {
		for name, v := range row.Cells {
			if v.IsNull() {
				continue
			}
			if _, seen := types[name]; seen {
				continue
			}
			switch v.Kind {
			case KindFloat:
				types[name] = ColumnFloat
			case KindBool:
				types[name] = ColumnBool
			case KindString:
				types[name] = ColumnString
			}
			order = append(order, name)
		}
	}
	sort.Strings(order)
	cols := make([]Column, 0, len(order))
	for _, name := range order {
		cols = append(cols, Column{Name: name, Type: types[name]})
	}
	return Schema{Columns: cols}
}

// Query filters a table read. The zero value selects every row.
type Query struct {
	From *Date // inclusive lower bound on the key
	To   *Date // inclusive upper bound on the key
}

// Matches reports whether a key date satisfies the query bounds.
func (q Query) Matches(d Date) bool {
	if q.From != nil && d.Before(*q.From) {
		return false
	}
	if q.To != nil && d.After(*q.To) {
		return false
	}
	return true
}

// SortRows orders rows by key date ascending, in place.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

// ImputedColumn returns the companion provenance column name for a field.
func ImputedColumn(field string) string {
	return field + "_imputed"
}
