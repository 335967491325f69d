package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/observability"
	"liquidity-lab/internal/storage"
)

// keyColumn is the date key of every table, matching the upstream data
// sources' record_date convention.
const keyColumn = "record_date"

// TableStore is the SQLite implementation of storage.TableStore.
type TableStore struct {
	db                 *sql.DB
	log                zerolog.Logger
	recreateOnConflict bool
}

func sqlType(t domain.ColumnType) string {
	switch t {
	case domain.ColumnFloat:
		return "REAL"
	case domain.ColumnBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func columnType(sqlType string) domain.ColumnType {
	switch strings.ToUpper(sqlType) {
	case "REAL", "FLOAT", "DOUBLE":
		return domain.ColumnFloat
	case "INTEGER", "BOOLEAN":
		return domain.ColumnBool
	default:
		return domain.ColumnString
	}
}

func (s *TableStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// tableSchema reads the stored column set, excluding the key column.
func (s *TableStore) tableSchema(ctx context.Context, name string) (domain.Schema, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return domain.Schema{}, fmt.Errorf("table_info %s: %w", name, err)
	}
	defer rows.Close()

	var schema domain.Schema
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return domain.Schema{}, fmt.Errorf("scan table_info %s: %w", name, err)
		}
		if col == keyColumn {
			continue
		}
		schema.Columns = append(schema.Columns, domain.Column{Name: col, Type: columnType(typ)})
	}
	return schema, rows.Err()
}

// InitializeTable creates the table if absent and extends its schema with
// any new columns. A column type change fails with ErrSchemaConflict unless
// the destructive recreate fallback was enabled at Open.
func (s *TableStore) InitializeTable(ctx context.Context, name string, schema domain.Schema) error {
	if !domain.ValidIdentifier(name) {
		return fmt.Errorf("table name %q: %w", name, storage.ErrInvalidInput)
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, storage.ErrInvalidInput)
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return s.createTable(ctx, name, schema)
	}

	stored, err := s.tableSchema(ctx, name)
	if err != nil {
		return err
	}

	var added []domain.Column
	for _, incoming := range schema.Columns {
		existing, found := stored.Column(incoming.Name)
		if !found {
			added = append(added, incoming)
			continue
		}
		if existing.Type != incoming.Type {
			if s.recreateOnConflict {
				s.log.Warn().
					Str("table", name).
					Str("column", incoming.Name).
					Str("stored_type", existing.Type.String()).
					Str("incoming_type", incoming.Type.String()).
					Msg("irreconcilable schema conflict, recreating table: existing rows will be lost")
				if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", name)); err != nil {
					return fmt.Errorf("drop table %s: %w", name, err)
				}
				return s.createTable(ctx, name, schema)
			}
			return fmt.Errorf("table %s column %s: stored %s, incoming %s: %w",
				name, incoming.Name, existing.Type, incoming.Type, storage.ErrSchemaConflict)
		}
	}

	for _, col := range added {
		stmt := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q %s", name, col.Name, sqlType(col.Type))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", name, col.Name, err)
		}
		s.log.Debug().Str("table", name).Str("column", col.Name).Msg("schema extended")
	}
	return nil
}

func (s *TableStore) createTable(ctx context.Context, name string, schema domain.Schema) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %q (%q TEXT PRIMARY KEY", name, keyColumn)
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, ", %q %s", col.Name, sqlType(col.Type))
	}
	b.WriteString(")")
	if _, err := s.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	s.log.Debug().Str("table", name).Int("columns", len(schema.Columns)).Msg("table created")
	return nil
}

// Upsert replaces matching rows by key date inside one transaction.
func (s *TableStore) Upsert(ctx context.Context, name string, rows []domain.Row) (err error) {
	defer observe("upsert", time.Now(), &err)
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
	schema, err := s.tableSchema(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert %s: %w", name, err)
	}
	defer tx.Rollback()

	delStmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("DELETE FROM %q WHERE %q = ?", name, keyColumn))
	if err != nil {
		return fmt.Errorf("prepare delete %s: %w", name, err)
	}
	defer delStmt.Close()

	cols := make([]string, 0, len(schema.Columns)+1)
	cols = append(cols, fmt.Sprintf("%q", keyColumn))
	placeholders := []string{"?"}
	for _, col := range schema.Columns {
		cols = append(cols, fmt.Sprintf("%q", col.Name))
		placeholders = append(placeholders, "?")
	}
	insStmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		name, strings.Join(cols, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer insStmt.Close()

	for _, row := range rows {
		if _, err := delStmt.ExecContext(ctx, row.Date.String()); err != nil {
			return fmt.Errorf("delete %s key %s: %w", name, row.Date, err)
		}
		args := make([]any, 0, len(schema.Columns)+1)
		args = append(args, row.Date.String())
		for _, col := range schema.Columns {
			args = append(args, bindValue(row.Get(col.Name)))
		}
		if _, err := insStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s key %s: %w", name, row.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s: %w", name, err)
	}
	return nil
}

func bindValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindFloat:
		return v.F
	case domain.KindBool:
		if v.B {
			return int64(1)
		}
		return int64(0)
	case domain.KindString:
		return v.S
	default:
		return nil
	}
}

// Query returns matching rows ordered by key date ascending. A missing
// table yields an empty result.
func (s *TableStore) Query(ctx context.Context, name string, q domain.Query) (_ []domain.Row, err error) {
	defer observe("query", time.Now(), &err)
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	schema, err := s.tableSchema(ctx, name)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %q", keyColumn)
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, ", %q", col.Name)
	}
	fmt.Fprintf(&b, " FROM %q", name)
	var args []any
	var conds []string
	if q.From != nil {
		conds = append(conds, fmt.Sprintf("%q >= ?", keyColumn))
		args = append(args, q.From.String())
	}
	if q.To != nil {
		conds = append(conds, fmt.Sprintf("%q <= ?", keyColumn))
		args = append(args, q.To.String())
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %q ASC", keyColumn)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	var result []domain.Row
	for rows.Next() {
		row, err := scanRow(rows, schema)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanRow(rows *sql.Rows, schema domain.Schema) (domain.Row, error) {
	var key string
	dest := make([]any, 0, len(schema.Columns)+1)
	dest = append(dest, &key)
	holders := make([]any, len(schema.Columns))
	for i, col := range schema.Columns {
		switch col.Type {
		case domain.ColumnFloat:
			holders[i] = &sql.NullFloat64{}
		case domain.ColumnBool:
			holders[i] = &sql.NullInt64{}
		default:
			holders[i] = &sql.NullString{}
		}
		dest = append(dest, holders[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.Row{}, err
	}

	date, err := domain.ParseDate(key)
	if err != nil {
		return domain.Row{}, err
	}
	row := domain.NewRow(date)
	for i, col := range schema.Columns {
		switch h := holders[i].(type) {
		case *sql.NullFloat64:
			if h.Valid {
				row.Set(col.Name, domain.Float(h.Float64))
			} else {
				row.Set(col.Name, domain.Null())
			}
		case *sql.NullInt64:
			if h.Valid {
				row.Set(col.Name, domain.Bool(h.Int64 != 0))
			} else {
				row.Set(col.Name, domain.Null())
			}
		case *sql.NullString:
			if h.Valid {
				row.Set(col.Name, domain.String(h.String))
			} else {
				row.Set(col.Name, domain.Null())
			}
		}
	}
	return row, nil
}

// LastKey returns the maximum key date, false when the table is absent or
// empty.
func (s *TableStore) LastKey(ctx context.Context, name string) (domain.Date, bool, error) {
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return domain.Date{}, false, err
	}
	if !exists {
		return domain.Date{}, false, nil
	}

	var max sql.NullString
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(%q) FROM %q", keyColumn, name)).Scan(&max)
	if err != nil {
		return domain.Date{}, false, fmt.Errorf("last key %s: %w", name, err)
	}
	if !max.Valid {
		return domain.Date{}, false, nil
	}
	date, err := domain.ParseDate(max.String)
	if err != nil {
		return domain.Date{}, false, err
	}
	return date, true, nil
}

// TableNames lists user tables in lexical order.
func (s *TableStore) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database file and releases the lock.
func (s *TableStore) Close() error {
	return s.db.Close()
}

func observe(operation string, start time.Time, err *error) {
	observability.RecordStoreQuery("sqlite", operation, time.Since(start).Seconds(), *err)
}

var _ storage.TableStore = (*TableStore)(nil)
