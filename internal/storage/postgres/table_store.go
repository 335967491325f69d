package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/storage"
)

const keyColumn = "record_date"

// TableStore is the PostgreSQL implementation of storage.TableStore.
type TableStore struct {
	pool               *Pool
	log                zerolog.Logger
	recreateOnConflict bool
}

// Option configures a TableStore.
type Option func(*TableStore)

// WithLogger attaches a logger for migration and fallback events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *TableStore) { s.log = log }
}

// WithRecreateOnConflict enables the destructive schema-migration fallback.
func WithRecreateOnConflict() Option {
	return func(s *TableStore) { s.recreateOnConflict = true }
}

// NewTableStore wraps a connection pool.
func NewTableStore(pool *Pool, opts ...Option) *TableStore {
	s := &TableStore{pool: pool, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sqlType(t domain.ColumnType) string {
	switch t {
	case domain.ColumnFloat:
		return "DOUBLE PRECISION"
	case domain.ColumnBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func columnType(dataType string) domain.ColumnType {
	switch strings.ToLower(dataType) {
	case "double precision", "real", "numeric":
		return domain.ColumnFloat
	case "boolean":
		return domain.ColumnBool
	default:
		return domain.ColumnString
	}
}

func (s *TableStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
		name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *TableStore) tableSchema(ctx context.Context, name string) (domain.Schema, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name, data_type
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`, name)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("read schema %s: %w", name, err)
	}
	defer rows.Close()

	var schema domain.Schema
	for rows.Next() {
		var col, typ string
		if err := rows.Scan(&col, &typ); err != nil {
			return domain.Schema{}, fmt.Errorf("scan schema %s: %w", name, err)
		}
		if col == keyColumn {
			continue
		}
		schema.Columns = append(schema.Columns, domain.Column{Name: col, Type: columnType(typ)})
	}
	return schema, rows.Err()
}

// InitializeTable creates or extends the named table. Type conflicts fail
// with ErrSchemaConflict unless the destructive fallback is enabled.
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
				if _, err := s.pool.Exec(ctx, fmt.Sprintf("DROP TABLE %q", name)); err != nil {
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
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", name, col.Name, err)
		}
		s.log.Debug().Str("table", name).Str("column", col.Name).Msg("schema extended")
	}
	return nil
}

func (s *TableStore) createTable(ctx context.Context, name string, schema domain.Schema) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %q (%q DATE PRIMARY KEY", name, keyColumn)
	for _, col := range schema.Columns {
		fmt.Fprintf(&b, ", %q %s", col.Name, sqlType(col.Type))
	}
	b.WriteString(")")
	if _, err := s.pool.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Upsert replaces matching rows by key date in one transaction. An advisory
// transaction lock on the table name serializes concurrent writers.
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
	schema, err := s.tableSchema(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", name); err != nil {
		return fmt.Errorf("advisory lock %s: %w", name, err)
	}

	keys := make([]time.Time, len(rows))
	for i, row := range rows {
		keys[i] = row.Date.Time()
	}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %q WHERE %q = ANY($1)", name, keyColumn), keys); err != nil {
		return fmt.Errorf("delete %s keys: %w", name, err)
	}

	cols := make([]string, 0, len(schema.Columns)+1)
	cols = append(cols, fmt.Sprintf("%q", keyColumn))
	placeholders := make([]string, 0, len(schema.Columns)+1)
	placeholders = append(placeholders, "$1")
	for i, col := range schema.Columns {
		cols = append(cols, fmt.Sprintf("%q", col.Name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
	}
	insert := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	batch := &pgx.Batch{}
	for _, row := range rows {
		args := make([]any, 0, len(schema.Columns)+1)
		args = append(args, row.Date.Time())
		for _, col := range schema.Columns {
			args = append(args, bindValue(row.Get(col.Name)))
		}
		batch.Queue(insert, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s batch: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert %s: %w", name, err)
	}
	return nil
}

func bindValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindFloat:
		return v.F
	case domain.KindBool:
		return v.B
	case domain.KindString:
		return v.S
	default:
		return nil
	}
}

// Query returns matching rows ordered by key date ascending.
func (s *TableStore) Query(ctx context.Context, name string, q domain.Query) ([]domain.Row, error) {
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
		args = append(args, q.From.Time())
		conds = append(conds, fmt.Sprintf("%q >= $%d", keyColumn, len(args)))
	}
	if q.To != nil {
		args = append(args, q.To.Time())
		conds = append(conds, fmt.Sprintf("%q <= $%d", keyColumn, len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %q ASC", keyColumn)

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		if isUndefinedTableError(err) {
			return nil, nil
		}
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

func scanRow(rows pgx.Rows, schema domain.Schema) (domain.Row, error) {
	var key time.Time
	dest := make([]any, 0, len(schema.Columns)+1)
	dest = append(dest, &key)
	floats := make([]*float64, len(schema.Columns))
	bools := make([]*bool, len(schema.Columns))
	strs := make([]*string, len(schema.Columns))
	for i, col := range schema.Columns {
		switch col.Type {
		case domain.ColumnFloat:
			dest = append(dest, &floats[i])
		case domain.ColumnBool:
			dest = append(dest, &bools[i])
		default:
			dest = append(dest, &strs[i])
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.Row{}, err
	}

	row := domain.NewRow(domain.DateFromTime(key))
	for i, col := range schema.Columns {
		switch col.Type {
		case domain.ColumnFloat:
			row.Set(col.Name, domain.FloatPtr(floats[i]))
		case domain.ColumnBool:
			if bools[i] != nil {
				row.Set(col.Name, domain.Bool(*bools[i]))
			} else {
				row.Set(col.Name, domain.Null())
			}
		default:
			if strs[i] != nil {
				row.Set(col.Name, domain.String(*strs[i]))
			} else {
				row.Set(col.Name, domain.Null())
			}
		}
	}
	return row, nil
}

// LastKey returns the maximum key date, false when absent or empty.
func (s *TableStore) LastKey(ctx context.Context, name string) (domain.Date, bool, error) {
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return domain.Date{}, false, err
	}
	if !exists {
		return domain.Date{}, false, nil
	}

	var max *time.Time
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT MAX(%q) FROM %q", keyColumn, name)).Scan(&max)
	if err != nil {
		if isNotFoundError(err) {
			return domain.Date{}, false, nil
		}
		return domain.Date{}, false, fmt.Errorf("last key %s: %w", name, err)
	}
	if max == nil {
		return domain.Date{}, false, nil
	}
	return domain.DateFromTime(*max), true, nil
}

// TableNames lists tables in the current schema in lexical order.
func (s *TableStore) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name")
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

// Close closes the underlying pool.
func (s *TableStore) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.TableStore = (*TableStore)(nil)
