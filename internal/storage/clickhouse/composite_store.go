package clickhouse

import (
	"context"
	"fmt"
	"time"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/storage"
)

const compositeTable = "liquidity_composite_index"

// CompositeStore mirrors the composite table into ClickHouse.
type CompositeStore struct {
	conn *Conn
}

// NewCompositeStore wraps a connection. The schema must already exist
// (see storage/migrations).
func NewCompositeStore(conn *Conn) *CompositeStore {
	return &CompositeStore{conn: conn}
}

// ReplaceAll truncates the mirror and inserts the full recomputed table,
// matching the composite's supersede-on-rerun lifecycle.
func (s *CompositeStore) ReplaceAll(ctx context.Context, rows []domain.CompositeRow) error {
	if err := s.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", compositeTable)); err != nil {
		return fmt.Errorf("truncate %s: %w", compositeTable, err)
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(
		`INSERT INTO %s (record_date, fiscal_index, monetary_index, plumbing_index,
		 composite, composite_ma5, composite_ma20, regime)`, compositeTable))
	if err != nil {
		return fmt.Errorf("prepare batch %s: %w", compositeTable, err)
	}

	for _, row := range rows {
		var regime *string
		if row.Regime != "" {
			r := string(row.Regime)
			regime = &r
		}
		if err := batch.Append(
			row.Date.Time(),
			row.FiscalIndex,
			row.MonetaryIndex,
			row.PlumbingIndex,
			row.Composite,
			row.CompositeMA5,
			row.CompositeMA20,
			regime,
		); err != nil {
			return fmt.Errorf("append %s row %s: %w", compositeTable, row.Date, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch %s: %w", compositeTable, err)
	}
	return nil
}

// GetAll returns the mirrored rows ordered by date ascending.
func (s *CompositeStore) GetAll(ctx context.Context) ([]domain.CompositeRow, error) {
	rows, err := s.conn.Query(ctx, fmt.Sprintf(
		`SELECT record_date, fiscal_index, monetary_index, plumbing_index,
		 composite, composite_ma5, composite_ma20, regime
		 FROM %s ORDER BY record_date ASC`, compositeTable))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", compositeTable, err)
	}
	defer rows.Close()

	var result []domain.CompositeRow
	for rows.Next() {
		var (
			date   time.Time
			row    domain.CompositeRow
			regime *string
		)
		if err := rows.Scan(
			&date,
			&row.FiscalIndex,
			&row.MonetaryIndex,
			&row.PlumbingIndex,
			&row.Composite,
			&row.CompositeMA5,
			&row.CompositeMA20,
			&regime,
		); err != nil {
			return nil, fmt.Errorf("scan %s: %w", compositeTable, err)
		}
		row.Date = domain.DateFromTime(date)
		if regime != nil {
			row.Regime = domain.Regime(*regime)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

var _ storage.CompositeMirror = (*CompositeStore)(nil)
