package storage

import (
	"context"

	"liquidity-lab/internal/domain"
)

// TableStore provides date-keyed, schema-evolving named tables. All pipeline
// components read and write exclusively through this contract; one store
// handle is constructed per run and owns the backing resource for its
// lifetime (open, batch of upserts, close).
type TableStore interface {
	// InitializeTable creates the table if absent. If the table exists and
	// the incoming schema carries new columns, the table is extended without
	// touching existing rows; columns missing from the incoming schema are
	// left alone. A column type change returns ErrSchemaConflict and leaves
	// the table unmodified.
	InitializeTable(ctx context.Context, name string, schema domain.Schema) error

	// Upsert replaces any existing row with a matching key date by the
	// incoming row (delete-then-insert, not a partial-column patch), creating
	// the table and extending its schema as needed. Applying the same batch
	// twice yields identical stored state. Each batch is atomic: readers
	// never observe a partial write. Returns ErrNilKey for a zero-date row.
	Upsert(ctx context.Context, name string, rows []domain.Row) error

	// Query returns matching rows ordered by key ascending. A missing table
	// or an empty match yields an empty slice, not an error.
	Query(ctx context.Context, name string, q domain.Query) ([]domain.Row, error)

	// LastKey returns the maximum key date and true, or false when the table
	// is absent or empty. Never errors on emptiness.
	LastKey(ctx context.Context, name string) (domain.Date, bool, error)

	// TableNames lists existing tables in lexical order.
	TableNames(ctx context.Context) ([]string, error)

	// Close releases the backing resource.
	Close() error
}

// CompositeMirror receives a full copy of the computed composite table for
// external analytical consumers. Mirroring decorates a run; it is not part
// of the store-of-record contract.
type CompositeMirror interface {
	// ReplaceAll supersedes the mirrored composite table with rows.
	ReplaceAll(ctx context.Context, rows []domain.CompositeRow) error

	// GetAll returns the mirrored composite rows ordered by date ascending.
	GetAll(ctx context.Context) ([]domain.CompositeRow, error)
}
