package storage

import "errors"

// Storage errors. Read paths never return these for "no data" conditions;
// missing tables and empty results are ordinary empty values.
var (
	// ErrSchemaConflict is returned when an incoming schema requires a column
	// to change type. The table is left unmodified unless the store was
	// explicitly configured with the destructive recreate fallback.
	ErrSchemaConflict = errors.New("schema conflict: column type change is not allowed")

	// ErrNilKey is returned when a write carries a row without a key date.
	ErrNilKey = errors.New("nil key: every upserted row must have a date")

	// ErrInvalidInput is returned when input validation fails, e.g. an
	// unsafe table or column identifier.
	ErrInvalidInput = errors.New("invalid input")
)
