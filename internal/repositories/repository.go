package repositories

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by Update when the stored version no
	// longer matches the one the caller read.
	ErrVersionConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned when a write would break a unique index.
	ErrDuplicate = errors.New("record already exists")
)
