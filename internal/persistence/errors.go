package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAmbiguousResult is returned when a lookup expected exactly one record but matched several.
	ErrAmbiguousResult = errors.New("persistence: ambiguous result")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrStaleVersion is returned when a compare-and-swap write observes a newer version.
	ErrStaleVersion = errors.New("persistence: stale version")
	// ErrBusy is returned when the store could not acquire its write lock in time.
	ErrBusy = errors.New("persistence: store busy")
)
