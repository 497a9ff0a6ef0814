package port

import "errors"

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// e.g. registering an email that already exists.
	ErrConflict = errors.New("already exists")
)
