package repository

import "errors"

var (
	// ErrNoRowsAffected signals an update that matched no live row.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrStageMismatch signals a workflow transition attempted from a
	// pre-state that no longer holds.
	ErrStageMismatch = errors.New("workflow stage mismatch")
)
