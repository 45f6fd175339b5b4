package repository

import "errors"

var (
	// ErrNotFound is returned by mutating operations when no document
	// matched the given identifier.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
)
