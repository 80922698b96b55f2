package storage

import "errors"

// ErrNotFound is returned when no stored analysis matches a competition.
var ErrNotFound = errors.New("analysis not found")

// ErrReadOnly is returned when a raw query would modify the database.
var ErrReadOnly = errors.New("read-only query")
