package repository

import "errors"

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")
