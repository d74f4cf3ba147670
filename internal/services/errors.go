package services

import "errors"

var (
	// ErrInvalidPayload marks input that is missing ids or carries malformed values.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNotFound is returned when a referenced record does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrSelfAction is returned when an actor would notify themselves.
	ErrSelfAction = errors.New("actor is the recipient")
)
