package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidID is returned when an identifier is not in the store's format.
	ErrInvalidID = errors.New("invalid identifier")
)
