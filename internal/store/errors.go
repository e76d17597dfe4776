package store

import "errors"

var (
	// ErrNotFound is returned when a work package or status does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCycle is returned when a move would make an item its own ancestor.
	ErrCycle = errors.New("parent would create a cycle")

	// ErrHasChildren is returned when deleting an item that still has children.
	ErrHasChildren = errors.New("work package has children")

	// ErrInvalid is returned for out-of-range field values.
	ErrInvalid = errors.New("invalid value")
)
