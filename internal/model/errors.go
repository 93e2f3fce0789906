package model

import "errors"

var (
	// ErrNotFound is returned by updates that target a record that does not exist.
	// Lookups report a miss as a nil result instead.
	ErrNotFound = errors.New("not found")

	// ErrInvalidMessage is returned when a message violates the kind/content rules.
	ErrInvalidMessage = errors.New("invalid message")
)
