package store

import "errors"

var (
	// ErrInvalidKey is returned when a key's hash cannot be computed. Such a
	// key is never stored.
	ErrInvalidKey = errors.New("invalid key")

	ErrIteratorExhausted    = errors.New("iterator exhausted")
	ErrIllegalIteratorState = errors.New("illegal iterator state")
	ErrIndexOutOfRange      = errors.New("index out of range")
)
