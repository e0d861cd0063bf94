package repl

import "errors"

// Sentinel errors.
var (
	ErrNotTerminal = errors.New("interactive mode requires a terminal")
	ErrOutOfBounds = errors.New("index out of range")
	ErrTrailing    = errors.New("unexpected input after statement")
)
