package source

//go:generate go tool stringer --linecomment --type Backend --output backend_string.go

import (
	"fmt"
	"iter"
	"strings"
)

// Backend selects how a file is brought into memory.
type Backend int

const (
	BackendAuto Backend = iota // auto
	BackendMap                 // map
	BackendRead                // read
)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = BackendAuto

// Backends returns an iterator over the names of all backends.
func Backends() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, b := range []Backend{BackendAuto, BackendMap, BackendRead} {
			if !yield(b.String()) {
				return
			}
		}
	}
}

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "map", "mmap":
		return BackendMap, nil
	case "read":
		return BackendRead, nil
	default:
		return DefaultBackend, fmt.Errorf("unknown source backend %q", s)
	}
}
