package source

import (
	"errors"
	"io/fs"
	"log/slog"
)

var (
	// ErrMapUnusable is returned by the map backend for files whose size leaves
	// no room for the sentinel inside the last mapped page.
	ErrMapUnusable = errors.New("file size not suitable for mapping")

	// ErrMapUnsupported is returned by the map backend on platforms without
	// memory mapping.
	ErrMapUnsupported = errors.New("memory mapping not supported")

	// ErrNotRegular is returned when the named file is a directory.
	ErrNotRegular = errors.New("is a directory")
)

// IOError reports a failure to open or load a source file.
type IOError struct {
	Op   string // open, stat, map, read or close
	Path string
	Err  error
}

func (e *IOError) Error() string {
	reason := "unknown error"

	if e.Err != nil {
		reason = e.Err.Error()

		var pe *fs.PathError
		if errors.As(e.Err, &pe) && pe.Err != nil {
			reason = pe.Err.Error()
		}
	}

	return "cannot " + e.Op + " file: " + reason
}

func (e *IOError) Unwrap() error { return e.Err }

// LogValue implements [slog.LogValuer].
func (e *IOError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("op", e.Op),
		slog.String("path", e.Path),
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}
