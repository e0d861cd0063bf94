package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"fortio.org/safecast"

	"github.com/ardnew/weft/log"
)

// Directive is the prefix that marks the first line of a file as a
// directive rather than content.
const Directive = "#!"

// Source is a loaded template file. It is read-only and must be closed.
type Source struct {
	name    string
	view    View
	backend Backend
	origin  int
	logger  log.Logger
}

// Option configures [Open].
type Option func(config) config

type config struct {
	backend Backend
	logger  log.Logger
}

// WithBackend selects the loading backend.
func WithBackend(b Backend) Option {
	return func(c config) config {
		c.backend = b

		return c
	}
}

// WithLogger sets the logger used for trace output.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// Open loads the named file. Every failure is an [*IOError].
func Open(ctx context.Context, name string, opts ...Option) (*Source, error) {
	cfg := config{backend: DefaultBackend, logger: log.Default()}
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, &IOError{Op: "open", Path: name, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, &IOError{Op: "stat", Path: name, Err: err}
	}

	if fi.IsDir() {
		return nil, &IOError{Op: "read", Path: name, Err: ErrNotRegular}
	}

	size, err := safecast.Conv[int](fi.Size())
	if err != nil {
		return nil, &IOError{Op: "stat", Path: name, Err: err}
	}

	cfg.logger.TraceContext(ctx, "open source",
		slog.String("path", name),
		slog.Int("size", size),
		slog.String("backend", cfg.backend.String()))

	view, backend, err := load(ctx, cfg, f, size)
	if err != nil {
		return nil, err
	}

	s := &Source{
		name:    name,
		view:    view,
		backend: backend,
		logger:  cfg.logger,
	}
	s.origin = directiveLen(view.Bytes()[:view.Len()])

	if s.origin > 0 {
		cfg.logger.TraceContext(ctx, "strip directive",
			slog.String("path", name),
			slog.Int("origin", s.origin))
	}

	return s, nil
}

func load(
	ctx context.Context,
	cfg config,
	f *os.File,
	size int,
) (View, Backend, error) {
	name := f.Name()

	switch cfg.backend {
	case BackendMap:
		v, err := mapFile(f, size)
		if err != nil {
			return nil, BackendMap, &IOError{Op: "map", Path: name, Err: err}
		}

		return v, BackendMap, nil

	case BackendRead:
		v, err := readAll(f, size)
		if err != nil {
			return nil, BackendRead, &IOError{Op: "read", Path: name, Err: err}
		}

		return v, BackendRead, nil

	case BackendAuto:
		v, err := mapFile(f, size)
		if err == nil {
			return v, BackendMap, nil
		}

		cfg.logger.TraceContext(ctx, "map unavailable, reading",
			slog.String("path", name),
			slog.String("reason", err.Error()))

		cfg.backend = BackendRead

		return load(ctx, cfg, f, size)

	default:
		return nil, cfg.backend, &IOError{
			Op:   "open",
			Path: name,
			Err:  fmt.Errorf("unknown source backend %d", int(cfg.backend)),
		}
	}
}

// directiveLen returns the length of the directive line at the start of raw,
// including its newline, or 0 if raw does not start with [Directive].
func directiveLen(raw []byte) int {
	if !bytes.HasPrefix(raw, []byte(Directive)) {
		return 0
	}

	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		return i + 1
	}

	return len(raw)
}

// Name returns the path the source was opened with.
func (s *Source) Name() string { return s.name }

// Backend returns the backend that actually loaded the file.
func (s *Source) Backend() Backend { return s.backend }

// Origin returns the number of raw bytes removed from the start of the file.
func (s *Source) Origin() int { return s.origin }

// Len returns the length of the logical buffer.
func (s *Source) Len() int {
	if s.view == nil {
		return 0
	}

	return s.view.Len() - s.origin
}

// Bytes returns the logical buffer. Its capacity equals its length, so
// appending never touches the sentinel. The slice is invalid after Close.
func (s *Source) Bytes() []byte {
	if s.view == nil {
		return nil
	}

	n := s.view.Len()

	return s.view.Bytes()[s.origin:n:n]
}

// Terminated returns the logical buffer followed by the zero sentinel.
func (s *Source) Terminated() []byte {
	if s.view == nil {
		return nil
	}

	n := s.view.Len()

	return s.view.Bytes()[s.origin : n+1 : n+1]
}

// Pos is a 1-based line and column in the raw file.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Position converts an offset into the logical buffer to a position in the
// raw file, so line numbers count the directive line. Offsets outside the
// buffer are clamped.
func (s *Source) Position(off int) Pos {
	if s.view == nil {
		return Pos{Line: 1, Col: 1}
	}

	raw := s.view.Bytes()[:s.view.Len()]
	abs := min(max(s.origin+off, 0), len(raw))

	head := raw[:abs]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := abs - (bytes.LastIndexByte(head, '\n') + 1) + 1

	return Pos{Line: line, Col: col}
}

// Close releases the underlying view. It is safe to call more than once.
func (s *Source) Close() error {
	if s == nil || s.view == nil {
		return nil
	}

	v := s.view
	s.view = nil

	s.logger.Trace("close source",
		slog.String("path", s.name),
		slog.String("backend", s.backend.String()))

	if err := v.Close(); err != nil {
		return &IOError{Op: "close", Path: s.name, Err: err}
	}

	return nil
}
