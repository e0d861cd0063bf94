package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/weft/log"
)

const (
	// OpenMarker begins a script span.
	OpenMarker = "{{"
	// CloseMarker ends a script span.
	CloseMarker = "}}"
)

// Env is the state shared by every statement of one render.
type Env interface {
	Close() error
}

// Interpreter executes statements embedded in a template.
type Interpreter interface {
	// NewEnv creates an environment whose statements write output to w.
	NewEnv(w io.Writer) (Env, error)

	// Exec parses exactly one statement of src starting at off, executes it
	// in env, and returns the offset just past the statement.
	Exec(ctx context.Context, env Env, src []byte, off int) (end int, err error)

	// SkipTrivia returns the first offset at or after off that is not
	// whitespace or comment.
	SkipTrivia(src []byte, off int) int
}

//go:generate go tool stringer --linecomment --type State --output state_string.go

// State is a state of the interleaving scanner.
type State uint8

const (
	StateLiteral     State = iota // LITERAL
	StateScript                   // SCRIPT
	StateVerifyClose              // VERIFY_CLOSE
	StateDone                     // DONE
	StateFatal                    // FATAL
)

// Stats summarizes a completed render.
type Stats struct {
	Literals     int // literal spans emitted, including empty ones
	LiteralBytes int
	Statements   int // statements executed and closed
	OutputBytes  int // bytes written by statements
}

// LogValue implements [slog.LogValuer].
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("literals", s.Literals),
		slog.Int("literal_bytes", s.LiteralBytes),
		slog.Int("statements", s.Statements),
		slog.Int("output_bytes", s.OutputBytes),
	)
}

// Renderer interleaves template text with statement output.
//
// A Renderer holds no per-render state and may be reused.
type Renderer struct {
	interp Interpreter
	logger log.Logger
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger that receives state transitions.
func WithLogger(l log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New returns a Renderer that executes spans with interp.
func New(interp Interpreter, opts ...Option) *Renderer {
	r := &Renderer{interp: interp, logger: log.Default()}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Render writes src to out, replacing every script span with the output of
// its statement. src must not include a directive line.
//
// Output written before a failure is not retracted. The output of the
// failing span itself is discarded.
func (r *Renderer) Render(ctx context.Context, src []byte, out io.Writer) error {
	_, err := r.RenderStats(ctx, src, out)

	return err
}

// RenderStats is like [Renderer.Render] and also reports what was rendered.
func (r *Renderer) RenderStats(
	ctx context.Context,
	src []byte,
	out io.Writer,
) (stats Stats, err error) {
	if r.interp == nil {
		return stats, errors.New("render: nil interpreter")
	}

	// Statement output is held until the close marker is verified.
	var staged bytes.Buffer

	env, err := r.interp.NewEnv(&staged)
	if err != nil {
		return stats, err
	}

	defer func() {
		if cerr := env.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	s := scanner{
		Renderer: r,
		ctx:      ctx,
		env:      env,
		src:      src,
		out:      out,
		staged:   &staged,
		state:    StateLiteral,
	}

	err = s.run()

	return s.stats, err
}

type scanner struct {
	*Renderer

	ctx    context.Context
	env    Env
	src    []byte
	out    io.Writer
	staged *bytes.Buffer
	stats  Stats
	err    error

	state  State
	cursor int // next unconsumed byte
	start  int // first byte of the current statement
	end    int // first byte after the current statement
}

func (s *scanner) run() error {
	for {
		switch s.state {
		case StateLiteral:
			s.literal()
		case StateScript:
			s.script()
		case StateVerifyClose:
			s.verifyClose()
		case StateDone:
			return nil
		case StateFatal:
			return s.err
		}
	}
}

func (s *scanner) enter(next State, attrs ...slog.Attr) {
	s.logger.TraceContext(s.ctx, "render transition",
		append([]slog.Attr{
			slog.String("from", s.state.String()),
			slog.String("to", next.String()),
			slog.Int("cursor", s.cursor),
		}, attrs...)...)

	s.state = next
}

func (s *scanner) fail(err error) {
	s.err = err
	s.enter(StateFatal, slog.Any("error", err))
}

func (s *scanner) emit(b []byte) bool {
	if len(b) == 0 {
		return true
	}

	if _, err := s.out.Write(b); err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrOutput, err))

		return false
	}

	return true
}

func (s *scanner) literal() {
	if err := s.ctx.Err(); err != nil {
		s.fail(err)

		return
	}

	rest := s.src[s.cursor:]
	p := bytes.Index(rest, []byte(OpenMarker))

	if p < 0 {
		s.stats.Literals++
		s.stats.LiteralBytes += len(rest)

		if s.emit(rest) {
			s.cursor = len(s.src)
			s.enter(StateDone)
		}

		return
	}

	s.stats.Literals++
	s.stats.LiteralBytes += p

	if !s.emit(rest[:p]) {
		return
	}

	s.cursor += p
	s.start = s.cursor + len(OpenMarker)
	s.enter(StateScript, slog.Int("start", s.start))
}

func (s *scanner) script() {
	s.staged.Reset()

	end, err := s.interp.Exec(s.ctx, s.env, s.src, s.start)
	if err != nil {
		s.fail(&BoundaryError{Offset: s.start, Err: err})

		return
	}

	if end <= s.start || end > len(s.src) {
		s.fail(&BoundaryError{Offset: s.start, Err: ErrNoProgress})

		return
	}

	s.end = end
	s.enter(StateVerifyClose,
		slog.Int("start", s.start),
		slog.Int("end", s.end))
}

func (s *scanner) verifyClose() {
	q := s.interp.SkipTrivia(s.src, s.end)
	q = max(s.end, min(q, len(s.src)))

	if !bytes.HasPrefix(s.src[q:], []byte(CloseMarker)) {
		s.staged.Reset()
		s.fail(newUnterminatedSpanError(s.src, q))

		return
	}

	s.stats.Statements++
	s.stats.OutputBytes += s.staged.Len()

	if !s.emit(s.staged.Bytes()) {
		return
	}

	s.staged.Reset()
	s.cursor = q + len(CloseMarker)
	s.enter(StateLiteral)
}
