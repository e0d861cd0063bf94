package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

var errStub = errors.New("stub failure")

// stubEnv records bindings across spans.
type stubEnv struct {
	w      io.Writer
	vars   map[string]string
	closed int
	err    error
}

func (e *stubEnv) Close() error {
	e.closed++

	return e.err
}

// stubInterp executes one word per statement:
//
//	k=v     binds k
//	$k      writes the value bound to k
//	fail    returns errStub
//	stall   reports no progress
//	overrun reports an end past the buffer
//	other   writes itself
type stubInterp struct {
	env      *stubEnv
	closeErr error
	calls    []int
}

func (s *stubInterp) NewEnv(w io.Writer) (Env, error) {
	s.env = &stubEnv{w: w, vars: map[string]string{}, err: s.closeErr}

	return s.env, nil
}

func (s *stubInterp) Exec(
	_ context.Context,
	env Env,
	src []byte,
	off int,
) (int, error) {
	s.calls = append(s.calls, off)

	e := env.(*stubEnv)
	pos := s.SkipTrivia(src, off)
	end := pos

	for end < len(src) && !strings.ContainsRune(" \t\n}", rune(src[end])) {
		end++
	}

	word := string(src[pos:end])

	switch {
	case word == "":
		return off, errors.New("empty statement")
	case word == "fail":
		return off, errStub
	case word == "stall":
		return off, nil
	case word == "overrun":
		return len(src) + 1, nil
	case strings.HasPrefix(word, "$"):
		_, err := io.WriteString(e.w, e.vars[word[1:]])

		return end, err
	case strings.Contains(word, "="):
		k, v, _ := strings.Cut(word, "=")
		e.vars[k] = v

		return end, nil
	case word == "s":
		return end, nil
	default:
		_, err := io.WriteString(e.w, word)

		return end, err
	}
}

func (*stubInterp) SkipTrivia(src []byte, off int) int {
	for off < len(src) && bytes.IndexByte([]byte(" \t\n"), src[off]) >= 0 {
		off++
	}

	return off
}

type failWriter struct {
	n   int // successful writes allowed
	buf bytes.Buffer
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrShortWrite
	}

	w.n--

	return w.buf.Write(p)
}
