package source

import (
	"bytes"
	"io"

	"github.com/klauspost/readahead"
)

// View is a read-only window onto file contents.
type View interface {
	// Bytes returns the raw file contents followed by one zero byte.
	Bytes() []byte
	// Len returns the length of the raw contents, excluding the sentinel.
	Len() int
	// Close releases the view. Bytes must not be used afterward.
	Close() error
}

type readView struct {
	data []byte
}

// readAll loads r through an asynchronous read-ahead buffer. The size hint
// only preallocates; the result is whatever r yields.
func readAll(r io.Reader, hint int) (*readView, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	buf := bytes.NewBuffer(make([]byte, 0, hint+1))
	if _, err := buf.ReadFrom(ra); err != nil {
		return nil, err
	}

	return &readView{data: append(buf.Bytes(), 0)}, nil
}

func (v *readView) Bytes() []byte { return v.data }

func (v *readView) Len() int {
	if len(v.data) == 0 {
		return 0
	}

	return len(v.data) - 1
}

func (v *readView) Close() error {
	v.data = nil

	return nil
}
