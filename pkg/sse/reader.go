package sse

import (
	"errors"
	"io"
)

const readBufferSize = 32 * 1024

// Reader reads frames from a source io.Reader.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │ arbitrary chunks
// ▼
// ┌──────────────────┐
// │  Reader.Next()   │  Decoder ▶ LineFramer ▶ Extract
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
type Reader struct {
	src    io.Reader
	parser *Parser
	buf    []byte

	pending []Event
	eof     bool
}

// NewReader returns a Reader that parses frames from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:    src,
		parser: NewParser(),
		buf:    make([]byte, readBufferSize),
	}
}

// Next returns the next frame. It blocks until a complete frame is available.
// Next returns nil, nil when the source is exhausted; a final line without a
// terminator is still returned before that.
func (r *Reader) Next() (*Event, error) {
	for len(r.pending) == 0 {
		if r.eof {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.parser.Feed(r.buf[:n])...)
		}

		if errors.Is(err, io.EOF) {
			r.eof = true
			r.pending = append(r.pending, r.parser.Close()...)
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	ev := r.pending[0]
	r.pending = r.pending[1:]
	return &ev, nil
}
