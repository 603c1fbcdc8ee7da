package sse

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder converts a sequence of byte chunks into UTF-8 text. A multi-byte
// character split across chunks is carried over and completed by the next
// call. Malformed input is replaced with U+FFFD and never stops decoding.
// A leading byte order mark is dropped.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	buf   []byte
}

// NewDecoder returns a Decoder ready for the first chunk of a stream.
func NewDecoder() *Decoder {
	return &Decoder{
		t: unicode.UTF8BOM.NewDecoder(),
	}
}

// Decode returns the text decodable from the carried bytes plus chunk.
// Trailing bytes of an incomplete character are kept for the next call.
func (d *Decoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush decodes whatever is still carried, substituting U+FFFD for an
// incomplete trailing character, and resets the Decoder for a new stream.
func (d *Decoder) Flush() string {
	s := d.decode(nil, true)
	d.t.Reset()
	return s
}

// Pending reports how many bytes are carried to the next call.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}

	if len(src) == 0 && !atEOF {
		return ""
	}

	// An invalid byte expands to the three byte replacement character.
	if need := 3*len(src) + utf8.UTFMax; cap(d.buf) < need {
		d.buf = make([]byte, need)
	}

	var out strings.Builder
	for {
		dst := d.buf[:cap(d.buf)]
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case errors.Is(err, transform.ErrShortDst):
			d.buf = make([]byte, 2*cap(d.buf))
			continue
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append([]byte(nil), src...)
		}

		return out.String()
	}
}
