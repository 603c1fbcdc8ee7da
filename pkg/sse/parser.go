package sse

import "strings"

// Extract recognizes a data line. The payload is the remainder of the line
// after Marker, unmodified. Lines without the marker are not frames and are
// reported with ok == false; callers drop them.
func Extract(line string) (Event, bool) {
	payload, ok := strings.CutPrefix(line, Marker)
	if !ok {
		return Event{}, false
	}
	return Event{Data: payload}, true
}

// Parser feeds pushed byte chunks through Decoder, LineFramer and Extract.
// A Parser holds the state of exactly one stream and is not safe for
// concurrent use.
type Parser struct {
	decoder *Decoder
	framer  LineFramer
	lines   int
}

// NewParser returns a Parser for a new stream.
func NewParser() *Parser {
	return &Parser{
		decoder: NewDecoder(),
	}
}

// Feed consumes one chunk and returns the frames it completes.
func (p *Parser) Feed(chunk []byte) []Event {
	return p.extract(p.framer.Push(p.decoder.Decode(chunk)))
}

// Close ends the stream. Bytes still carried by the decoder and an
// unterminated final line are flushed, so a last frame without a trailing
// newline is still delivered.
func (p *Parser) Close() []Event {
	events := p.extract(p.framer.Push(p.decoder.Flush()))
	if line, ok := p.framer.Flush(); ok {
		events = append(events, p.extract([]string{line})...)
	}
	return events
}

// Lines returns the number of complete lines seen so far, frames or not.
func (p *Parser) Lines() int {
	return p.lines
}

func (p *Parser) extract(lines []string) []Event {
	p.lines += len(lines)

	var events []Event
	for _, line := range lines {
		if ev, ok := Extract(line); ok {
			events = append(events, ev)
		}
	}
	return events
}
