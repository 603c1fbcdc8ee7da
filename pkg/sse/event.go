// Package sse turns arbitrarily chunked bytes from a line-oriented event
// stream into discrete data frames.
//
// The pipeline is three small stages, each usable on its own:
//
//	[]byte chunks ──▶ Decoder ──▶ LineFramer ──▶ Extract ──▶ Event
//
// Parser composes the stages for push-style callers (a session loop that
// receives chunks from a channel) and Reader composes them for pull-style
// callers over an io.Reader.
//
// Only "data:" lines carry payloads. Unlike a full event-stream client, this
// package does not join multiple data lines into one event, does not strip the
// single optional space after the colon and ignores every other field. Each
// data line is its own frame and its payload is kept verbatim.
package sse

// Marker is the literal prefix of a payload-bearing line.
const Marker = "data:"

// Event is a single frame recognized in the stream.
type Event struct {
	// Data is everything after Marker on the line, verbatim. An empty Data
	// is meaningful: chat streams use it as a paragraph break and log
	// streams as a blank line.
	Data string
}
