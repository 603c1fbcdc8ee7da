package sse

import (
	"io"
	"strings"
)

// lineBreaks folds the terminators LineFramer accepts into "\n".
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// splitLines splits s on CRLF, CR and LF.
func splitLines(s string) []string {
	return strings.Split(lineBreaks.Replace(s), "\n")
}

// Encode frames data as one event: every line of data becomes its own
// "data:" line, written without a space after the colon so that leading
// whitespace in the payload survives, and the event ends with a blank line.
// An empty data encodes a single empty payload, which log streams read as a
// blank line.
func Encode(data string) []byte {
	var b strings.Builder
	for _, line := range splitLines(data) {
		writeData(&b, line)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// EncodeText frames a fragment of a growing chat message. Chat readers
// append non-empty payloads verbatim and read an empty payload as a single
// newline, so each line break in text (CRLF, CR or LF) is sent as an empty
// payload and the text between breaks as ordinary payloads. Concatenating the fragments on the
// reading side reproduces text with breaks normalized to "\n", provided the
// message does not open with one.
func EncodeText(text string) []byte {
	var b strings.Builder
	for i, part := range splitLines(text) {
		if i > 0 {
			writeData(&b, "")
		}
		if part != "" {
			writeData(&b, part)
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// WriteEvent writes Encode(data) to w.
func WriteEvent(w io.Writer, data string) error {
	_, err := w.Write(Encode(data))
	return err
}

// WriteText writes EncodeText(text) to w.
func WriteText(w io.Writer, text string) error {
	_, err := w.Write(EncodeText(text))
	return err
}

// WriteComment writes a comment line. Comment lines carry no payload and are
// dropped by Extract; servers use them as keep-alives.
func WriteComment(w io.Writer, text string) error {
	_, err := io.WriteString(w, ":"+text+"\n\n")
	return err
}

func writeData(b *strings.Builder, payload string) {
	b.WriteString(Marker)
	b.WriteString(payload)
	b.WriteByte('\n')
}
