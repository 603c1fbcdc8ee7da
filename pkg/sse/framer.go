package sse

// LineFramer splits decoded text into lines. LF, CR and CRLF are all accepted
// as line terminators and are removed from the emitted lines. Text after the
// last terminator is held until a later Push completes it.
type LineFramer struct {
	pending string

	// skipLF is set when a push ended on CR: an LF opening the next push
	// belongs to that CRLF and must not produce an empty line.
	skipLF bool
}

// Push appends text and returns every line it completes, in order.
func (f *LineFramer) Push(text string) []string {
	if text == "" {
		return nil
	}

	if f.skipLF {
		f.skipLF = false
		if text[0] == '\n' {
			text = text[1:]
		}
	}

	data := f.pending + text

	var lines []string
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lines = append(lines, data[start:i])
			start = i + 1

		case '\r':
			lines = append(lines, data[start:i])
			switch {
			case i+1 == len(data):
				f.skipLF = true
			case data[i+1] == '\n':
				i++
			}
			start = i + 1
		}
	}

	f.pending = data[start:]
	return lines
}

// Flush returns the unterminated tail, if any, and resets the framer.
func (f *LineFramer) Flush() (string, bool) {
	line := f.pending
	f.pending = ""
	f.skipLF = false
	return line, line != ""
}

// Buffered returns the unterminated text held for the next Push.
func (f *LineFramer) Buffered() string {
	return f.pending
}
