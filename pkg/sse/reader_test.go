package sse

import (
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with data frames", func() {
			It("parses a single frame", func() {
				r := NewReader(strings.NewReader("data:hello world\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello world"))

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("returns every data line as its own frame", func() {
				r := NewReader(strings.NewReader("data:first\ndata:second\n\ndata:third\n\n"))

				for _, want := range []string{"first", "second", "third"} {
					ev, err := r.Next()
					Expect(err).NotTo(HaveOccurred())
					Expect(ev.Data).To(Equal(want))
				}

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("keeps the space after the colon", func() {
				r := NewReader(strings.NewReader("data: spaced\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal(" spaced"))
			})

			It("returns empty payloads", func() {
				r := NewReader(strings.NewReader("data:\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).NotTo(BeNil())
				Expect(ev.Data).To(BeEmpty())
			})
		})

		Context("with non-frame lines", func() {
			It("skips comments and other fields", func() {
				r := NewReader(strings.NewReader(": keep-alive\nevent: x\nretry: 3000\ndata:hello\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello"))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				r := NewReader(strings.NewReader(""))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				r := NewReader(strings.NewReader("\n\r\n\r"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("yields a frame when the stream ends without a terminator", func() {
				r := NewReader(strings.NewReader("data:unterminated"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("unterminated"))

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("reassembles frames from a source that returns one byte per read", func() {
				r := NewReader(iotest.OneByteReader(strings.NewReader("data:日本\r\ndata:語\n")))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("日本"))

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("語"))
			})

			It("returns read errors from the source", func() {
				boom := errors.New("connection reset")
				r := NewReader(iotest.ErrReader(boom))

				ev, err := r.Next()
				Expect(err).To(MatchError(boom))
				Expect(ev).To(BeNil())
			})

			It("delivers frames read before a source error", func() {
				src := iotest.TimeoutReader(strings.NewReader("data:a\n"))
				r := NewReader(src)

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("a"))

				_, err = r.Next()
				Expect(err).To(MatchError(iotest.ErrTimeout))
			})
		})
	})
})
