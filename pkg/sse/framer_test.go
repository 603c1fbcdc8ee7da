package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LineFramer", func() {
	var f *LineFramer

	BeforeEach(func() {
		f = &LineFramer{}
	})

	Context("with each terminator form", func() {
		It("splits on LF", func() {
			Expect(f.Push("a\nb\n")).To(Equal([]string{"a", "b"}))
		})

		It("splits on CR", func() {
			Expect(f.Push("a\rb\r")).To(Equal([]string{"a", "b"}))
		})

		It("splits on CRLF without an empty line in between", func() {
			Expect(f.Push("a\r\nb\r\n")).To(Equal([]string{"a", "b"}))
		})

		It("accepts mixed terminators in one push", func() {
			Expect(f.Push("a\nb\rc\r\nd\n")).To(Equal([]string{"a", "b", "c", "d"}))
		})

		It("keeps genuinely empty lines", func() {
			Expect(f.Push("a\n\nb\n")).To(Equal([]string{"a", "", "b"}))
		})
	})

	Context("across pushes", func() {
		It("retains the unterminated tail", func() {
			Expect(f.Push("data: Hel")).To(BeEmpty())
			Expect(f.Buffered()).To(Equal("data: Hel"))
			Expect(f.Push("lo\ndata:")).To(Equal([]string{"data: Hello"}))
			Expect(f.Buffered()).To(Equal("data:"))
		})

		It("does not emit an empty line for a CRLF split between pushes", func() {
			Expect(f.Push("a\r")).To(Equal([]string{"a"}))
			Expect(f.Push("\nb\n")).To(Equal([]string{"b"}))
		})

		It("still honors a CR followed by a real empty line", func() {
			Expect(f.Push("a\r")).To(Equal([]string{"a"}))
			Expect(f.Push("\n\nb\n")).To(Equal([]string{"", "b"}))
		})

		It("never re-emits a line", func() {
			Expect(f.Push("one\ntw")).To(Equal([]string{"one"}))
			Expect(f.Push("o\n")).To(Equal([]string{"two"}))
			Expect(f.Push("")).To(BeEmpty())
		})
	})

	Describe("Flush", func() {
		It("returns the residual tail once", func() {
			f.Push("a\ntail")
			line, ok := f.Flush()
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal("tail"))

			_, ok = f.Flush()
			Expect(ok).To(BeFalse())
		})

		It("reports nothing when the stream ended on a terminator", func() {
			f.Push("a\n")
			_, ok := f.Flush()
			Expect(ok).To(BeFalse())
		})
	})
})
