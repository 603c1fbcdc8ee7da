package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamline/pkg/chat"
)

var _ = Describe("Accumulator", func() {
	var acc *chat.Accumulator

	BeforeEach(func() {
		acc = &chat.Accumulator{}
	})

	It("has no message before the first frame", func() {
		Expect(acc.Started()).To(BeFalse())
		Expect(acc.Frames()).To(Equal(0))
	})

	It("inserts exactly one newline for an empty payload", func() {
		acc.Add("foo")
		acc.Add("")
		Expect(acc.Add("bar")).To(Equal("foo\nbar"))
		Expect(acc.Frames()).To(Equal(3))
	})

	It("appends payloads verbatim without delimiters", func() {
		acc.Add(" Hel")
		acc.Add("lo")
		Expect(acc.Add(" world")).To(Equal(" Hello world"))
	})

	It("uses an empty first payload as the initial content", func() {
		Expect(acc.Add("")).To(Equal(""))
		Expect(acc.Started()).To(BeTrue())
		Expect(acc.Add("x")).To(Equal("x"))
	})

	It("turns consecutive empty payloads into consecutive newlines", func() {
		acc.Add("a")
		acc.Add("")
		acc.Add("")
		Expect(acc.Add("b")).To(Equal("a\n\nb"))
		Expect(acc.Message()).To(Equal("a\n\nb"))
	})
})
