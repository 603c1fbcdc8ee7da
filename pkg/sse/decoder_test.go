package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decoder", func() {
	var d *Decoder

	BeforeEach(func() {
		d = NewDecoder()
	})

	decodeAll := func(chunks ...[]byte) string {
		out := ""
		for _, c := range chunks {
			out += d.Decode(c)
		}
		return out + d.Flush()
	}

	It("decodes ASCII chunks", func() {
		Expect(d.Decode([]byte("data: hello\n"))).To(Equal("data: hello\n"))
	})

	It("reconstructs a multi-byte character split at every position", func() {
		input := []byte("héllo 世界 🎉 done")
		for i := 1; i < len(input); i++ {
			d = NewDecoder()
			Expect(decodeAll(input[:i], input[i:])).To(Equal(string(input)), "split at %d", i)
		}
	})

	It("carries the incomplete tail to the next call", func() {
		emoji := []byte("🎉")
		Expect(d.Decode(append([]byte("abc"), emoji[:2]...))).To(Equal("abc"))
		Expect(d.Pending()).To(Equal(2))
		Expect(d.Decode(emoji[2:])).To(Equal("🎉"))
		Expect(d.Pending()).To(BeZero())
	})

	It("decodes a character delivered one byte at a time", func() {
		input := []byte("xyz世")
		var chunks [][]byte
		for i := range input {
			chunks = append(chunks, input[i:i+1])
		}
		Expect(decodeAll(chunks...)).To(Equal("xyz世"))
	})

	It("replaces malformed bytes and keeps going", func() {
		Expect(decodeAll([]byte{'a', 'b', 'c', 0xff, 'd', 'e'})).To(Equal("abc�de"))
	})

	It("replaces an incomplete character left at the end of the stream", func() {
		Expect(d.Decode([]byte{'a', 'b', 'c', 0xe4, 0xb8})).To(Equal("abc"))
		Expect(d.Flush()).To(HavePrefix("�"))
		Expect(d.Pending()).To(BeZero())
	})

	It("drops a leading byte order mark, even when split", func() {
		Expect(decodeAll([]byte{0xef}, []byte{0xbb, 0xbf, 'h', 'i', '!'})).To(Equal("hi!"))
	})

	It("returns nothing for an empty chunk", func() {
		Expect(d.Decode(nil)).To(BeEmpty())
	})
})
