package sse

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	Describe("Encode", func() {
		It("writes one data line per line and ends the event", func() {
			Expect(string(Encode("a\nb"))).To(Equal("data:a\ndata:b\n\n"))
		})

		It("writes an empty payload for empty data", func() {
			Expect(string(Encode(""))).To(Equal("data:\n\n"))
		})

		It("splits on CR and CRLF as well as LF", func() {
			Expect(string(Encode("a\rb"))).To(Equal("data:a\ndata:b\n\n"))
			Expect(string(Encode("a\r\nb"))).To(Equal("data:a\ndata:b\n\n"))
			Expect(string(Encode("a\r\rb"))).To(Equal("data:a\ndata:\ndata:b\n\n"))
		})

		It("keeps text after a carriage return readable", func() {
			var buf bytes.Buffer
			Expect(WriteEvent(&buf, "progress 10%\rprogress 50%")).To(Succeed())
			Expect(WriteEvent(&buf, "done\r\n")).To(Succeed())

			r := NewReader(&buf)
			var got []string
			for {
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				if ev == nil {
					break
				}
				got = append(got, ev.Data)
			}
			Expect(got).To(Equal([]string{"progress 10%", "progress 50%", "done", ""}))
		})

		It("round-trips log lines through the Reader", func() {
			var buf bytes.Buffer
			for _, line := range []string{"first", "", "  indented"} {
				Expect(WriteEvent(&buf, line)).To(Succeed())
			}
			Expect(WriteComment(&buf, " ping")).To(Succeed())

			r := NewReader(&buf)
			var got []string
			for {
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				if ev == nil {
					break
				}
				got = append(got, ev.Data)
			}
			Expect(got).To(Equal([]string{"first", "", "  indented"}))
		})
	})

	Describe("EncodeText", func() {
		It("sends newlines as empty payloads", func() {
			Expect(string(EncodeText("a\n\nb"))).To(Equal("data:a\ndata:\ndata:\ndata:b\n\n"))
		})

		It("treats CR and CRLF as one break each", func() {
			Expect(string(EncodeText("a\rb"))).To(Equal("data:a\ndata:\ndata:b\n\n"))
			Expect(string(EncodeText("a\r\nb"))).To(Equal("data:a\ndata:\ndata:b\n\n"))

			for _, text := range []string{"a\rb", "a\r\nb"} {
				p := NewParser()
				events := append(p.Feed(EncodeText(text)), p.Close()...)
				Expect(events).To(Equal([]Event{{Data: "a"}, {Data: ""}, {Data: "b"}}))
			}
		})

		It("reproduces the message under the chat accumulation rule", func() {
			fragments := []string{"Hello", " world", ".\n\n", "Second", " paragraph\n", "- item"}

			var buf bytes.Buffer
			for _, f := range fragments {
				Expect(WriteText(&buf, f)).To(Succeed())
			}

			p := NewParser()
			events := append(p.Feed(buf.Bytes()), p.Close()...)

			var msg strings.Builder
			for i, ev := range events {
				switch {
				case i == 0:
					msg.WriteString(ev.Data)
				case ev.Data == "":
					msg.WriteByte('\n')
				default:
					msg.WriteString(ev.Data)
				}
			}
			Expect(msg.String()).To(Equal(strings.Join(fragments, "")))
		})
	})
})
