package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ollama", func() {
	var (
		upstream *httptest.Server
		received ollamaRequest
		lines    []string
		status   int
	)

	BeforeEach(func() {
		received = ollamaRequest{}
		status = http.StatusOK
		lines = []string{
			`{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}`,
			``,
			`not json`,
			`{"model":"llama3.2","message":{"role":"assistant","content":"lo\n"},"done":false}`,
			`{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true}`,
		}

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				w.WriteHeader(status)
			case "/api/chat":
				defer GinkgoRecover()
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

				w.Header().Set("Content-Type", "application/x-ndjson")
				w.WriteHeader(status)
				for _, line := range lines {
					fmt.Fprintln(w, line)
					w.(http.Flusher).Flush()
				}
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	})

	AfterEach(func() {
		upstream.Close()
	})

	newOllama := func() *Ollama {
		o, err := NewOllama(OllamaConfig{Upstream: upstream.URL + "/", Model: "llama3.2"})
		Expect(err).NotTo(HaveOccurred())
		return o
	}

	drain := func(s Stream) ([]string, error) {
		defer s.Close()
		var out []string
		for {
			tok, err := s.Recv()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return out, err
			}
			out = append(out, tok)
		}
	}

	It("requires an upstream and a model", func() {
		_, err := NewOllama(OllamaConfig{Model: "m"})
		Expect(err).To(HaveOccurred())
		_, err = NewOllama(OllamaConfig{Upstream: "http://x"})
		Expect(err).To(HaveOccurred())
	})

	It("sends the history and message and yields content tokens", func() {
		history := []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		}
		s, err := newOllama().Respond(context.Background(), history, "again")
		Expect(err).NotTo(HaveOccurred())

		tokens, err := drain(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(tokens).To(Equal([]string{"Hel", "lo\n"}))

		Expect(received.Model).To(Equal("llama3.2"))
		Expect(received.Stream).To(BeTrue())
		Expect(received.Messages).To(Equal([]ollamaMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "again"},
		}))
	})

	It("fails to start on a non-200 status", func() {
		status = http.StatusNotFound
		lines = []string{`{"error":"model not found"}`}

		_, err := newOllama().Respond(context.Background(), nil, "hi")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
		Expect(err.Error()).To(ContainSubstring("model not found"))
	})

	It("surfaces an error chunk", func() {
		lines = []string{
			`{"message":{"content":"a"},"done":false}`,
			`{"error":"out of memory"}`,
		}

		s, err := newOllama().Respond(context.Background(), nil, "hi")
		Expect(err).NotTo(HaveOccurred())

		tokens, err := drain(s)
		Expect(tokens).To(Equal([]string{"a"}))
		Expect(err).To(MatchError(ContainSubstring("out of memory")))
	})

	It("treats a stream without a done chunk as broken", func() {
		lines = []string{`{"message":{"content":"a"},"done":false}`}

		s, err := newOllama().Respond(context.Background(), nil, "hi")
		Expect(err).NotTo(HaveOccurred())

		_, err = drain(s)
		Expect(err).To(MatchError(io.ErrUnexpectedEOF))
	})

	It("pings the upstream", func() {
		Expect(newOllama().Ping(context.Background())).To(Succeed())

		status = http.StatusServiceUnavailable
		Expect(newOllama().Ping(context.Background())).To(HaveOccurred())
	})
})
