package tailcmder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/papercomputeco/streamline/pkg/sse"
)

var _ = Describe("NewTailCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewTailCmd()
		Expect(cmd.Use).To(Equal("tail"))
	})

	It("registers flags from the shared registry", func() {
		cmd := NewTailCmd()

		target := cmd.Flags().Lookup("target")
		Expect(target).NotTo(BeNil())
		Expect(target.DefValue).To(Equal("http://localhost:8080/api/log"))

		capacity := cmd.Flags().Lookup("capacity")
		Expect(capacity).NotTo(BeNil())
		Expect(capacity.DefValue).To(Equal("1000"))

		delay := cmd.Flags().Lookup("reconnect-delay")
		Expect(delay).NotTo(BeNil())
		Expect(delay.DefValue).To(Equal("3s"))

		Expect(cmd.Flags().Lookup("plain")).NotTo(BeNil())
	})
})

var _ = Describe("Tail command execution", func() {
	var (
		server      *httptest.Server
		connections atomic.Int32
	)

	BeforeEach(func() {
		connections.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := connections.Add(1)

			w.Header().Set("Content-Type", "text/event-stream")
			_ = sse.WriteEvent(w, "connection")
			if n == 1 {
				// The first stream ends early to force a reconnect.
				_ = sse.WriteEvent(w, "first stream")
				return
			}
			_ = sse.WriteEvent(w, "")
			_ = sse.WriteEvent(w, "second stream")
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("writes lines in plain mode and reconnects when the stream ends", func() {
		cmd := NewTailCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .streamline/ config directory")
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

		out := gbytes.NewBuffer()
		cmd.SetOut(out)
		cmd.SetErr(gbytes.NewBuffer())
		cmd.SetArgs([]string{
			"--config-dir", GinkgoT().TempDir(),
			"--target", server.URL,
			"--reconnect-delay", "10ms",
			"--plain",
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- cmd.ExecuteContext(ctx)
		}()

		Eventually(out).Should(gbytes.Say("connection\nfirst stream\n"))
		Eventually(out).Should(gbytes.Say("connection\n\nsecond stream\n"))
		Expect(connections.Load()).To(BeNumerically(">=", 2))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
