package tail_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamline/pkg/clock"
	"github.com/papercomputeco/streamline/pkg/sse"
	"github.com/papercomputeco/streamline/pkg/tail"
	"github.com/papercomputeco/streamline/pkg/transport"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) AppendLine(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *lineRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type stateRecorder struct {
	mu     sync.Mutex
	states []tail.State
}

func (r *stateRecorder) Record(s tail.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) States() []tail.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tail.State(nil), r.states...)
}

var errRefused = errors.New("connection refused")

var _ = Describe("Subscriber", func() {
	var (
		clk    *clock.Fake
		lines  *lineRecorder
		states *stateRecorder
	)

	BeforeEach(func() {
		clk = clock.NewFake(time.Unix(1_700_000_000, 0))
		lines = &lineRecorder{}
		states = &stateRecorder{}
	})

	newSubscriber := func(t transport.Transport) *tail.Subscriber {
		return tail.NewSubscriber(tail.Config{
			Transport:     t,
			Request:       transport.Get("http://log.test/api/log"),
			Sink:          lines,
			RetryDelay:    3 * time.Second,
			Clock:         clk,
			OnStateChange: states.Record,
		})
	}

	run := func(s *tail.Subscriber, ctx context.Context) <-chan error {
		done := make(chan error, 1)
		go func() {
			done <- s.Run(ctx)
		}()
		return done
	}

	It("keeps retrying after every failure until closed", func() {
		var (
			mu       sync.Mutex
			attempts int
		)
		s := newSubscriber(transport.Func(func(ctx context.Context, req *transport.Request) (io.ReadCloser, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			return nil, errRefused
		}))
		done := run(s, context.Background())

		const failures = 25
		for i := 1; i <= failures; i++ {
			Eventually(clk.Waiters).Should(Equal(1))
			Expect(s.State()).To(Equal(tail.Retrying))
			Expect(s.Failures()).To(Equal(i))
			clk.Advance(2 * time.Second)
			Expect(clk.Waiters()).To(Equal(1))
			clk.Advance(time.Second)
		}

		Eventually(s.Failures).Should(Equal(failures + 1))
		Expect(states.States()).NotTo(ContainElement(tail.Closed))
		Expect(s.State()).To(BeElementOf(tail.Connecting, tail.Retrying))
		Consistently(done).ShouldNot(Receive())

		s.Close()
		Eventually(done).Should(Receive(BeNil()))
		Expect(s.State()).To(Equal(tail.Closed))
		Expect(clk.Waiters()).To(Equal(0))

		mu.Lock()
		defer mu.Unlock()
		Expect(attempts).To(Equal(failures + 1))
	})

	It("delivers every frame, blank lines included, and reconnects when the stream ends", func() {
		var (
			mu       sync.Mutex
			attempts int
		)
		s := newSubscriber(transport.Func(func(ctx context.Context, req *transport.Request) (io.ReadCloser, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts == 1 {
				return io.NopCloser(strings.NewReader(": ping\ndata:one\ndata:\ndata:two\n")), nil
			}
			return io.NopCloser(strings.NewReader("data:three\n")), nil
		}))
		done := run(s, context.Background())

		Eventually(lines.Lines).Should(Equal([]string{"one", "", "two"}))
		Eventually(clk.Waiters).Should(Equal(1))
		Expect(s.State()).To(Equal(tail.Retrying))

		clk.Advance(3 * time.Second)
		Eventually(lines.Lines).Should(Equal([]string{"one", "", "two", "three"}))
		Expect(s.Lines()).To(Equal(4))

		s.Close()
		Eventually(done).Should(Receive(BeNil()))
		Expect(states.States()).To(ContainElements(tail.Connected, tail.Retrying, tail.Closed))
	})

	It("closes a connected stream and releases the body", func() {
		pr, pw := io.Pipe()
		defer pw.Close()

		s := newSubscriber(transport.Func(func(ctx context.Context, req *transport.Request) (io.ReadCloser, error) {
			return pr, nil
		}))
		done := run(s, context.Background())

		_, _ = io.WriteString(pw, "data:live\n")
		Eventually(lines.Lines).Should(Equal([]string{"live"}))
		Expect(s.State()).To(Equal(tail.Connected))

		s.Close()
		s.Close()
		Eventually(done).Should(Receive(BeNil()))
		Expect(s.State()).To(Equal(tail.Closed))

		_, err := io.WriteString(pw, "data:late\n")
		Expect(err).To(MatchError(io.ErrClosedPipe))
	})

	It("stops on context cancellation", func() {
		s := newSubscriber(transport.Func(func(ctx context.Context, req *transport.Request) (io.ReadCloser, error) {
			return nil, errRefused
		}))

		ctx, cancel := context.WithCancel(context.Background())
		done := run(s, ctx)
		Eventually(clk.Waiters).Should(Equal(1))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(clk.Waiters()).To(Equal(0))
	})

	It("refuses to run once closed", func() {
		s := newSubscriber(transport.Func(func(ctx context.Context, req *transport.Request) (io.ReadCloser, error) {
			return nil, errRefused
		}))
		s.Close()
		Expect(s.State()).To(Equal(tail.Closed))
		Expect(s.Run(context.Background())).To(MatchError(tail.ErrClosed))
	})

	It("follows a live HTTP log stream", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, line := range []string{"booting", "ready"} {
				_ = sse.WriteEvent(w, line)
			}
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
		defer server.Close()

		s := tail.NewSubscriber(tail.Config{
			Transport: transport.NewHTTP(),
			Request:   transport.Get(server.URL),
			Sink:      lines,
		})
		done := run(s, context.Background())

		Eventually(lines.Lines).Should(Equal([]string{"booting", "ready"}))
		Expect(s.State()).To(Equal(tail.Connected))

		s.Close()
		Eventually(done).Should(Receive(BeNil()))
	})
})
