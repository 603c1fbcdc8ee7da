package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamline/pkg/logger"
)

func decodeJSON(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text records at Info by default", func() {
		l := logger.New(logger.WithWriter(buf))
		l.Info("stream opened", "url", "http://localhost:8080/api/log")
		l.Debug("hidden")

		Expect(buf.String()).To(ContainSubstring("stream opened"))
		Expect(buf.String()).To(ContainSubstring("url=http://localhost:8080/api/log"))
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("includes Debug records with WithDebug", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithDebug(true))
		l.Debug("session ended", "state", "completed")

		Expect(buf.String()).To(ContainSubstring("session ended"))
	})

	It("writes one JSON object per record", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true))
		l.Info("reply finished", "frames", 3)

		parsed := decodeJSON(buf)
		Expect(parsed["msg"]).To(Equal("reply finished"))
		Expect(parsed["frames"]).To(BeNumerically("==", 3))
	})

	It("tags records with the component", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithComponent("tail"))
		l.Warn("log stream lost, reconnecting")

		parsed := decodeJSON(buf)
		Expect(parsed["component"]).To(Equal("tail"))
		Expect(parsed["level"]).To(Equal("WARN"))
	})

	It("adds the source location with WithSource", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("located")

		Expect(decodeJSON(buf)).To(HaveKey("source"))
	})

	Context("pretty", func() {
		It("writes the message", func() {
			l := logger.New(logger.WithWriter(buf), logger.WithPretty(true))
			l.Info("listening", "addr", ":8080")

			Expect(buf.String()).To(ContainSubstring("listening"))
			Expect(buf.String()).To(ContainSubstring(":8080"))
		})

		It("filters Debug unless enabled", func() {
			l := logger.New(logger.WithWriter(buf), logger.WithPretty(true))
			l.Debug("quiet")

			Expect(buf.String()).To(BeEmpty())
		})
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("survives derived loggers", func() {
		l := logger.Nop()
		Expect(func() {
			l.With("session", "abc").WithGroup("g").Error("msg")
		}).NotTo(Panic())
	})
})

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

var _ = Describe("Multi", func() {
	It("hands every record to each logger", func() {
		var console, file bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)

		l.Info("starting server", "addr", ":8080")

		Expect(console.String()).To(ContainSubstring("starting server"))
		Expect(decodeJSON(&file)["msg"]).To(Equal("starting server"))
	})

	It("respects each logger's own level", func() {
		var verbose, quiet bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)),
			logger.New(logger.WithWriter(&quiet)),
		)

		l.Debug("detail")

		Expect(verbose.String()).To(ContainSubstring("detail"))
		Expect(quiet.String()).To(BeEmpty())
	})

	It("keeps writing to the others when one handler fails", func() {
		var buf bytes.Buffer
		l := logger.Multi(
			slog.New(failingHandler{}),
			logger.New(logger.WithWriter(&buf)),
		)

		l.Info("still here")
		Expect(buf.String()).To(ContainSubstring("still here"))

		err := l.Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "direct", 0))
		Expect(err).To(MatchError("disk full"))
	})

	It("skips nil loggers", func() {
		var buf bytes.Buffer
		l := logger.Multi(nil, logger.New(logger.WithWriter(&buf)))

		l.Info("ok")
		Expect(buf.String()).To(ContainSubstring("ok"))
	})

	It("carries attributes and groups to every logger", func() {
		var a, b bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&b), logger.WithJSON(true)),
		)

		l.With("session", "s1").WithGroup("request").Info("opened", "method", "GET")

		for _, buf := range []*bytes.Buffer{&a, &b} {
			parsed := decodeJSON(buf)
			Expect(parsed["session"]).To(Equal("s1"))
			Expect(parsed["request"]).To(HaveKeyWithValue("method", "GET"))
		}
	})
})
