// Package server provides a development server that streams chat replies and
// live log lines in the wire format the chat and tail clients consume.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/streamline/pkg/eventstream"
	"github.com/papercomputeco/streamline/pkg/eventstream/nop"
	"github.com/papercomputeco/streamline/pkg/logger"
)

// DefaultHeartbeat is the keep-alive interval on idle log streams.
const DefaultHeartbeat = 15 * time.Second

// Config configures a Server.
type Config struct {
	// ListenAddr is the address to listen on (e.g. ":8080").
	ListenAddr string

	Responder Responder

	// Logs feeds /api/log. The route answers 500 when nil.
	Logs LogSource

	// History defaults to an empty in-memory History.
	History *History

	// Publisher receives a TurnEvent after every reply. Defaults to no-op.
	Publisher eventstream.Publisher

	// Heartbeat defaults to DefaultHeartbeat.
	Heartbeat time.Duration
}

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error"`
}

// Server is the development server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App

	// ctx parents every open stream and is cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Server.
func New(config Config, l *slog.Logger) (*Server, error) {
	if config.Responder == nil {
		return nil, errors.New("responder is required")
	}
	if config.History == nil {
		config.History = NewHistory(DefaultHistoryWindow)
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher()
	}
	if config.Heartbeat <= 0 {
		config.Heartbeat = DefaultHeartbeat
	}
	if l == nil {
		l = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: config,
		logger: l,
		app:    app,
		ctx:    ctx,
		cancel: cancel,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/api/chat", s.handleChat)
	app.Get("/api/log", s.handleLog)
	app.Get("/api/history", s.handleHistory)
	app.Delete("/api/history", s.handleDeleteHistory)

	return s, nil
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting server",
		"listen", s.config.ListenAddr,
		"responder", s.config.Responder.Name(),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting server",
		"listen", listener.Addr().String(),
		"responder", s.config.Responder.Name(),
	)

	return s.app.Listener(listener)
}

// Shutdown stops accepting connections, closes open streams and releases the
// publisher.
func (s *Server) Shutdown() error {
	s.cancel()
	return errors.Join(
		s.app.ShutdownWithTimeout(5*time.Second),
		s.config.Publisher.Close(),
	)
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// setStreamHeaders marks the response as an event stream.
func setStreamHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}
