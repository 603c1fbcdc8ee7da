package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/streamline/pkg/sse"
)

// handleLog streams live log lines, one event per line. Idle streams carry
// comment heartbeats so intermediaries keep the connection open.
func (s *Server) handleLog(c *fiber.Ctx) error {
	if s.config.Logs == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Status: "error",
			Error:  "no log source configured",
		})
	}

	ctx, cancel := context.WithCancel(s.ctx)

	lines, err := s.config.Logs.Follow(ctx)
	if err != nil {
		cancel()
		s.logger.Error("following logs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Status: "error",
			Error:  err.Error(),
		})
	}

	setStreamHeaders(c)

	pr, pw := io.Pipe()
	go s.streamLog(ctx, cancel, lines, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamLog(ctx context.Context, cancel context.CancelFunc, lines <-chan string, pw *io.PipeWriter) {
	defer cancel()
	defer pw.Close()

	s.logger.Debug("log subscriber connected")

	// Headers only reach the client with the first chunk, so send one now
	// rather than leave the subscriber waiting for the next log line.
	if err := sse.WriteComment(pw, " connected"); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.config.Heartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return

		case line, ok := <-lines:
			if !ok {
				s.logger.Warn("log source ended")
				return
			}
			err = sse.WriteEvent(pw, line)

		case <-heartbeat.C:
			err = sse.WriteComment(pw, " ping")
		}

		if err != nil {
			if !errors.Is(err, io.ErrClosedPipe) {
				s.logger.Debug("writing log stream", "error", err)
			}
			s.logger.Debug("log subscriber disconnected")
			return
		}
	}
}
