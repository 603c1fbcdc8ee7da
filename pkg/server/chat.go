package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/streamline/pkg/eventstream"
	"github.com/papercomputeco/streamline/pkg/sse"
)

// modeler is implemented by responders backed by a named model.
type modeler interface {
	Model() string
}

// handleChat streams the reply to ?message= for conversation ?id=. Each
// content token is written as one event whose newlines become empty
// payloads, and the response ends when the reply does.
func (s *Server) handleChat(c *fiber.Ctx) error {
	// Query values are only valid during the handler; the reply outlives it.
	id := strings.Clone(c.Query("id"))
	message := strings.Clone(c.Query("message"))
	if id == "" || message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Status: "error",
			Error:  "missing id or message parameter",
		})
	}

	s.logger.Info("starting chat", "id", id, "message", message)

	// Derive from the server context instead of c.Context() because fasthttp
	// recycles its RequestCtx after the handler returns, while the reply keeps
	// streaming from a separate goroutine.
	ctx, cancel := context.WithCancel(s.ctx)

	history := s.config.History.Window(id)
	stream, err := s.config.Responder.Respond(ctx, history, message)
	if err != nil {
		cancel()
		s.logger.Error("starting reply", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Status: "error",
			Error:  err.Error(),
		})
	}

	s.config.History.Append(id, Message{Role: "user", Content: message})

	setStreamHeaders(c)

	// io.Pipe + SetBodyStream gives per-chunk flushing: pw.Write blocks until
	// fasthttp has read the chunk and written it to the socket. A client
	// disconnect closes the pipe reader, failing the next write.
	pr, pw := io.Pipe()
	go s.streamReply(ctx, cancel, id, message, stream, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamReply(ctx context.Context, cancel context.CancelFunc, id, message string, stream Stream, pw *io.PipeWriter) {
	defer cancel()
	defer stream.Close()

	started := time.Now()
	outcome := eventstream.OutcomeCompleted
	var (
		reply   strings.Builder
		tokens  int
		failure error
	)

	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			outcome, failure = eventstream.OutcomeFailed, err
			s.logger.Error("receiving reply", "id", id, "error", err)
			break
		}
		if tok == "" {
			continue
		}

		if err := sse.WriteText(pw, tok); err != nil {
			outcome = eventstream.OutcomeCancelled
			s.logger.Debug("client went away", "id", id, "error", err)
			break
		}
		reply.WriteString(tok)
		tokens++
	}

	// Record the reply before ending the response, so a follow-up message
	// sent as soon as the stream ends already sees it.
	if reply.Len() > 0 {
		s.config.History.Append(id, Message{Role: "assistant", Content: reply.String()})
	}

	if failure != nil {
		// Aborting the body makes the client see a broken stream rather than
		// a complete reply.
		pw.CloseWithError(failure)
	} else {
		pw.Close()
	}

	s.logger.Info("finished chat",
		"id", id,
		"outcome", outcome,
		"tokens", tokens,
		"duration", time.Since(started),
	)

	s.publishTurn(id, message, reply.String(), outcome, failure, tokens, started)
}

func (s *Server) publishTurn(id, message, reply, outcome string, failure error, tokens int, started time.Time) {
	source := eventstream.EventSource{Responder: s.config.Responder.Name()}
	if m, ok := s.config.Responder.(modeler); ok {
		source.Model = m.Model()
	}

	turn := eventstream.TurnMeta{
		ConversationID: id,
		Message:        message,
		Reply:          reply,
		Outcome:        outcome,
		Tokens:         tokens,
		StartedAt:      started.UTC(),
		CompletedAt:    time.Now().UTC(),
	}
	if failure != nil {
		turn.Error = failure.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.config.Publisher.PublishTurn(ctx, eventstream.NewTurnEvent(source, turn)); err != nil {
		s.logger.Warn("publishing turn event", "id", id, "error", err)
	}
}
