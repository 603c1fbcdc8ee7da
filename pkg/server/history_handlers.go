package server

import (
	"github.com/gofiber/fiber/v2"
)

// HistoryListResponse is the body of GET /api/history.
type HistoryListResponse struct {
	IDs []string `json:"ids"`
}

// HistoryResponse is the body of GET /api/history?id=.
type HistoryResponse struct {
	Conversation Conversation `json:"conversation"`
}

// StatusResponse is the body of a successful DELETE /api/history.
type StatusResponse struct {
	Status string `json:"status"`
}

// handleHistory lists conversation ids, or returns one conversation when
// ?id= is given.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.JSON(HistoryListResponse{IDs: s.config.History.IDs()})
	}

	conv, ok := s.config.History.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "conversation not found"})
	}
	return c.JSON(HistoryResponse{Conversation: conv})
}

func (s *Server) handleDeleteHistory(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "missing id parameter"})
	}

	s.config.History.Delete(id)
	return c.JSON(StatusResponse{Status: "success"})
}
