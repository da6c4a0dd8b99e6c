package handlers

import (
	"errors"
	"strings"

	"pricing-agent/internal/dto"
	"pricing-agent/internal/service"
	"pricing-agent/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Send a message to the pricing agent
// @Description Appends the message to the session history and returns the agent's reply. An empty session_id starts a new session.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat message"
// @Security Bearer
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	username, err := getUsername(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result, err := h.chatService.Turn(c.Context(), sessionKey(username, req.SessionID), req.Message)
	if err != nil {
		h.logger.Error("Chat turn failed",
			zap.String("username", username),
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(dto.ChatResponse{
		SessionID: req.SessionID,
		Reply:     result.Reply,
		Failed:    result.Failed,
	})
}

// History godoc
// @Summary Get session history
// @Description Returns the retained messages of a session, oldest first
// @Tags chat
// @Produce json
// @Param session_id path string true "Session ID"
// @Security Bearer
// @Success 200 {object} dto.HistoryResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/chat/{session_id}/history [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	username, err := getUsername(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	sessionID := c.Params("session_id")
	messages, err := h.chatService.History(c.Context(), sessionKey(username, sessionID))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		h.logger.Error("Failed to load history", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	resp := dto.HistoryResponse{
		SessionID: sessionID,
		Messages:  make([]dto.MessageResponse, len(messages)),
	}
	for i, m := range messages {
		resp.Messages[i] = dto.MessageResponse{Role: string(m.Role), Content: m.Content}
	}

	return c.JSON(resp)
}

// EndSession godoc
// @Summary End a session
// @Description Discards the session's history
// @Tags chat
// @Param session_id path string true "Session ID"
// @Security Bearer
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /api/v1/chat/{session_id} [delete]
func (h *ChatHandler) EndSession(c *fiber.Ctx) error {
	username, err := getUsername(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.chatService.EndSession(c.Context(), sessionKey(username, c.Params("session_id"))); err != nil {
		h.logger.Error("Failed to end session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end session",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func getUsername(c *fiber.Ctx) (string, error) {
	username, ok := c.Locals(middleware.LocalUsername).(string)
	if !ok || username == "" {
		return "", fiber.ErrUnauthorized
	}
	return username, nil
}

// sessionKey keeps sessions of different users apart.
func sessionKey(username, sessionID string) string {
	return username + "/" + sessionID
}
