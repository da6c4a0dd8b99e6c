package handlers

import (
	"errors"

	"pricing-agent/internal/dto"
	"pricing-agent/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ToolHandler exposes the agent's data tools directly, mostly for debugging
// prompts and views.
type ToolHandler struct {
	toolset *service.Toolset
	logger  *zap.Logger
}

func NewToolHandler(toolset *service.Toolset, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{
		toolset: toolset,
		logger:  logger,
	}
}

// ListTools godoc
// @Summary List agent tools
// @Tags tools
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ToolListResponse
// @Router /api/v1/tools [get]
func (h *ToolHandler) ListTools(c *fiber.Ctx) error {
	defs := h.toolset.Definitions()
	resp := dto.ToolListResponse{Tools: make([]dto.ToolDescriptor, len(defs))}
	for i, def := range defs {
		resp.Tools[i] = dto.ToolDescriptor{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		}
	}
	return c.JSON(resp)
}

// CallTool godoc
// @Summary Call an agent tool
// @Description Runs the named tool with the JSON request body as arguments and returns its payload. Tool failures are part of the payload.
// @Tags tools
// @Accept json
// @Produce json
// @Param name path string true "Tool name"
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/tools/{name} [post]
func (h *ToolHandler) CallTool(c *fiber.Ctx) error {
	name := c.Params("name")

	payload, err := h.toolset.Call(c.Context(), name, string(c.Body()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTool):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown tool",
			})
		case errors.Is(err, service.ErrInvalidToolArguments):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Tool call failed", zap.String("tool", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Tool call failed",
		})
	}

	return c.JSON(payload)
}
