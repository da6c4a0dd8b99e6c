package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pricing-agent/internal/models"

	"go.uber.org/zap"
)

const DefaultMaxToolRounds = 5

var ErrEmptyReply = errors.New("model returned an empty reply")

// AgentService runs one agent turn: it lets the model call the data tools
// until it answers in text, or stuffs retrieval context into the prompt for
// models without tool support.
type AgentService struct {
	model        ChatModel
	tools        *Toolset
	rag          *RAGService
	instructions string
	maxRounds    int
	logger       *zap.Logger
}

func NewAgentService(model ChatModel, tools *Toolset, rag *RAGService, instructions string, maxRounds int, logger *zap.Logger) *AgentService {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &AgentService{
		model:        model,
		tools:        tools,
		rag:          rag,
		instructions: instructions,
		maxRounds:    maxRounds,
		logger:       logger,
	}
}

// Run produces the assistant reply for history, whose last entry is the
// user's new message.
func (s *AgentService) Run(ctx context.Context, history []models.Message) (string, error) {
	if s.model == nil {
		return "", ErrNoChatModel
	}

	messages := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, ChatMessage{Role: ChatRole(m.Role), Content: m.Content})
	}

	if !s.model.SupportsTools() {
		return s.runWithContext(ctx, history, messages)
	}

	req := &ChatRequest{
		System:   s.instructions,
		Messages: messages,
		Tools:    s.tools.Definitions(),
	}

	for round := 0; round < s.maxRounds; round++ {
		resp, err := s.model.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return extractReply(resp)
		}

		req.Messages = append(req.Messages, ChatMessage{
			Role:      ChatRoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			s.logger.Debug("Model requested tool",
				zap.String("tool", call.Name),
				zap.String("arguments", call.Arguments),
				zap.Int("round", round),
			)
			req.Messages = append(req.Messages, ChatMessage{
				Role:       ChatRoleTool,
				Content:    s.callTool(ctx, call),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	s.logger.Warn("Tool round limit reached, asking for a final answer", zap.Int("rounds", s.maxRounds))
	req.Tools = nil
	resp, err := s.model.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return extractReply(resp)
}

func (s *AgentService) runWithContext(ctx context.Context, history []models.Message, messages []ChatMessage) (string, error) {
	system := s.instructions
	if s.rag != nil {
		if query := models.LastUserMessage(history); query != "" {
			system = strings.TrimSpace(system + "\n\n" + s.rag.BuildContext(s.rag.SearchAll(ctx, query)))
		}
	}

	resp, err := s.model.Complete(ctx, &ChatRequest{System: system, Messages: messages})
	if err != nil {
		return "", err
	}
	return extractReply(resp)
}

// callTool always yields a JSON document for the model, errors included.
func (s *AgentService) callTool(ctx context.Context, call ToolCall) string {
	payload, err := s.tools.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		s.logger.Warn("Tool call rejected", zap.String("tool", call.Name), zap.Error(err))
		payload = map[string]string{"error": err.Error()}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

// extractReply prefers text content and falls back to the provider's
// structured payload rendered as JSON.
func extractReply(resp *ChatResponse) (string, error) {
	if text := strings.TrimSpace(resp.Content); text != "" {
		return text, nil
	}
	if resp.Raw != nil {
		data, err := json.Marshal(resp.Raw)
		if err == nil && len(data) > 0 && string(data) != "null" {
			return string(data), nil
		}
		return fmt.Sprint(resp.Raw), nil
	}
	return "", ErrEmptyReply
}
