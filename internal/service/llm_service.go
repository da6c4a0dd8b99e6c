package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricing-agent/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	ErrNoChoices          = errors.New("no response from LLM")
	ErrNoChatModel        = errors.New("no chat model configured")
	ErrUnsupportedBackend = errors.New("unsupported LLM provider")
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleTool      ChatRole = "tool"
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatMessage is the provider-neutral message exchanged with a ChatModel.
// Tool results carry ToolCallID and Name of the call they answer.
type ChatMessage struct {
	Role       ChatRole
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolDefinition describes a callable tool with a JSON schema for its
// arguments.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ChatRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolDefinition
}

// ChatResponse holds either text content or tool calls. Raw keeps the
// provider payload for replies without text.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Raw       any
}

type ChatModel interface {
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	SupportsTools() bool
}

// ProviderClients holds the remote LLM clients, built once per process.
// Clients whose API key is missing stay nil.
type ProviderClients struct {
	OpenAI   *openai.Client
	Gemini   *genai.Client
	GigaChat *gigago.Client
	logger   *zap.Logger
}

func NewProviderClients(ctx context.Context, llm *config.LLMConfig, giga *config.GigaChatConfig, logger *zap.Logger) (*ProviderClients, error) {
	clients := &ProviderClients{logger: logger}

	if llm.OpenAIAPIKey != "" {
		clients.OpenAI = openai.NewClient(llm.OpenAIAPIKey)
		logger.Info("OpenAI client initialized")
	}

	if llm.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(llm.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		clients.Gemini = client
		logger.Info("Gemini client initialized")
	}

	if giga.APIKey != "" {
		opts := []gigago.Option{
			gigago.WithCustomScope(giga.Scope),
		}
		if giga.InsecureSkipVerify {
			opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
			logger.Warn("GigaChat TLS certificate verification is disabled")
		}

		client, err := gigago.NewClient(ctx, giga.APIKey, opts...)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
		}
		clients.GigaChat = client
		logger.Info("GigaChat client initialized")
	}

	return clients, nil
}

func (c *ProviderClients) Close() {
	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			c.logger.Warn("Failed to close Gemini client", zap.Error(err))
		}
	}
	if c.GigaChat != nil {
		c.GigaChat.Close()
	}
}

// NewChatModel returns the chat backend selected by LLM_PROVIDER.
func NewChatModel(llm *config.LLMConfig, giga *config.GigaChatConfig, clients *ProviderClients) (ChatModel, error) {
	switch strings.ToLower(llm.Provider) {
	case "", "openai":
		if clients.OpenAI == nil {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNoChatModel)
		}
		return NewOpenAIChatModel(clients.OpenAI, llm.OpenAIModel, llm.Temperature), nil
	case "gemini":
		if clients.Gemini == nil {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrNoChatModel)
		}
		return NewGeminiChatModel(clients.Gemini, llm.GeminiModel, llm.Temperature), nil
	case "gigachat":
		if clients.GigaChat == nil {
			return nil, fmt.Errorf("%w: GIGACHAT_API_KEY is not set", ErrNoChatModel)
		}
		return NewGigaChatModel(clients.GigaChat, giga.Model), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, llm.Provider)
	}
}

const gigaChatTemperature = 0.3

// GigaChatModel talks to GigaChat. The API offers no function calling
// through this client, so the agent falls back to prompt context.
type GigaChatModel struct {
	client *gigago.Client
	name   string
}

func NewGigaChatModel(client *gigago.Client, name string) *GigaChatModel {
	if name == "" {
		name = "GigaChat"
	}
	return &GigaChatModel{client: client, name: name}
}

func (m *GigaChatModel) SupportsTools() bool { return false }

func (m *GigaChatModel) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := m.client.GenerativeModel(m.name)
	model.SystemInstruction = req.System
	model.Temperature = gigaChatTemperature

	messages := make([]gigago.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case ChatRoleUser:
			messages = append(messages, gigago.Message{Role: gigago.RoleUser, Content: msg.Content})
		case ChatRoleAssistant:
			messages = append(messages, gigago.Message{Role: gigago.RoleAssistant, Content: msg.Content})
		}
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &ChatResponse{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Raw:     resp.Choices[0].Message,
	}, nil
}
