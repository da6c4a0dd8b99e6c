package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricing-agent/pkg/config"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var ErrEmptyEmbedding = errors.New("empty embedding returned")

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{client: client, model: openai.EmbeddingModel(model)}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

type GeminiEmbedder struct {
	model *genai.EmbeddingModel
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{model: client.EmbeddingModel(model)}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Embedding.Values, nil
}

// NewEmbedder picks the embedding backend named in cfg. It returns nil, and
// the similarity adapters report the service as unavailable, when the chosen
// provider has no client.
func NewEmbedder(cfg *config.EmbeddingConfig, clients *ProviderClients, logger *zap.Logger) Embedder {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		if clients.Gemini == nil {
			logger.Warn("Gemini embedding selected without GEMINI_API_KEY")
			return nil
		}
		return NewGeminiEmbedder(clients.Gemini, cfg.GeminiModel)
	default:
		if clients.OpenAI == nil {
			logger.Warn("OpenAI embedding selected without OPENAI_API_KEY")
			return nil
		}
		return NewOpenAIEmbedder(clients.OpenAI, cfg.OpenAIModel)
	}
}
