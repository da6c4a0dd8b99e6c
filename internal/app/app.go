// Package app builds the service graph shared by the HTTP server and the
// terminal client.
package app

import (
	"context"
	"fmt"
	"os"

	"pricing-agent/internal/prompt"
	"pricing-agent/internal/repository"
	"pricing-agent/internal/service"
	"pricing-agent/pkg/auth"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/postgres"
	"pricing-agent/pkg/redis"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	JWTManager  *auth.JWTManager
	AuthService *service.AuthService
	ChatService *service.ChatService
	Toolset     *service.Toolset

	db      *pgxpool.Pool
	redis   *goredis.Client
	clients *service.ProviderClients
	logger  *zap.Logger
}

// Build connects to the configured backends and wires the services. A
// missing database or embedding key is not fatal: the data tools then
// report themselves unavailable.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	instructions, err := prompt.Load(cfg.Agent.InstructionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent instructions: %w", err)
	}

	a.clients, err = service.NewProviderClients(ctx, &cfg.LLM, &cfg.GigaChat, logger)
	if err != nil {
		return nil, err
	}

	model, err := service.NewChatModel(&cfg.LLM, &cfg.GigaChat, a.clients)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		searcher service.SimilaritySearcher
		querier  service.StructuredQuerier
	)
	db, err := postgres.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Warn("Database unavailable, data tools disabled", zap.Error(err))
	} else {
		a.db = db
		searcher = repository.NewSimilarityRepository(db, logger)
		querier = repository.NewViewRepository(db, logger)
	}

	store, err := a.conversationStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedder := service.NewEmbedder(&cfg.Embedding, a.clients, logger)
	retrieval := service.NewRetrievalService(embedder, searcher, &cfg.Retrieval, logger)
	sqlService := service.NewSQLService(querier, &cfg.Retrieval, logger)
	comparison := service.NewComparisonService(querier, &cfg.Retrieval, logger)

	a.Toolset = service.NewToolset(retrieval, sqlService, comparison, logger)
	agent := service.NewAgentService(
		model,
		a.Toolset,
		service.NewRAGService(retrieval, logger),
		instructions,
		cfg.Agent.MaxToolRounds,
		logger,
	)
	a.ChatService = service.NewChatService(store, agent, cfg.Agent.HistorySize, logger)

	a.JWTManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	creds := service.LoadCredentials(os.Environ(), cfg.Auth.CredentialPrefix, logger)
	a.AuthService = service.NewAuthService(creds, a.JWTManager, logger)

	logger.Info("Services initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("tools", model.SupportsTools()),
		zap.Bool("database", a.db != nil),
		zap.Bool("embeddings", embedder != nil),
		zap.Int("users", len(creds)),
	)

	return a, nil
}

func (a *App) conversationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.ConversationStore, error) {
	if cfg.Redis.Addr == "" {
		return repository.NewMemoryConversationRepository(), nil
	}

	client, err := redis.NewClient(ctx, &cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return repository.NewRedisConversationRepository(client, cfg.Redis.SessionTTL, logger), nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.clients != nil {
		a.clients.Close()
	}
}
