package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pricing-agent/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrConversationNotFound = errors.New("conversation not found")

const conversationKeyPrefix = "pricing:conversation:"

// MemoryConversationRepository keeps conversations in process memory.
type MemoryConversationRepository struct {
	mu    sync.RWMutex
	items map[string]models.Conversation
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{items: make(map[string]models.Conversation)}
}

func (r *MemoryConversationRepository) Load(_ context.Context, sessionID string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.items[sessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (r *MemoryConversationRepository) Save(_ context.Context, sessionID string, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[sessionID] = *cloneConversation(*conv)
	return nil
}

func (r *MemoryConversationRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}

func cloneConversation(conv models.Conversation) *models.Conversation {
	msgs := make([]models.Message, len(conv.Messages))
	copy(msgs, conv.Messages)
	return &models.Conversation{Cap: conv.Cap, Messages: msgs}
}

// RedisConversationRepository stores each conversation as one JSON value
// whose TTL is refreshed on every save.
type RedisConversationRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisConversationRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisConversationRepository {
	return &RedisConversationRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisConversationRepository) Load(ctx context.Context, sessionID string) (*models.Conversation, error) {
	data, err := r.client.Get(ctx, conversationKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	return &conv, nil
}

func (r *RedisConversationRepository) Save(ctx context.Context, sessionID string, conv *models.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	if err := r.client.Set(ctx, conversationKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *RedisConversationRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, conversationKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	r.logger.Debug("Conversation deleted", zap.String("session_id", sessionID))
	return nil
}
