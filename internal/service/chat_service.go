package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricing-agent/internal/models"
	"pricing-agent/internal/repository"
	"pricing-agent/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgentFailurePrefix starts the reply recorded when an agent turn fails.
const AgentFailurePrefix = "Ocorreu um erro ao processar sua pergunta: "

var ErrSessionNotFound = errors.New("session not found")

type ConversationStore interface {
	Load(ctx context.Context, sessionID string) (*models.Conversation, error)
	Save(ctx context.Context, sessionID string, conv *models.Conversation) error
	Delete(ctx context.Context, sessionID string) error
}

// Responder produces the assistant reply for a bounded history.
type Responder interface {
	Run(ctx context.Context, history []models.Message) (string, error)
}

type TurnResult struct {
	SessionID string
	Reply     string
	Failed    bool
	History   []models.Message
}

type ChatService struct {
	store       ConversationStore
	agent       Responder
	historySize int
	logger      *zap.Logger
}

func NewChatService(store ConversationStore, agent Responder, historySize int, logger *zap.Logger) *ChatService {
	if historySize <= 0 {
		historySize = models.DefaultHistorySize
	}
	return &ChatService{
		store:       store,
		agent:       agent,
		historySize: historySize,
		logger:      logger,
	}
}

// Turn records text, asks the agent for a reply and records the reply. Agent
// failures become a reply and are still recorded; only storage failures are
// returned. An empty sessionID starts a new session.
func (s *ChatService) Turn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	start := time.Now()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conv, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		conv = models.NewConversation(s.historySize)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	conv.Cap = s.historySize

	conv.Append(models.RoleUser, text)

	result := &TurnResult{SessionID: sessionID}
	reply, err := s.agent.Run(ctx, conv.Messages)
	if err != nil {
		s.logger.Error("Agent turn failed", zap.String("session_id", sessionID), zap.Error(err))
		reply = AgentFailurePrefix + err.Error()
		result.Failed = true
		metrics.AgentTurns.WithLabelValues(metrics.OutcomeError).Inc()
	} else {
		metrics.AgentTurns.WithLabelValues(metrics.OutcomeOK).Inc()
	}

	conv.Append(models.RoleAssistant, reply)

	if err := s.store.Save(ctx, sessionID, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	metrics.AgentTurnDuration.Observe(time.Since(start).Seconds())

	result.Reply = reply
	result.History = conv.Messages
	return result, nil
}

func (s *ChatService) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	conv, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv.Messages, nil
}

// EndSession discards the session's history.
func (s *ChatService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.logger.Info("Session ended", zap.String("session_id", sessionID))
	return nil
}
