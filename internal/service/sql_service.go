package service

import (
	"context"
	"errors"
	"fmt"

	"pricing-agent/internal/models"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/metrics"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

const (
	ViewSafe      = "safe"
	ViewDocuments = "documents"
)

var ErrUnknownView = errors.New("unknown view")

// StructuredQuerier runs queries against the restricted reporting views.
type StructuredQuerier interface {
	// Execute forwards raw query text to a server-side execution procedure.
	Execute(ctx context.Context, procedure, query string) ([]models.Row, error)
	// Select runs a parameterized select.
	Select(ctx context.Context, query squirrel.SelectBuilder) ([]models.Row, error)
}

type SQLService struct {
	querier StructuredQuerier
	config  *config.RetrievalConfig
	logger  *zap.Logger
}

func NewSQLService(querier StructuredQuerier, cfg *config.RetrievalConfig, logger *zap.Logger) *SQLService {
	return &SQLService{
		querier: querier,
		config:  cfg,
		logger:  logger,
	}
}

// RunSQL sends query to the execution procedure of view ("safe" when empty)
// in exactly one round trip. The text is neither validated nor rewritten; the
// procedure is the security boundary.
func (s *SQLService) RunSQL(ctx context.Context, query, view string) *models.SQLResult {
	if s.querier == nil {
		return sqlError(query, errNoDatabase)
	}

	procedure, err := s.procedure(view)
	if err != nil {
		return sqlError(query, err)
	}

	rows, err := s.querier.Execute(ctx, procedure, query)
	if err != nil {
		s.logger.Error("Structured query failed",
			zap.String("procedure", procedure),
			zap.Error(err),
		)
		metrics.RemoteCallFailures.WithLabelValues(procedure).Inc()
		return sqlError(query, errors.Join(ErrRemoteCall, err))
	}

	s.logger.Info("Structured query completed",
		zap.String("procedure", procedure),
		zap.Int("rows", len(rows)),
	)

	return &models.SQLResult{Query: query, Results: rows}
}

func (s *SQLService) procedure(view string) (string, error) {
	switch view {
	case "", ViewSafe:
		return s.config.SafeViewProcedure, nil
	case ViewDocuments:
		return s.config.DocsViewProcedure, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
}

func sqlError(query string, err error) *models.SQLResult {
	return &models.SQLResult{Query: query, Error: err.Error(), Err: err}
}
