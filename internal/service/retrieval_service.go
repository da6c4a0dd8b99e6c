package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricing-agent/internal/models"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/metrics"

	"go.uber.org/zap"
)

var (
	ErrServiceUnavailable = errors.New("remote data service unavailable")
	ErrRemoteCall         = errors.New("remote call failed")

	errNoDatabase = fmt.Errorf("%w: database not configured", ErrServiceUnavailable)
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilaritySearcher invokes a named remote match function.
type SimilaritySearcher interface {
	Match(ctx context.Context, function string, embedding []float32, count int, threshold float64) ([]models.Row, error)
}

// matchTarget binds an adapter to its remote function and the ordered list of
// row fields a snippet may come from.
type matchTarget struct {
	function string
	fields   []string
}

type RetrievalService struct {
	embedder  Embedder
	searcher  SimilaritySearcher
	config    *config.RetrievalConfig
	documents matchTarget
	thirdPty  matchTarget
	proposals matchTarget
	logger    *zap.Logger
}

// NewRetrievalService wires the three similarity adapters. embedder and
// searcher may be nil; every call then reports ResultUnavailable.
func NewRetrievalService(embedder Embedder, searcher SimilaritySearcher, cfg *config.RetrievalConfig, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		searcher: searcher,
		config:   cfg,
		documents: matchTarget{
			function: cfg.DocumentsFunction,
			fields:   []string{"content_plain", "content"},
		},
		thirdPty: matchTarget{
			function: cfg.ThirdPartyFunction,
			fields:   []string{"content"},
		},
		proposals: matchTarget{
			function: cfg.ProposalsFunction,
			fields:   []string{"content"},
		},
		logger: logger,
	}
}

func (s *RetrievalService) QueryDocuments(ctx context.Context, q models.MatchQuery) *models.MatchResult {
	return s.match(ctx, s.documents, q)
}

func (s *RetrievalService) QueryThirdPartyDocuments(ctx context.Context, q models.MatchQuery) *models.MatchResult {
	return s.match(ctx, s.thirdPty, q)
}

func (s *RetrievalService) QueryThirdPartyProposals(ctx context.Context, q models.MatchQuery) *models.MatchResult {
	return s.match(ctx, s.proposals, q)
}

// EffectiveThreshold loosens the threshold to 0.1 for queries of at most two
// words, such as a bare client or product name, when the caller asked for
// 0.4 or more.
func EffectiveThreshold(query string, threshold float64) float64 {
	if len(strings.Fields(query)) <= 2 && threshold >= models.DefaultMatchThreshold {
		return models.ShortQueryThreshold
	}
	return threshold
}

// ResolveMatchCount caps the requested result count at 100.
func ResolveMatchCount(requested *int) int {
	if requested == nil {
		return models.MaxMatchCount
	}
	return min(*requested, models.MaxMatchCount)
}

func (s *RetrievalService) match(ctx context.Context, target matchTarget, q models.MatchQuery) *models.MatchResult {
	threshold := s.config.MatchThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	limit := s.config.DefaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	result := &models.MatchResult{
		Function:     target.function,
		Query:        q.Query,
		Limit:        limit,
		MatchCount:   ResolveMatchCount(q.MatchCount),
		Threshold:    EffectiveThreshold(q.Query, threshold),
		Matches:      []string{},
		ResultFields: target.fields,
		Kind:         models.ResultOK,
	}

	if s.searcher == nil || s.embedder == nil {
		return s.fail(result, models.ResultUnavailable, fmt.Errorf("%w: similarity search not configured", ErrServiceUnavailable))
	}

	embedding, err := s.embedder.Embed(ctx, q.Query)
	if err != nil {
		s.logger.Warn("Embedding failed", zap.String("function", target.function), zap.Error(err))
		return s.fail(result, models.ResultUnavailable, errors.Join(ErrServiceUnavailable, err))
	}

	rows, err := s.searcher.Match(ctx, target.function, embedding, result.MatchCount, result.Threshold)
	if err != nil {
		s.logger.Error("Match function failed", zap.String("function", target.function), zap.Error(err))
		metrics.RemoteCallFailures.WithLabelValues(target.function).Inc()
		return s.fail(result, models.ResultRemoteFailure, errors.Join(ErrRemoteCall, err))
	}

	for _, row := range rows {
		if snippet, ok := pickField(row, target.fields); ok {
			result.Matches = append(result.Matches, snippet)
		}
	}

	s.logger.Info("Similarity search completed",
		zap.String("function", target.function),
		zap.Int("rows", len(rows)),
		zap.Int("matches", len(result.Matches)),
		zap.Float64("threshold", result.Threshold),
	)

	return result
}

func (s *RetrievalService) fail(result *models.MatchResult, kind models.ResultKind, err error) *models.MatchResult {
	result.Kind = kind
	result.Err = err
	result.Error = err.Error()
	result.Matches = []string{}
	return result
}

// pickField returns the first non-empty string among fields.
func pickField(row models.Row, fields []string) (string, bool) {
	for _, field := range fields {
		if v, ok := row[field].(string); ok && v != "" {
			return sanitizeUTF8(v), true
		}
	}
	return "", false
}
