package service

import (
	"context"
	"fmt"
	"strings"

	"pricing-agent/internal/models"

	"go.uber.org/zap"
)

const maxContextSnippet = 1500

// RAGService stuffs similarity matches into the prompt for chat models that
// cannot call tools.
type RAGService struct {
	retrieval *RetrievalService
	logger    *zap.Logger
}

func NewRAGService(retrieval *RetrievalService, logger *zap.Logger) *RAGService {
	return &RAGService{
		retrieval: retrieval,
		logger:    logger,
	}
}

// SearchAll runs the three similarity adapters in order: documents,
// third-party documents, proposals.
func (s *RAGService) SearchAll(ctx context.Context, query string) []*models.MatchResult {
	q := models.MatchQuery{Query: query}
	results := []*models.MatchResult{
		s.retrieval.QueryDocuments(ctx, q),
		s.retrieval.QueryThirdPartyDocuments(ctx, q),
		s.retrieval.QueryThirdPartyProposals(ctx, q),
	}

	total := 0
	for _, r := range results {
		total += len(r.Matches)
	}
	s.logger.Info("Context search completed",
		zap.String("query", query),
		zap.Int("matches", total),
	)

	return results
}

// BuildContext builds a numbered context block from match results. Failed
// sources are listed so the model can say that data is missing.
func (s *RAGService) BuildContext(results []*models.MatchResult) string {
	var builder strings.Builder
	n := 0

	for _, result := range results {
		if result.Failed() {
			builder.WriteString(fmt.Sprintf("[%s] indisponível: %s\n\n", result.Function, result.Error))
			continue
		}
		for _, match := range result.Matches {
			n++
			builder.WriteString(fmt.Sprintf("%d. [%s]\n", n, result.Function))
			builder.WriteString(fmt.Sprintf("   %s\n\n", truncateRunes(match, maxContextSnippet)))
		}
	}

	if n == 0 && builder.Len() == 0 {
		return "Nenhuma informação relevante encontrada na base."
	}

	return "Informações relevantes da base:\n\n" + builder.String()
}
