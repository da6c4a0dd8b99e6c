package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pricing-agent/internal/models"
	"pricing-agent/pkg/metrics"

	"go.uber.org/zap"
)

const (
	ToolQueryDocuments           = "query_documents"
	ToolQueryThirdPartyDocuments = "query_thirdparty_documents"
	ToolQueryThirdPartyProposals = "query_thirdparty_proposals"
	ToolQueryComparisonData      = "query_comparison_data"
	ToolRunSQL                   = "run_sql"
)

var (
	ErrUnknownTool          = errors.New("unknown tool")
	ErrInvalidToolArguments = errors.New("invalid tool arguments")
)

type matchArgs struct {
	Query          string   `json:"query"`
	MatchThreshold *float64 `json:"match_threshold"`
	Limit          *int     `json:"limit"`
	MatchCount     *int     `json:"match_count"`
}

type comparisonArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type runSQLArgs struct {
	Query string `json:"query"`
	View  string `json:"view"`
}

// Toolset exposes the five data tools to the agent under stable names.
type Toolset struct {
	retrieval  *RetrievalService
	sql        *SQLService
	comparison *ComparisonService
	logger     *zap.Logger
}

func NewToolset(retrieval *RetrievalService, sql *SQLService, comparison *ComparisonService, logger *zap.Logger) *Toolset {
	return &Toolset{
		retrieval:  retrieval,
		sql:        sql,
		comparison: comparison,
		logger:     logger,
	}
}

func (t *Toolset) Definitions() []ToolDefinition {
	matchParams := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Texto livre da busca, por exemplo nome de cliente ou produto",
			},
			"match_threshold": map[string]any{
				"type":        "number",
				"description": "Similaridade mínima (padrão 0.4; consultas de até duas palavras usam 0.1)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Limite de linhas (padrão 150)",
			},
			"match_count": map[string]any{
				"type":        "integer",
				"description": "Quantidade máxima de resultados, no máximo 100",
			},
		},
		"required": []string{"query"},
	}

	return []ToolDefinition{
		{
			Name:        ToolQueryDocuments,
			Description: "Busca por similaridade nos documentos internos (notas e relatórios de vendas).",
			Parameters:  matchParams,
		},
		{
			Name:        ToolQueryThirdPartyDocuments,
			Description: "Busca por similaridade nas notas fiscais de concorrentes.",
			Parameters:  matchParams,
		},
		{
			Name:        ToolQueryThirdPartyProposals,
			Description: "Busca por similaridade nas propostas comerciais de concorrentes.",
			Parameters:  matchParams,
		},
		{
			Name:        ToolQueryComparisonData,
			Description: "Compara vendas internas, notas e propostas de concorrentes para um cliente ou produto, num formato único.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Nome (ou parte do nome) do cliente ou produto",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Limite de linhas por fonte (padrão 200)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolRunSQL,
			Description: "Executa uma consulta SQL somente leitura sobre as views seguras.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Consulta SQL",
					},
					"view": map[string]any{
						"type":        "string",
						"description": "Procedimento de execução: safe (padrão) ou documents",
						"enum":        []string{ViewSafe, ViewDocuments},
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Call runs tool name with JSON arguments. Tool-level failures are part of
// the returned payload; the error is only set for unknown tools or
// undecodable arguments.
func (t *Toolset) Call(ctx context.Context, name, arguments string) (any, error) {
	start := time.Now()
	payload, outcome, err := t.dispatch(ctx, name, arguments)
	if err != nil {
		outcome = metrics.OutcomeError
	}

	// names outside the toolset share one series
	label := name
	if errors.Is(err, ErrUnknownTool) {
		label = metrics.UnknownTool
	}
	metrics.ToolCalls.WithLabelValues(label, outcome).Inc()
	metrics.ToolDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	t.logger.Info("Tool call completed",
		zap.String("tool", name),
		zap.String("outcome", outcome),
		zap.Duration("took", time.Since(start)),
	)

	return payload, err
}

func (t *Toolset) dispatch(ctx context.Context, name, arguments string) (any, string, error) {
	switch name {
	case ToolQueryDocuments, ToolQueryThirdPartyDocuments, ToolQueryThirdPartyProposals:
		var args matchArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return nil, "", err
		}
		q := models.MatchQuery{
			Query:      args.Query,
			Threshold:  args.MatchThreshold,
			Limit:      args.Limit,
			MatchCount: args.MatchCount,
		}

		var result *models.MatchResult
		switch name {
		case ToolQueryDocuments:
			result = t.retrieval.QueryDocuments(ctx, q)
		case ToolQueryThirdPartyDocuments:
			result = t.retrieval.QueryThirdPartyDocuments(ctx, q)
		default:
			result = t.retrieval.QueryThirdPartyProposals(ctx, q)
		}
		return result, matchOutcome(result), nil

	case ToolQueryComparisonData:
		var args comparisonArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return nil, "", err
		}
		dataset, err := t.comparison.QueryComparisonData(ctx, args.Query, args.Limit)
		if err != nil {
			payload := map[string]any{"error": err.Error(), "query": args.Query}
			var srcErr *SourceError
			if errors.As(err, &srcErr) {
				payload["origem"] = srcErr.Origin
			}
			if errors.Is(err, ErrServiceUnavailable) {
				return payload, metrics.OutcomeUnavailable, nil
			}
			return payload, metrics.OutcomeError, nil
		}
		return dataset, metrics.OutcomeOK, nil

	case ToolRunSQL:
		var args runSQLArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return nil, "", err
		}
		result := t.sql.RunSQL(ctx, args.Query, args.View)
		switch {
		case result.Err == nil:
			return result, metrics.OutcomeOK, nil
		case errors.Is(result.Err, ErrServiceUnavailable):
			return result, metrics.OutcomeUnavailable, nil
		default:
			return result, metrics.OutcomeError, nil
		}

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func matchOutcome(r *models.MatchResult) string {
	switch r.Kind {
	case models.ResultUnavailable:
		return metrics.OutcomeUnavailable
	case models.ResultRemoteFailure:
		return metrics.OutcomeError
	default:
		return metrics.OutcomeOK
	}
}

func decodeArgs(arguments string, v any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToolArguments, err)
	}
	return nil
}
