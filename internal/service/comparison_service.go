package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricing-agent/internal/models"
	"pricing-agent/internal/repository"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/metrics"

	"go.uber.org/zap"
)

const DefaultComparisonLimit = 200

// SourceError reports which comparison source failed. The pipeline stops at
// the first failing source.
type SourceError struct {
	Origin models.Origin
	View   string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Origin, e.View, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// viewSource is one of the three comparison views and its column contract.
type viewSource struct {
	origin       models.Origin
	view         string
	columns      []string
	matchColumns []string
}

type ComparisonService struct {
	querier StructuredQuerier
	sources []viewSource
	limit   int
	logger  *zap.Logger
}

func NewComparisonService(querier StructuredQuerier, cfg *config.RetrievalConfig, logger *zap.Logger) *ComparisonService {
	limit := cfg.ComparisonLimit
	if limit <= 0 {
		limit = DefaultComparisonLimit
	}

	return &ComparisonService{
		querier: querier,
		sources: []viewSource{
			{
				origin:       models.OriginInternal,
				view:         cfg.InternalView,
				columns:      []string{"produto", "cliente", "data_emissao", "preco_unitario", "receita", "quantidade", "consultor", "regiao"},
				matchColumns: []string{"cliente", "produto"},
			},
			{
				origin:       models.OriginInvoice,
				view:         cfg.InvoiceView,
				columns:      []string{"produto", "cliente", "data_emissao", "preco_unitario", "valor_total", "quantidade"},
				matchColumns: []string{"cliente", "produto"},
			},
			{
				origin:       models.OriginProposal,
				view:         cfg.ProposalView,
				columns:      []string{"produto", "cliente", "data_proposta", "preco_unitario", "valor_total"},
				matchColumns: []string{"cliente", "produto"},
			},
		},
		limit:  limit,
		logger: logger,
	}
}

// QueryComparisonData matches text against client and product in the
// internal sales, third-party invoice and third-party proposal views, one
// after the other, and returns the rows in one schema. Each view is capped at
// limit rows on its own. limit <= 0 selects the configured default.
func (s *ComparisonService) QueryComparisonData(ctx context.Context, text string, limit int) (*models.ComparisonDataset, error) {
	if s.querier == nil {
		return nil, errNoDatabase
	}
	if limit <= 0 {
		limit = s.limit
	}

	pattern := "%" + text + "%"
	results := make([][]models.Row, len(s.sources))

	for i, src := range s.sources {
		start := time.Now()
		rows, err := s.querier.Select(ctx, repository.ViewQuery(src.view, src.columns, src.matchColumns, pattern, limit))
		if err != nil {
			s.logger.Error("Comparison source failed",
				zap.String("origem", string(src.origin)),
				zap.String("view", src.view),
				zap.Error(err),
			)
			metrics.RemoteCallFailures.WithLabelValues(src.view).Inc()
			return nil, &SourceError{Origin: src.origin, View: src.view, Err: errors.Join(ErrRemoteCall, err)}
		}
		s.logger.Debug("Comparison source loaded",
			zap.String("origem", string(src.origin)),
			zap.Int("rows", len(rows)),
			zap.Duration("took", time.Since(start)),
		)
		results[i] = rows
	}

	records := UnifyData(results[0], results[1], results[2])

	s.logger.Info("Comparison data built",
		zap.String("query", text),
		zap.Int("internal", len(results[0])),
		zap.Int("invoices", len(results[1])),
		zap.Int("proposals", len(results[2])),
	)

	return &models.ComparisonDataset{
		Query:   text,
		Limit:   limit,
		Count:   len(records),
		Records: records,
	}, nil
}

// UnifyData normalizes each source and concatenates them in the order
// internal, invoices, proposals.
func UnifyData(internal, invoices, proposals []models.Row) []models.UnifiedRecord {
	records := make([]models.UnifiedRecord, 0, len(internal)+len(invoices)+len(proposals))
	records = append(records, NormalizeInternal(internal)...)
	records = append(records, NormalizeInvoice(invoices)...)
	records = append(records, NormalizeProposal(proposals)...)
	return records
}

func NormalizeInternal(rows []models.Row) []models.UnifiedRecord {
	out := make([]models.UnifiedRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.UnifiedRecord{
			Origem:        models.OriginInternal,
			Produto:       row["produto"],
			Cliente:       row["cliente"],
			Data:          dateValue(row["data_emissao"]),
			PrecoUnitario: toFloat(row["preco_unitario"]),
			Receita:       toFloat(row["receita"]),
			Quantidade:    toFloat(row["quantidade"]),
			Consultor:     toStringPtr(row["consultor"]),
			Regiao:        toStringPtr(row["regiao"]),
		})
	}
	return out
}

func NormalizeInvoice(rows []models.Row) []models.UnifiedRecord {
	out := make([]models.UnifiedRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.UnifiedRecord{
			Origem:        models.OriginInvoice,
			Produto:       row["produto"],
			Cliente:       row["cliente"],
			Data:          dateValue(row["data_emissao"]),
			PrecoUnitario: toFloat(row["preco_unitario"]),
			Receita:       toFloat(row["valor_total"]),
			Quantidade:    toFloat(row["quantidade"]),
		})
	}
	return out
}

// NormalizeProposal parses the text price columns of proposals with
// CleanPrice.
func NormalizeProposal(rows []models.Row) []models.UnifiedRecord {
	out := make([]models.UnifiedRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.UnifiedRecord{
			Origem:        models.OriginProposal,
			Produto:       row["produto"],
			Cliente:       row["cliente"],
			Data:          dateValue(row["data_proposta"]),
			PrecoUnitario: CleanPrice(row["preco_unitario"]),
			Receita:       CleanPrice(row["valor_total"]),
		})
	}
	return out
}

func dateValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return v
}
