package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pricing-agent/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ViewRepository reads the restricted reporting views, either through the
// server-side execution procedures or with parameterized selects.
type ViewRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewViewRepository(db *pgxpool.Pool, logger *zap.Logger) *ViewRepository {
	return &ViewRepository{
		db:     db,
		logger: logger,
	}
}

// Execute forwards query text to procedure, which runs it against its safe
// view and returns the rows as a JSON array.
func (r *ViewRepository) Execute(ctx context.Context, procedure, query string) ([]models.Row, error) {
	sql := fmt.Sprintf("SELECT %s($1)", QuoteName(procedure))

	var raw []byte
	if err := r.db.QueryRow(ctx, sql, query).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", procedure, err)
	}

	return DecodeRows(raw)
}

// Select runs a squirrel select with dollar placeholders.
func (r *ViewRepository) Select(ctx context.Context, query squirrel.SelectBuilder) ([]models.Row, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build view query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query view: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read view rows: %w", err)
	}

	r.logger.Debug("View query completed", zap.String("sql", sql), zap.Int("rows", len(records)))

	return toRows(records), nil
}

// ViewQuery selects columns from view where any of matchColumns is ILIKE
// pattern, capped at limit rows. No ordering is requested.
func ViewQuery(view string, columns, matchColumns []string, pattern string, limit int) squirrel.SelectBuilder {
	filter := squirrel.Or{}
	for _, col := range matchColumns {
		filter = append(filter, squirrel.ILike{col: pattern})
	}

	query := squirrel.Select(columns...).
		From(QuoteName(view)).
		Where(filter)

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return query
}

// DecodeRows parses a JSON array of objects. A null or empty payload is an
// empty result.
func DecodeRows(raw []byte) ([]models.Row, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []models.Row{}, nil
	}

	var rows []models.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return rows, nil
}
