package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pricing-agent/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SimilarityRepository calls the pgvector match functions
// (match_documents, match_thirdparty, match_proposals) deployed in Postgres.
type SimilarityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSimilarityRepository(db *pgxpool.Pool, logger *zap.Logger) *SimilarityRepository {
	return &SimilarityRepository{
		db:     db,
		logger: logger,
	}
}

// Match invokes function with the query embedding, the result cap and the
// similarity threshold, returning rows in the order the function produced them.
func (r *SimilarityRepository) Match(ctx context.Context, function string, embedding []float32, count int, threshold float64) ([]models.Row, error) {
	sql := MatchFunctionSQL(function)

	rows, err := r.db.Query(ctx, sql, FormatVector(embedding), count, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", function, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", function, err)
	}

	r.logger.Debug("Match function returned",
		zap.String("function", function),
		zap.Int("rows", len(records)),
	)

	return toRows(records), nil
}

// MatchFunctionSQL builds the call statement with named arguments so the
// parameter order of the remote function does not matter.
func MatchFunctionSQL(function string) string {
	return fmt.Sprintf(
		"SELECT * FROM %s(query_embedding => $1::vector, match_count => $2, match_threshold => $3)",
		QuoteName(function),
	)
}

// QuoteName quotes a possibly schema-qualified name such as "public.vw_x".
func QuoteName(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// FormatVector renders an embedding as a pgvector literal.
func FormatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func toRows(records []map[string]any) []models.Row {
	out := make([]models.Row, len(records))
	for i, rec := range records {
		out[i] = models.Row(rec)
	}
	return out
}
