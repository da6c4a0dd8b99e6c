package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pricing-agent/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CorpusRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCorpusRepository(db *pgxpool.Pool, logger *zap.Logger) *CorpusRepository {
	return &CorpusRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CorpusRepository) Create(ctx context.Context, doc *models.CorpusDocument) error {
	query, err := CorpusInsert(doc)
	if err != nil {
		return err
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", doc.Corpus, err)
	}
	return nil
}

// CorpusInsert builds the insert for doc's corpus table.
func CorpusInsert(doc *models.CorpusDocument) (squirrel.InsertBuilder, error) {
	if !doc.Corpus.Valid() {
		return squirrel.InsertBuilder{}, fmt.Errorf("unknown corpus %q", doc.Corpus)
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return squirrel.InsertBuilder{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	columns := []string{"id", "content", "metadata", "embedding", "created_at"}
	values := []interface{}{
		doc.ID,
		doc.Content,
		string(metadata),
		squirrel.Expr("?::vector", FormatVector(doc.Embedding)),
		doc.CreatedAt,
	}
	if doc.Corpus == models.CorpusDocuments {
		columns = append(columns, "content_plain")
		values = append(values, doc.ContentPlain)
	}

	return squirrel.Insert(string(doc.Corpus)).
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(squirrel.Dollar), nil
}
