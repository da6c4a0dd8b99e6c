package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pricing-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryCorpusStore struct {
	docs []*models.CorpusDocument
	err  error
}

func (s *memoryCorpusStore) Create(_ context.Context, doc *models.CorpusDocument) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractService(t *testing.T) {
	dir := t.TempDir()
	svc := NewExtractService(zaptest.NewLogger(t))

	text, err := svc.ExtractText(writeFile(t, dir, "nota.txt", "  Nota fiscal 123\n"))
	require.NoError(t, err)
	assert.Equal(t, "Nota fiscal 123", text)

	text, err = svc.ExtractText(writeFile(t, dir, "relatorio.MD", "# Vendas\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Vendas", text)

	_, err = svc.ExtractText(writeFile(t, dir, "vazio.txt", "   \n"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = svc.ExtractText(writeFile(t, dir, "planilha.xlsx", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.True(t, svc.Supported("a.PDF"))
	assert.False(t, svc.Supported("a.png"))
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Proposta   Ambev\n\nR$ 10,00")
	writeFile(t, dir, "sub/b.md", "Nota fiscal AGV2508")
	writeFile(t, dir, "ignorado.csv", "x,y")

	store := &memoryCorpusStore{}
	embedder := &fakeEmbedder{vector: []float32{0.5, 0.25}}
	svc := NewIngestService(NewExtractService(zaptest.NewLogger(t)), embedder, store, zaptest.NewLogger(t))
	cache := &IngestCache{ProcessedFiles: map[string]ProcessedFile{}}

	stats, err := svc.IngestDir(context.Background(), dir, models.CorpusDocuments, cache, false)
	require.NoError(t, err)
	assert.Equal(t, &IngestStats{Inserted: 2}, stats)

	require.Len(t, store.docs, 2)
	first := store.docs[0]
	assert.Equal(t, models.CorpusDocuments, first.Corpus)
	assert.Equal(t, "Proposta   Ambev\n\nR$ 10,00", first.Content)
	assert.Equal(t, "Proposta Ambev R$ 10,00", first.ContentPlain)
	assert.Equal(t, "a.txt", first.Metadata["source_file"])
	assert.Equal(t, []float32{0.5, 0.25}, first.Embedding)
	assert.Len(t, cache.ProcessedFiles, 2)

	// unchanged files are skipped on the next run
	stats, err = svc.IngestDir(context.Background(), dir, models.CorpusDocuments, cache, false)
	require.NoError(t, err)
	assert.Equal(t, &IngestStats{Skipped: 2}, stats)

	// the same files may still be loaded into another corpus
	stats, err = svc.IngestDir(context.Background(), dir, models.CorpusProposals, cache, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.Empty(t, store.docs[len(store.docs)-1].ContentPlain)

	stats, err = svc.IngestDir(context.Background(), dir, models.CorpusDocuments, cache, true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
}

func TestIngestDir_Failures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "conteúdo")
	logger := zaptest.NewLogger(t)
	extractor := NewExtractService(logger)
	cache := &IngestCache{ProcessedFiles: map[string]ProcessedFile{}}

	svc := NewIngestService(extractor, &fakeEmbedder{err: errors.New("quota")}, &memoryCorpusStore{}, logger)
	stats, err := svc.IngestDir(context.Background(), dir, models.CorpusThirdParty, cache, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Empty(t, cache.ProcessedFiles)

	svc = NewIngestService(extractor, nil, &memoryCorpusStore{}, logger)
	_, err = svc.IngestDir(context.Background(), dir, models.CorpusThirdParty, cache, false)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	_, err = svc.IngestDir(context.Background(), dir, models.Corpus("users"), cache, false)
	assert.Error(t, err)
}

func TestIngestCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	cache, err := LoadIngestCache(path)
	require.NoError(t, err)
	assert.Empty(t, cache.ProcessedFiles)

	cache.ProcessedFiles["documents:a.txt"] = ProcessedFile{FilePath: "a.txt", FileHash: "abc", Corpus: models.CorpusDocuments}
	require.NoError(t, SaveIngestCache(path, cache))

	loaded, err := LoadIngestCache(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.ProcessedFiles["documents:a.txt"].FileHash)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, err = LoadIngestCache(path)
	assert.Error(t, err)
}

func TestCalculateFileHash(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.txt", "abc")

	hash, err := CalculateFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
}
