package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pricing-agent/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextExtractor reads the text of a source file.
type TextExtractor interface {
	Supported(path string) bool
	ExtractText(path string) (string, error)
}

// CorpusStore persists embedded corpus rows.
type CorpusStore interface {
	Create(ctx context.Context, doc *models.CorpusDocument) error
}

// ProcessedFile is one cache entry.
type ProcessedFile struct {
	FilePath    string        `json:"file_path"`
	FileHash    string        `json:"file_hash"`
	Corpus      models.Corpus `json:"corpus"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// IngestCache remembers which files were already loaded, keyed by corpus and
// path, so unchanged files are skipped on the next run.
type IngestCache struct {
	ProcessedFiles map[string]ProcessedFile `json:"processed_files"`
}

type IngestStats struct {
	Inserted int
	Skipped  int
	Failed   int
}

type IngestService struct {
	extractor TextExtractor
	embedder  Embedder
	store     CorpusStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewIngestService(extractor TextExtractor, embedder Embedder, store CorpusStore, logger *zap.Logger) *IngestService {
	return &IngestService{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// IngestDir embeds every supported file under dir into corpus. Files whose
// hash matches the cache are skipped unless force is set. Failures on single
// files are logged and counted; only setup errors are returned.
func (s *IngestService) IngestDir(ctx context.Context, dir string, corpus models.Corpus, cache *IngestCache, force bool) (*IngestStats, error) {
	if !corpus.Valid() {
		return nil, fmt.Errorf("unknown corpus %q", corpus)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedding not configured", ErrServiceUnavailable)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && s.extractor.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)

	stats := &IngestStats{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		key := cacheKey(corpus, path)
		fileHash, err := CalculateFileHash(path)
		if err != nil {
			s.logger.Warn("Failed to calculate file hash, will process anyway", zap.String("path", path), zap.Error(err))
		}
		if cached, ok := cache.ProcessedFiles[key]; ok && !force && fileHash != "" && cached.FileHash == fileHash {
			s.logger.Info("File already processed, skipping",
				zap.String("path", path),
				zap.Time("processed_at", cached.ProcessedAt),
			)
			stats.Skipped++
			continue
		}

		if err := s.ingestFile(ctx, path, corpus); err != nil {
			s.logger.Error("Failed to ingest file", zap.String("path", path), zap.Error(err))
			stats.Failed++
			continue
		}

		cache.ProcessedFiles[key] = ProcessedFile{
			FilePath:    path,
			FileHash:    fileHash,
			Corpus:      corpus,
			ProcessedAt: s.now(),
		}
		stats.Inserted++
	}

	s.logger.Info("Corpus ingest finished",
		zap.String("corpus", string(corpus)),
		zap.Int("inserted", stats.Inserted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *IngestService) ingestFile(ctx context.Context, path string, corpus models.Corpus) error {
	text, err := s.extractor.ExtractText(path)
	if err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed: %w", err)
	}

	doc := &models.CorpusDocument{
		ID:        uuid.New(),
		Corpus:    corpus,
		Content:   text,
		Metadata:  map[string]any{"source_file": filepath.Base(path)},
		Embedding: embedding,
		CreatedAt: s.now(),
	}
	if corpus == models.CorpusDocuments {
		doc.ContentPlain = strings.Join(strings.Fields(text), " ")
	}

	if err := s.store.Create(ctx, doc); err != nil {
		return err
	}

	s.logger.Info("Corpus entry created",
		zap.String("path", path),
		zap.String("corpus", string(corpus)),
		zap.Int("content_length", len(text)),
	)
	return nil
}

func cacheKey(corpus models.Corpus, path string) string {
	return string(corpus) + ":" + path
}

// LoadIngestCache reads the cache file. A missing or empty file is an empty
// cache.
func LoadIngestCache(cacheFile string) (*IngestCache, error) {
	cache := &IngestCache{ProcessedFiles: make(map[string]ProcessedFile)}

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.ProcessedFiles == nil {
		cache.ProcessedFiles = make(map[string]ProcessedFile)
	}
	return cache, nil
}

func SaveIngestCache(cacheFile string, cache *IngestCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// CalculateFileHash returns the hex SHA-256 of the file's content.
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
