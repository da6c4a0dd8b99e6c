package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"pricing-agent/internal/models"
	"pricing-agent/internal/repository"
	"pricing-agent/internal/service"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/logger"
	"pricing-agent/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", filepath.Join("data", "corpus"), "directory with .pdf, .txt and .md files")
	corpus := flag.String("corpus", string(models.CorpusDocuments), "target corpus: documents, thirdparty or thirdpartyproposals")
	cacheFile := flag.String("cache", ".ingest_cache.json", "file hash cache")
	force := flag.Bool("force", false, "reprocess files already in the cache")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	target := models.Corpus(*corpus)
	if !target.Valid() {
		appLogger.Fatal("Unknown corpus", zap.String("corpus", *corpus))
	}

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	clients, err := service.NewProviderClients(ctx, &cfg.LLM, &cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize provider clients", zap.Error(err))
	}
	defer clients.Close()

	embedder := service.NewEmbedder(&cfg.Embedding, clients, appLogger)
	if embedder == nil {
		appLogger.Fatal("No embedding provider configured", zap.String("provider", cfg.Embedding.Provider))
	}

	ingest := service.NewIngestService(
		service.NewExtractService(appLogger),
		embedder,
		repository.NewCorpusRepository(db, appLogger),
		appLogger,
	)

	cache, err := service.LoadIngestCache(*cacheFile)
	if err != nil {
		appLogger.Warn("Failed to load cache, will process all files", zap.Error(err))
		cache = &service.IngestCache{ProcessedFiles: make(map[string]service.ProcessedFile)}
	}

	appLogger.Info("Starting corpus ingest",
		zap.String("dir", *dir),
		zap.String("corpus", *corpus),
		zap.Bool("force", *force),
	)

	stats, err := ingest.IngestDir(ctx, *dir, target, cache, *force)
	if err != nil {
		appLogger.Fatal("Corpus ingest failed", zap.Error(err))
	}

	if err := service.SaveIngestCache(*cacheFile, cache); err != nil {
		appLogger.Warn("Failed to save cache", zap.Error(err))
	} else {
		appLogger.Info("Cache saved", zap.Int("processed_files", len(cache.ProcessedFiles)))
	}

	appLogger.Info("Corpus ingest completed",
		zap.Int("inserted", stats.Inserted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
}
