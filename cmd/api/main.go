package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docprompt/internal/config"
	"docprompt/internal/contextutil"
	"docprompt/internal/crawler"
	"docprompt/internal/handlers"
	"docprompt/internal/http"
	"docprompt/internal/indexer"
	"docprompt/internal/llm"
	"docprompt/internal/rag"
	"docprompt/internal/service"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
	"docprompt/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about indexed documentation sources and manages their training.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Docprompt API
//   description: |
//     Retrieval-augmented completions over documentation indexed from GitHub repositories,
//     websites, local files, object storage buckets and third-party connectors.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json
//   - text/plain

const watchDebounce = 2 * time.Second

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	sourceRepo := storage.NewSourceRepo(db)
	checksumRepo := storage.NewChecksumRepo(db)
	fileRepo := storage.NewFileRepo(db)
	sectionRepo := storage.NewSectionRepo(db)
	queryRepo := storage.NewQueryRepo(db)
	usageRepo := storage.NewUsageRepo(db)

	if cfg.SourcesFile != "" {
		if _, err := config.LoadSources(ctx, cfg.SourcesFile, cfg.ProjectID, sourceRepo); err != nil {
			log.Fatalf("Failed to load sources file: %v", err)
		}
	}

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	probe, err := embedder.EmbedTexts(ctx, []string{"test"}, "")
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(probe.Vectors) == 0 || len(probe.Vectors[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d", cfg.QdrantVectorSize)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.CompletionModel)

	var moderator rag.Moderator
	if cfg.ModerationEnabled {
		moderator = llm.NewModerationClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
	}

	web := crawler.New(crawler.Config{RateLimit: cfg.CrawlerRateLimit})
	registry := sources.NewRegistry()
	registry.Register(sources.TypeGitHub, sources.NewGitHubResolver(cfg.GitHubToken))
	registry.Register(sources.TypeWebsite, sources.NewWebsiteResolver(web))
	registry.Register(sources.TypeFiles, sources.NewFilesResolver())
	if cfg.MinioEndpoint != "" {
		bucketStore, err := sources.NewS3Store(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("Failed to create bucket client: %v", err)
		}
		registry.Register(sources.TypeBucket, sources.NewBucketResolver(bucketStore))
		slog.Info("Bucket sources enabled", "endpoint", cfg.MinioEndpoint)
	}

	sectionIndexer := indexer.NewSectionIndexer(
		cfg.ProjectID,
		fileRepo,
		sectionRepo,
		checksumRepo,
		usageRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.EmbeddingModelName,
		cfg.TrainingTokenQuota,
	)

	orchestrator := indexer.NewOrchestrator(
		cfg.ProjectID,
		checksumRepo,
		sourceRepo,
		registry,
		sources.NewConnectorSyncer(cfg.ConnectorSyncURL),
		sectionIndexer,
	)

	tier, _ := rag.ParseInsightsTier(cfg.InsightsTier)
	ragEngine := rag.NewEngine(
		rag.Config{
			ProjectID:      cfg.ProjectID,
			Collection:     cfg.QdrantCollection,
			Model:          cfg.CompletionModel,
			EmbeddingModel: cfg.EmbeddingModelName,
			InsightsTier:   tier,
			Moderate:       cfg.ModerationEnabled,
		},
		moderator,
		embedder,
		vectorStore,
		queryRepo,
		usageRepo,
		llmClient,
	)
	slog.Info("RAG engine initialized", "model", cfg.CompletionModel, "insights", tier)

	if cfg.WatchFiles {
		watcher, err := startWatcher(ctx, sourceRepo, orchestrator, cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to start file watcher: %v", err)
		}
		defer func() {
			_ = watcher.Close()
		}()
	}

	router := http.NewRouter(&http.Deps{
		ProjectID: cfg.ProjectID,
		Engine:    ragEngine,
		Trainer:   orchestrator,
		Index:     sectionIndexer,
		Sources:   sourceRepo,
		Queries:   queryRepo,
		Health:    handlers.NewHealthHandler(db, vectorStore, cfg.QdrantCollection),
	})

	if cfg.TrainOnStartup {
		slog.Info("Starting background training of all sources")
		if err := orchestrator.StartAllSources(ctx, false); err != nil {
			slog.Error("Failed to start training", "error", err)
		}
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		orchestrator.Cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.CompletionModel, "embedding_model", cfg.EmbeddingModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// startWatcher retrains files sources whose directories change.
func startWatcher(ctx context.Context, store storage.SourceStore, orchestrator *indexer.Orchestrator, projectID string) (*sources.Watcher, error) {
	watcher, err := sources.NewWatcher(watchDebounce, func(ctx context.Context, sourceID string) {
		logger := contextutil.LoggerFromContext(ctx)
		result, err := orchestrator.TrainSource(ctx, sourceID, false)
		if err != nil {
			if errors.Is(err, service.ErrConflict) {
				logger.InfoContext(ctx, "training in progress, skipping file change", "source_id", sourceID)
				return
			}
			logger.ErrorContext(ctx, "retraining after file change failed", "source_id", sourceID, "error", err)
			return
		}
		logger.InfoContext(ctx, "retrained after file change", "source_id", sourceID, "indexed", result.Indexed, "skipped", result.Skipped)
	})
	if err != nil {
		return nil, err
	}

	srcs, err := store.ListByProject(ctx, projectID)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, src := range srcs {
		if src.Type != sources.TypeFiles {
			continue
		}
		root, _ := src.Config["root"].(string)
		if root == "" {
			continue
		}
		if err := watcher.Add(src.ID, root); err != nil {
			slog.Warn("Failed to watch source", "source", src.Name, "root", root, "error", err)
			continue
		}
		slog.Info("Watching source", "source", src.Name, "root", root)
	}

	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("File watcher stopped", "error", err)
		}
	}()
	return watcher, nil
}
