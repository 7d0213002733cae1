package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/config"
	dbRedis "github.com/kailas-cloud/imagedex/internal/db/redis"
	"github.com/kailas-cloud/imagedex/internal/domain"
	logpkg "github.com/kailas-cloud/imagedex/internal/logger"
	"github.com/kailas-cloud/imagedex/internal/metrics"
	documentrepo "github.com/kailas-cloud/imagedex/internal/repository/document"
	"github.com/kailas-cloud/imagedex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/imagedex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/imagedex/internal/transport/chi"
	"github.com/kailas-cloud/imagedex/internal/transport/langchain"
	openaiProv "github.com/kailas-cloud/imagedex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/imagedex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/imagedex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/imagedex/internal/usecase/query"
	"github.com/kailas-cloud/imagedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting imagedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Index.Name),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Build provider clients — composition root
	baseEmbedder, embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Providers.Embedding.Model),
		zap.Int("dimensions", cfg.Providers.Embedding.Dimensions),
	)

	summarizer := openaiProv.NewSummarizer(&openaiProv.SummarizerConfig{
		APIKey:    cfg.Providers.Summary.APIKey,
		BaseURL:   cfg.Providers.Summary.BaseURL,
		Model:     cfg.Providers.Summary.Model,
		MaxTokens: cfg.Providers.Summary.MaxTokens,
		Provider:  "openai",
		Logger:    logger,
	})

	extractor, err := langchain.NewExtractor(&langchain.Config{
		APIKey:   cfg.Providers.Extractor.APIKey,
		BaseURL:  cfg.Providers.Extractor.BaseURL,
		Model:    cfg.Providers.Extractor.Model,
		Provider: "openai",
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create extractor", zap.Error(err))
	}

	// Create repositories
	docRepo := documentrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Create use case services
	ingestSvc := ingestuc.New(docRepo, cfg.Index.Name)
	querySvc := queryuc.New(searchRepo, extractor, summarizer, embedder, cfg.Index.Name, cfg.Index.TopK)
	healthSvc := healthuc.New(store, baseEmbedder)

	// Create chi server
	server := chiTransport.NewServer(ingestSvc, querySvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
// The base client is returned separately for health checks.
func buildEmbedder(
	cfg config.Config, store *dbRedis.Store, logger *zap.Logger,
) (*openaiProv.Embedder, domain.Embedder) {
	base := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     cfg.Providers.Embedding.APIKey,
		BaseURL:    cfg.Providers.Embedding.BaseURL,
		Model:      cfg.Providers.Embedding.Model,
		Dimensions: cfg.Providers.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	if store == nil {
		return base, base
	}
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	return base, embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
}
