package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/config"
	"github.com/altglass/semqa/internal/corpus"
	"github.com/altglass/semqa/internal/db"
	dbRedis "github.com/altglass/semqa/internal/db/redis"
	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/index/exact"
	"github.com/altglass/semqa/internal/index/ivf"
	logpkg "github.com/altglass/semqa/internal/logger"
	"github.com/altglass/semqa/internal/metrics"
	"github.com/altglass/semqa/internal/repository/embcache"
	chiTransport "github.com/altglass/semqa/internal/transport/chi"
	openaiTransport "github.com/altglass/semqa/internal/transport/openai"
	embeddinguc "github.com/altglass/semqa/internal/usecase/embedding"
	healthuc "github.com/altglass/semqa/internal/usecase/health"
	qauc "github.com/altglass/semqa/internal/usecase/qa"
	searchuc "github.com/altglass/semqa/internal/usecase/search"
	"github.com/altglass/semqa/internal/version"
)

func main() {
	// Local development convenience; absence of .env is not an error.
	_ = godotenv.Load()

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

	logger.Info("Starting semqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_path", cfg.Corpus.Path),
		zap.String("corpus_format", cfg.Corpus.Format),
	)

	// Corpus load is fatal on any inconsistency: the process must not
	// come up over a broken corpus.
	store, err := loadCorpus(cfg.Corpus)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded",
		zap.Int("documents", store.Size()),
		zap.Int("dimension", store.Dimension()),
	)

	ctx := context.Background()

	// Optional embedding cache
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(ctx, 30*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Register domain metrics explicitly (no init())
	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		RateLimit:  cfg.Embedding.RateLimit,
		Logger:     logger,
	})
	embedder := buildEmbedder(baseEmbedder, cacheStore, cfg, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", cacheStore != nil),
	)

	// Optional answer generator; nil disables generation and the assembler
	// returns stored answers verbatim.
	var generator qauc.Generator
	if cfg.Generation.Enabled {
		generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:          cfg.Generation.APIKey,
			BaseURL:         cfg.Generation.BaseURL,
			Model:           cfg.Generation.Model,
			Provider:        cfg.Embedding.Provider,
			Temperature:     cfg.Generation.Temperature,
			MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		})
		logger.Info("Answer generator enabled", zap.String("model", cfg.Generation.Model))
	}

	// Partition index: load snapshot when present, train otherwise.
	approxIndex, err := loadOrTrainIndex(ctx, store, cfg.Index, logger)
	if err != nil {
		logger.Fatal("Failed to build partition index", zap.Error(err))
	}

	builder := ivf.NewBuilder(store, indexOptions(cfg.Index))
	searchSvc := searchuc.New(
		embedder, exact.New(store), approxIndex, builder,
		cfg.Index.LeavesToSearch, logger,
	)
	qaSvc := qauc.New(searchSvc, store, generator, logger)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(store, baseEmbedder, cachePinger)

	server := chiTransport.NewServer(qaSvc, searchSvc, store, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

// loadCorpus reads the corpus file in the configured format.
func loadCorpus(cfg config.CorpusConfig) (*corpus.Store, error) {
	var records []corpus.Record
	var err error

	switch cfg.Format {
	case "parquet":
		records, err = corpus.LoadParquet(cfg.Path)
	default:
		records, err = corpus.LoadCSV(cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", cfg.Path, err)
	}

	return corpus.Load(records)
}

func indexOptions(cfg config.IndexConfig) ivf.Options {
	return ivf.Options{
		NumLeaves:          cfg.NumLeaves,
		TrainingSampleSize: cfg.TrainingSampleSize,
		Seed:               cfg.Seed,
		MaxIterations:      cfg.MaxIterations,
	}
}

// loadOrTrainIndex restores the index from a snapshot when one exists and
// matches the corpus; otherwise it trains from scratch and writes a fresh
// snapshot if a path is configured.
func loadOrTrainIndex(
	ctx context.Context, store *corpus.Store, cfg config.IndexConfig, logger *zap.Logger,
) (*ivf.Index, error) {
	if cfg.SnapshotPath != "" {
		if ix, err := ivf.LoadSnapshot(cfg.SnapshotPath, store); err == nil {
			logger.Info("Partition index restored from snapshot",
				zap.String("path", cfg.SnapshotPath),
				zap.Int("num_leaves", ix.NumLeaves()),
			)
			return ix, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Snapshot unusable, retraining",
				zap.String("path", cfg.SnapshotPath),
				zap.Error(err),
			)
		}
	}

	start := time.Now()
	ix, err := ivf.Train(ctx, store, indexOptions(cfg))
	if err != nil {
		return nil, err
	}
	logger.Info("Partition index trained",
		zap.Int("num_leaves", ix.NumLeaves()),
		zap.Duration("duration", time.Since(start)),
	)

	if cfg.SnapshotPath != "" {
		if err := ix.SaveSnapshot(cfg.SnapshotPath); err != nil {
			logger.Warn("Failed to persist index snapshot", zap.Error(err))
		}
	}
	return ix, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Retry -> Instrumented.
func buildEmbedder(
	base *openaiTransport.Embedder,
	cacheStore db.Store,
	cfg config.Config,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base

	if cacheStore != nil {
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		embedder = embcache.New(embedder, cacheStore, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewRetryEmbedder(embedder, embeddinguc.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	}, logger)

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
