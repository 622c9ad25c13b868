package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/config"
	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/index/embedding"
	"github.com/roosthq/roost/internal/index/lexical"
	logpkg "github.com/roosthq/roost/internal/logger"
	"github.com/roosthq/roost/internal/metrics"
	"github.com/roosthq/roost/internal/query"
	listingrepo "github.com/roosthq/roost/internal/repository/listing"
	chiTransport "github.com/roosthq/roost/internal/transport/chi"
	openaiEmb "github.com/roosthq/roost/internal/transport/openai"
	healthuc "github.com/roosthq/roost/internal/usecase/health"
	listingsuc "github.com/roosthq/roost/internal/usecase/listings"
	retrievaluc "github.com/roosthq/roost/internal/usecase/retrieval"
	searchuc "github.com/roosthq/roost/internal/usecase/search"
	"github.com/roosthq/roost/internal/version"
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

	logger.Info("Starting roost API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_driver", cfg.Corpus.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	vocab, err := query.LoadVocab(cfg.Vocab.Path)
	if err != nil {
		logger.Fatal("Failed to load vocabulary", zap.Error(err), zap.String("path", cfg.Vocab.Path))
	}

	ctx := context.Background()

	// Create the listing source based on driver
	var source corpus.Source
	var store *listingrepo.Store
	switch cfg.Corpus.Driver {
	case "file":
		source = corpus.NewFileSource(cfg.Corpus.Path, logger)
	case "redis":
		store, err = listingrepo.NewStore(listingrepo.Config{
			Addrs:     cfg.Corpus.Addrs,
			Password:  cfg.Corpus.Password,
			KeyPrefix: cfg.Corpus.KeyPrefix,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create listing store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Corpus.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Listing store not ready", zap.Error(err))
		}
		logger.Info("Connected to listing store")
		source = store
	default:
		logger.Fatal("Unknown corpus driver", zap.String("driver", cfg.Corpus.Driver))
	}

	var detections map[string][]string
	if cfg.Corpus.DetectionsPath != "" {
		detections, err = corpus.LoadDetections(cfg.Corpus.DetectionsPath)
		if err != nil {
			logger.Fatal("Failed to load amenity detections", zap.Error(err),
				zap.String("path", cfg.Corpus.DetectionsPath))
		}
		logger.Info("Loaded amenity detections", zap.Int("listings", len(detections)))
	}

	adapter := corpus.NewAdapter(source, vocab, detections, cfg.Corpus.MaxMalformedFraction, logger)
	corp, err := adapter.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded",
		zap.Int("listings", corp.Len()),
		zap.String("fingerprint", corp.Fingerprint()),
	)

	lexIndex := lexical.Build(corp.All())
	logger.Info("Lexical index built", zap.Int("terms", lexIndex.Terms()))

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	// A failed semantic build is survivable. Search runs on the lexical
	// index alone until the next restart.
	// Pass nil interface (not typed nil pointer!) downstream in that case.
	var semantic searchuc.SemanticIndex
	var searcher retrievaluc.VectorSearcher
	var embChecker healthuc.EmbeddingChecker
	semIndex, err := embedding.Build(ctx, embedder, corp.All(), embedding.BuildOptions{
		BatchSize:   cfg.Embedding.BatchSize,
		Workers:     cfg.Embedding.Workers,
		MaxRetries:  cfg.Embedding.MaxRetries,
		RetryDelay:  time.Duration(cfg.Embedding.RetryBaseDelayMs) * time.Millisecond,
		CachePath:   cfg.Embedding.CachePath,
		Fingerprint: corp.Fingerprint(),
	}, logger)
	if err != nil {
		logger.Warn("Semantic index build failed, starting in degraded mode", zap.Error(err))
	} else {
		semantic = semIndex
		searcher = semIndex
		embChecker = embedder
		logger.Info("Semantic index built",
			zap.Int("vectors", semIndex.Size()),
			zap.Int("dimensions", semIndex.Dimensions()),
		)
	}

	// Create use case services
	parser := query.NewParser(vocab)
	searchSvc := searchuc.New(parser, corp, lexIndex, semantic, cfg.Search.TopN, cfg.Search.MinCandidates)
	listingsSvc := listingsuc.New(corp, cfg.Search.FeaturedCount)
	retrievalSvc := retrievaluc.New(corp, searcher, cfg.Search.RetrievalMaxK)

	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(corp, pinger, embChecker)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, listingsSvc, retrievalSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
					_ = json.NewEncoder(w).Encode(map[string]string{
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
