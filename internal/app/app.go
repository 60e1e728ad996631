// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/garyellow/course-advisor-go/internal/advisor"
	"github.com/garyellow/course-advisor-go/internal/buildinfo"
	"github.com/garyellow/course-advisor-go/internal/catalog"
	"github.com/garyellow/course-advisor-go/internal/config"
	"github.com/garyellow/course-advisor-go/internal/genai"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/metrics"
	"github.com/garyellow/course-advisor-go/internal/rag"
	"github.com/garyellow/course-advisor-go/internal/ratelimit"
	"github.com/garyellow/course-advisor-go/internal/sentry"
	"github.com/garyellow/course-advisor-go/internal/session"
	"github.com/garyellow/course-advisor-go/internal/transcript"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// indexStatus is the part of the vector index readiness reports on.
type indexStatus interface {
	Count() int
	Source() string
}

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	catalog   *catalog.Catalog
	index     indexStatus
	generator genai.Generator // nil when no provider key is configured
	store     *session.Store
	limiter   *ratelimit.KeyedLimiter
	sink      transcript.Sink
	writer    *transcript.Writer
	advisor   *advisor.Advisor
	server    *http.Server
	closeOnce sync.Once
}

// Initialize creates and initializes a new application with all dependencies.
// A vector index that can be neither loaded nor rebuilt is fatal.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	opts := logger.Options{}
	if cfg.BetterStack.Enabled {
		opts.BetterStackToken = cfg.BetterStack.Token
		opts.BetterStackEndpoint = cfg.BetterStack.Endpoint
	}
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, opts)

	log = log.WithField("service", "course-advisor-go")
	if cfg.ServerName != "" {
		log = log.WithField("instance_id", cfg.ServerName)
	} else if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog calls (genai, sentry) pick up user and request ids
	// through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithFields(map[string]any{
		"version":    buildinfo.Version,
		"commit":     buildinfo.Commit,
		"build_date": buildinfo.BuildDate,
	}).Info("Initializing application...")
	if opts.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStack.Endpoint).Info("Better Stack logging enabled")
	}

	if cfg.Sentry.Enabled {
		release := cfg.Sentry.Release
		if release == "" {
			release = buildinfo.Version
		}
		if err := sentry.Initialize(sentry.Config{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          release,
			SampleRate:       cfg.Sentry.SampleRate,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		log.WithField("environment", cfg.Sentry.Environment).Info("Sentry error reporting enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	// Global metrics serve the genai provider chain.
	metrics.InitGlobal(m)

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	log.WithFields(map[string]any{
		"path":      cfg.CatalogPath,
		"documents": len(cat.Documents),
		"skipped":   cat.Skipped,
	}).Info("Course catalog loaded")

	embedder, err := genai.NewEmbedder(ctx, genai.EmbedderConfig{
		APIKey:  cfg.LLM.GeminiAPIKey,
		Model:   cfg.LLM.EmbeddingModel,
		RPM:     cfg.RateLimit.EmbeddingRPM,
		Timeout: config.EmbeddingRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	index, err := rag.BuildIndex(ctx, rag.IndexConfig{
		Dir:       cfg.IndexDir,
		ChunkSize: cfg.Advisor.ChunkSize,
		Overlap:   cfg.Advisor.ChunkOverlap,
	}, cat, embedder.EmbeddingFunc(), log, m)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}

	var retriever rag.Retriever = rag.NewVectorRetriever(index, m)
	if cfg.Advisor.HybridSearch {
		hybrid, err := rag.NewHybridRetriever(index, log, m)
		if err != nil {
			log.WithError(err).Warn("Keyword index unavailable, using vector search only")
		} else {
			retriever = hybrid
			log.Info("Hybrid search enabled")
		}
	}

	var gen genai.Generator
	if fallback, err := genai.CreateGenerator(ctx, cfg.LLM, genai.DefaultRetryConfig()); err != nil {
		log.WithError(err).Warn("No generator available, replies will use fallback text")
	} else {
		gen = fallback
		log.WithField("providers", cfg.LLM.Providers).Info("LLM generation enabled")
	}

	store := session.NewStore(session.StoreConfig{
		MemoryWindow:    cfg.Advisor.MemoryWindow,
		TTL:             cfg.Session.TTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		Metrics:         m,
	})

	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.RateLimit.UserBurst,
		RefillRate:    cfg.RateLimit.UserRefillSec,
		DailyLimit:    cfg.RateLimit.UserDaily,
		CleanupPeriod: config.RateLimiterCleanup,
		Metrics:       m,
	})

	sink, err := transcript.Open(ctx, cfg)
	if err != nil {
		store.Stop()
		userLimiter.Stop()
		return nil, fmt.Errorf("transcript sink: %w", err)
	}
	writer := transcript.NewWriter(sink, transcript.WriterOptions{
		WriteTimeout: config.TranscriptWrite,
		Logger:       log,
		Metrics:      m,
	})
	log.WithField("sink", sink.Name()).Info("Transcript persistence enabled")

	adv := advisor.New(advisor.Config{
		Store:                store,
		Elicitor:             advisor.NewInterestEngine(gen, cfg.LLM.Timeout),
		Recommender:          advisor.NewRecommender(retriever, gen, cfg.Advisor.RetrievalK, cfg.LLM.Timeout),
		Transcripts:          writer,
		Limiter:              userLimiter,
		Logger:               log,
		Metrics:              m,
		ElicitationThreshold: cfg.Advisor.ElicitationThreshold,
		MaxInterests:         cfg.Advisor.MaxInterests,
	})

	app := &Application{
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		registry:  registry,
		catalog:   cat,
		index:     index,
		generator: gen,
		store:     store,
		limiter:   userLimiter,
		sink:      sink,
		writer:    writer,
		advisor:   adv,
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
//
// Shutdown order:
//  1. Stop accepting requests and wait for in-flight turns
//  2. Drain the transcript queue so the last turns reach the sink
//  3. Release providers, sessions and limiters, then flush logs and Sentry
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Received shutdown signal")
		return a.shutdown()
	})
	return g.Wait()
}

// shutdown stops the HTTP server and then releases resources.
func (a *Application) shutdown() error {
	//nolint:contextcheck // The run context is already canceled here.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.Close(shutdownCtx)
	return nil
}

// Close releases every resource. It is safe to call more than once.
func (a *Application) Close(ctx context.Context) {
	a.closeOnce.Do(func() {
		a.logger.Info("Closing resources...")

		if a.writer != nil {
			flushCtx, cancel := context.WithTimeout(ctx, config.TranscriptFlush)
			if err := a.writer.Close(flushCtx); err != nil {
				a.logger.WithError(err).WithField("component", "transcript_writer").Warn("Component close error")
			}
			cancel()
		}

		if a.generator != nil {
			if err := a.generator.Close(); err != nil {
				a.logger.WithError(err).WithField("component", "generator").Error("Component close error")
			}
		}

		if a.store != nil {
			a.store.Stop()
		}
		a.limiter.Stop()

		sentry.Flush(config.SentryFlush)

		a.logger.Info("Shutdown complete")
		if err := a.logger.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("Logger shutdown timed out")
		}
	})
}
