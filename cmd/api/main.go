package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxlit/internal/api"
	"voxlit/internal/app"
	"voxlit/internal/config"
	"voxlit/internal/jobs"
	"voxlit/internal/logging"
	"voxlit/internal/orchestrator"
	"voxlit/internal/providers"
	"voxlit/internal/sandbox"
	"voxlit/internal/search"
	"voxlit/internal/session"
	"voxlit/internal/synthesis"
	"voxlit/internal/tools"
	"voxlit/internal/workflows"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// sink is what both persistence backends offer.
type sink interface {
	tools.ResultSink
	orchestrator.LinkIngester
	api.PDFIngester
}

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := logging.New(logging.Options{File: cfg.LogFile, Production: cfg.LogProduction})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kb, err := app.BuildKnowledge(ctx, cfg, cfg.UseTemporal(), logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer kb.Close()

	sessions, closeSessions, err := buildSessions(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer closeSessions()

	var persist sink
	if cfg.UseTemporal() {
		tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal("startup failed", zap.Error(err))
		}
		defer tc.Close()
		ts := workflows.NewTemporalSink(tc, cfg.TemporalTaskQueue, cfg.DataInRoot, logger)
		defer ts.Wait()
		persist = ts
	} else {
		queues := jobs.NewIngestQueues(kb.Ingestor, nil, cfg.QueueSize, cfg.QueueWorkers, logger)
		queues.Start(ctx)
		defer queues.Close()
		persist = queues
	}

	tts, err := providers.NewSpeechProvider(cfg)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	tavily := search.NewTavilyClient(os.Getenv("TAVILY_API_KEY"), cfg.TavilyBaseURL)
	dispatcher := tools.NewDispatcher(
		search.NewArxivClient(cfg.ArxivBaseURL),
		search.WebSearcher{Client: tavily},
		search.PatentSearcher{Client: tavily},
		sandbox.New(cfg.SandboxTimeout),
		tools.NewLLMHumanizer(kb.Providers, logger),
		persist,
		logger,
	)
	orch := orchestrator.New(sessions, kb.Providers, kb.Store, dispatcher, orchestrator.Options{
		HistoryLimit:    cfg.HistoryLimit,
		SummaryEvery:    cfg.SummaryEvery,
		RetrievalK:      cfg.RetrievalK,
		ContextMaxChars: cfg.ContextMaxChars,
	}, logger).WithAudit(kb.Audit).WithLinkIngester(persist)

	srv := api.NewServer(api.Deps{
		Chat:      orch,
		Speech:    synthesis.NewPipeline(tts, logger),
		Knowledge: kb.Store,
		Uploads:   persist,
		Ping:      kb.Ping,
		Logger:    logger,
	})
	httpServer := &http.Server{Addr: cfg.APIAddr, Handler: srv.Routes(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("voxlit api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("llm_providers", cfg.LLMProviders),
		zap.String("embed_providers", cfg.EmbedProviders),
		zap.Int("llm_count", kb.Providers.LLMCount()),
		zap.Int("embed_count", kb.Providers.EmbedCount()),
		zap.String("tts", cfg.TTSProvider),
		zap.String("persist_mode", cfg.PersistMode),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api server stopped", zap.Error(err))
	}
}

func buildSessions(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewCacheStore(cfg.SessionTTL), func() {}, nil
	}
	rs, err := session.NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}
