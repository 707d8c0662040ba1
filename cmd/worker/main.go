package main

import (
	"context"
	"log"

	"voxlit/internal/activities"
	"voxlit/internal/app"
	"voxlit/internal/config"
	"voxlit/internal/logging"
	"voxlit/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := logging.New(logging.Options{File: cfg.LogFile, Production: cfg.LogProduction})
	defer func() { _ = logger.Sync() }()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	kb, err := app.BuildKnowledge(context.Background(), cfg, true, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer kb.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, kb.Ingestor, logger))

	logger.Info("voxlit worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("llm_providers", cfg.LLMProviders),
		zap.String("embed_providers", cfg.EmbedProviders),
		zap.Int("llm_count", kb.Providers.LLMCount()),
		zap.Int("embed_count", kb.Providers.EmbedCount()),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker stopped", zap.Error(err))
	}
}
