// Command worker consumes generation tasks from the broker, runs the
// meme pipeline and maintains the artifact directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/imaging"
	"github.com/memology/memology-api/internal/platform/gemini"
	"github.com/memology/memology-api/internal/platform/logger"
	"github.com/memology/memology-api/internal/platform/redisstore"
	"github.com/memology/memology-api/internal/platform/sdwebui"
	"github.com/memology/memology-api/internal/queue"
	"github.com/memology/memology-api/internal/service/meme"
	"github.com/memology/memology-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.Setup(cfg.Server.LogLevel)
	logg.Info("worker starting", "log_level", cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	store, err := redisstore.New(redisClient, cfg.Redis.ResultTTL, logg)
	if err != nil {
		return fmt.Errorf("failed to create task store: %w", err)
	}

	broker, err := queue.NewAMQPBroker(cfg.Broker, logg)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer func() { _ = broker.Close() }()

	textGen, err := gemini.NewTextGenerator(ctx, logg, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create text generator: %w", err)
	}

	imageGen, err := sdwebui.NewClient(logg, cfg.ImageGen)
	if err != nil {
		return fmt.Errorf("failed to create image backend client: %w", err)
	}

	artifacts, err := artifact.NewStore(cfg.Artifact.Dir)
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}

	prompts, err := meme.NewPromptService(textGen, cfg.LLM.PromptTimeout, logg)
	if err != nil {
		return fmt.Errorf("failed to create prompt service: %w", err)
	}
	captions, err := meme.NewCaptionService(textGen, cfg.LLM.CaptionTimeout, logg)
	if err != nil {
		return fmt.Errorf("failed to create caption service: %w", err)
	}

	renderer := imaging.NewRenderer(logg, cfg.Artifact.FontPath)
	pipeline, err := meme.NewService(prompts, captions, imageGen, renderer, artifacts, logg)
	if err != nil {
		return fmt.Errorf("failed to create meme service: %w", err)
	}

	emitter := task.NewEmitter(logg)
	emitter.RegisterHandler(task.LoggingHandler(logg))

	orchestrator, err := task.NewOrchestrator(store, broker, pipeline, task.OrchestratorConfig{
		Workers: 1,
		Retry: task.RetryPolicy{
			MaxRetries: cfg.Task.MaxRetries,
			BaseDelay:  cfg.Task.RetryBaseDelay,
			MaxDelay:   cfg.Task.RetryMaxDelay,
		},
		SoftTimeLimit: cfg.Task.SoftTimeLimit,
		HardTimeLimit: cfg.Task.HardTimeLimit,
	}, emitter, logg)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	cleaner := artifact.NewCleaner(artifacts, cfg.Artifact.Retention, cfg.Artifact.CleanupInterval, logg)
	go cleaner.Run(ctx)

	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("orchestrator stopped: %w", err)
	}

	logg.Info("worker stopped")
	return nil
}
