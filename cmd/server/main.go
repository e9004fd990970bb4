// Command server runs the HTTP gateway: it accepts generation
// requests, serves status polling and results, and exposes the
// synchronous template-gallery path.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memology/memology-api/internal/api"
	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/platform/gemini"
	"github.com/memology/memology-api/internal/platform/logger"
	"github.com/memology/memology-api/internal/platform/redisstore"
	"github.com/memology/memology-api/internal/platform/sdwebui"
	"github.com/memology/memology-api/internal/queue"
	"github.com/memology/memology-api/internal/service/memegen"
	"github.com/memology/memology-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.Setup(cfg.Server.LogLevel)
	logg.Info("gateway starting",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

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

	emitter := task.NewEmitter(logg)
	emitter.RegisterHandler(task.LoggingHandler(logg))

	submitter, err := task.NewSubmitter(store, broker, emitter, logg)
	if err != nil {
		return fmt.Errorf("failed to create submitter: %w", err)
	}

	catalog, err := memegen.NewCatalog(cfg.Memegen.BaseURL, cfg.Memegen.CacheTTL, logg)
	if err != nil {
		return fmt.Errorf("failed to create template catalog: %w", err)
	}
	memegenGen, err := memegen.NewGenerator(catalog, textGen, cfg.Memegen.BaseURL, cfg.LLM.CaptionTimeout, logg)
	if err != nil {
		return fmt.Errorf("failed to create memegen generator: %w", err)
	}

	router := api.NewRouter(api.RouterDeps{
		Memes:   api.NewMemeHandler(submitter, store, artifacts, logg),
		Memegen: api.NewMemegenHandler(memegenGen, logg),
		Upload:  api.NewUploadHandler(artifacts, logg),
		Health: api.NewHealthHandler(map[string]api.Pinger{
			"broker": broker,
			"redis":  store,
			"llm":    textGen,
			"image":  imageGen,
		}, logg),
		WorkerToken: cfg.Server.WorkerToken,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logg.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logg.Info("gateway stopped")
	return nil
}
