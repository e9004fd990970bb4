// Command cli generates memes synchronously from the command line,
// driving the pipeline directly without the broker or task store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/imaging"
	"github.com/memology/memology-api/internal/platform/gemini"
	"github.com/memology/memology-api/internal/platform/logger"
	"github.com/memology/memology-api/internal/platform/sdwebui"
	"github.com/memology/memology-api/internal/service/meme"
	"github.com/memology/memology-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("cli failed: %v", err)
	}
}

func run() error {
	style := pflag.String("style", "", "style name (random if empty)")
	count := pflag.IntP("count", "n", 1, "number of memes to generate")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <meme idea text>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		return fmt.Errorf("meme idea text is required")
	}
	text := strings.Join(pflag.Args(), " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.Setup(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	for i := 0; i < *count; i++ {
		fmt.Printf("Generating meme %d/%d...\n", i+1, *count)

		req, err := domain.NewGenerationRequest("", text, *style)
		if err != nil {
			return err
		}

		result, err := pipeline.Generate(ctx, *req, func(current int, stage string) {
			fmt.Printf("  [%d/%d] %s\n", current, task.TotalStages, stage)
		})
		if err != nil {
			return err
		}
		if result.Success {
			fmt.Printf("Saved: %s (%.1fs)\n", result.FinalImagePath, result.GenerationTime)
		} else {
			fmt.Printf("Error: %s\n", result.ErrorMessage)
		}
	}
	return nil
}
