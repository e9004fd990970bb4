package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/queue"
)

// ProgressFunc is called by the pipeline as it advances through stages.
type ProgressFunc func(current int, stage string)

// Pipeline produces a finished meme for a generation request, reporting
// stage progress through the callback.
type Pipeline interface {
	Generate(ctx context.Context, req domain.GenerationRequest, report ProgressFunc) (domain.GenerationResult, error)
}

// OrchestratorConfig holds tuning knobs for the worker loop.
type OrchestratorConfig struct {
	// Workers determines how many deliveries are processed concurrently.
	Workers int

	// Retry controls the retry budget and backoff between attempts.
	Retry RetryPolicy

	// SoftTimeLimit bounds the pipeline work for a single attempt.
	// Exceeding it fails the attempt, which may then be retried.
	SoftTimeLimit time.Duration

	// HardTimeLimit bounds the entire handling of a delivery including
	// state writes. Exceeding it abandons the attempt outright.
	HardTimeLimit time.Duration
}

// DefaultOrchestratorConfig returns the production defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Workers:       1,
		Retry:         DefaultRetryPolicy(),
		SoftTimeLimit: 25 * time.Minute,
		HardTimeLimit: 30 * time.Minute,
	}
}

// Orchestrator consumes task deliveries from the broker and drives each
// through the generation lifecycle: STARTED, staged progress, and then
// SUCCESS, RETRY or FAILURE depending on the outcome and retry budget.
type Orchestrator struct {
	store    Store
	broker   queue.Broker
	pipeline Pipeline
	config   OrchestratorConfig
	emitter  *Emitter
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. All dependencies are required.
func NewOrchestrator(
	store Store,
	broker queue.Broker,
	pipeline Pipeline,
	config OrchestratorConfig,
	emitter *Emitter,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if broker == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.SoftTimeLimit <= 0 {
		config.SoftTimeLimit = DefaultOrchestratorConfig().SoftTimeLimit
	}
	if config.HardTimeLimit <= config.SoftTimeLimit {
		config.HardTimeLimit = config.SoftTimeLimit + 5*time.Minute
	}
	return &Orchestrator{
		store:    store,
		broker:   broker,
		pipeline: pipeline,
		config:   config,
		emitter:  emitter,
		logger:   logger.With("component", "task_orchestrator"),
	}, nil
}

// Run consumes deliveries until the context is cancelled or the broker
// closes the delivery channel. It blocks for the lifetime of the worker.
func (o *Orchestrator) Run(ctx context.Context) error {
	deliveries, err := o.broker.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	o.logger.Info("worker started", "workers", o.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < o.config.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					o.handle(ctx, d, id)
				}
			}
		}(i)
	}
	wg.Wait()

	o.logger.Info("worker stopped")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// handle processes a single delivery end to end and always acks it:
// failed attempts are re-published through the retry queue rather than
// redelivered via nack, so the retry count survives.
func (o *Orchestrator) handle(ctx context.Context, d queue.Delivery, workerID int) {
	msg := d.Message
	logger := o.logger.With(
		"task_id", msg.TaskID,
		"retry_count", msg.RetryCount,
		"worker_id", workerID,
	)

	hardCtx, cancelHard := context.WithTimeout(ctx, o.config.HardTimeLimit)
	defer cancelHard()

	if err := o.store.SetStatus(hardCtx, msg.TaskID, StatusStarted); err != nil {
		logger.Error("failed to mark task started", "error", err)
	}
	o.reportProgress(hardCtx, msg.TaskID, 0, "Initializing services...")
	o.emitter.Emit(hardCtx, Event{TaskID: msg.TaskID, Type: EventStarted, RetryCount: msg.RetryCount})

	style, ok := domain.StyleByName(msg.StyleName)
	if !ok {
		// An empty style means the caller left the choice to us. A
		// non-empty unknown one means the catalog changed between
		// submit and execution; fall back rather than fail the task.
		style = domain.RandomStyle()
		if msg.StyleName != "" {
			logger.Warn("unknown style, picked a random one",
				"requested_style", msg.StyleName,
				"style", style.Name)
		}
	}

	req := domain.GenerationRequest{
		ID:        msg.TaskID,
		UserInput: msg.UserInput,
		StyleName: style.Name,
		CreatedAt: time.Now(),
	}

	softCtx, cancelSoft := context.WithTimeout(hardCtx, o.config.SoftTimeLimit)
	result, genErr := o.pipeline.Generate(softCtx, req, func(current int, stage string) {
		o.reportProgress(hardCtx, msg.TaskID, current, stage)
	})
	cancelSoft()

	if genErr == nil && !result.Success {
		genErr = fmt.Errorf("generation unsuccessful: %s", result.ErrorMessage)
	}
	if genErr != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the attempt. Hand the message back to
			// the broker so another worker reruns it at the same retry
			// count instead of burning the budget on a cancelled context.
			logger.Warn("shutdown interrupted attempt, requeueing", "error", genErr)
			if err := d.Nack(true); err != nil {
				logger.Error("failed to requeue delivery", "error", err)
			}
			return
		}
		if errors.Is(genErr, context.DeadlineExceeded) && softCtx.Err() != nil {
			genErr = fmt.Errorf("generation exceeded time limit of %s: %w", o.config.SoftTimeLimit, genErr)
		}
		o.retryOrFail(hardCtx, msg, genErr, logger)
		if err := d.Ack(); err != nil {
			logger.Error("failed to ack delivery", "error", err)
		}
		return
	}

	o.reportProgress(hardCtx, msg.TaskID, TotalStages, "Generation complete")
	if err := o.store.SetResult(hardCtx, msg.TaskID, result); err != nil {
		logger.Error("failed to store generation result", "error", err)
	}
	logger.Info("task succeeded",
		"generation_id", result.GenerationID,
		"generation_time", result.GenerationTime)
	o.emitter.Emit(hardCtx, Event{TaskID: msg.TaskID, Type: EventSucceeded, RetryCount: msg.RetryCount})

	if err := d.Ack(); err != nil {
		logger.Error("failed to ack delivery", "error", err)
	}
}

// retryOrFail re-publishes the task with a backoff delay while the
// retry budget allows, otherwise marks it FAILURE.
func (o *Orchestrator) retryOrFail(ctx context.Context, msg queue.TaskMessage, cause error, logger *slog.Logger) {
	if msg.RetryCount < o.config.Retry.MaxRetries {
		next := msg
		next.RetryCount++
		delay := o.config.Retry.Delay(msg.RetryCount)

		if err := o.store.SetRetry(ctx, msg.TaskID, next.RetryCount, cause.Error()); err != nil {
			logger.Error("failed to record retry state", "error", err)
		}
		if err := o.broker.PublishDelayed(ctx, next, delay); err != nil {
			logger.Error("failed to schedule retry, failing task", "error", err)
			o.fail(ctx, msg.TaskID, msg.RetryCount, cause, logger)
			return
		}

		logger.Warn("attempt failed, retry scheduled",
			"error", cause,
			"next_retry", next.RetryCount,
			"delay", delay)
		o.emitter.Emit(ctx, Event{
			TaskID:     msg.TaskID,
			Type:       EventRetried,
			RetryCount: next.RetryCount,
			Error:      cause.Error(),
		})
		return
	}
	o.fail(ctx, msg.TaskID, msg.RetryCount, cause, logger)
}

func (o *Orchestrator) fail(ctx context.Context, taskID string, retryCount int, cause error, logger *slog.Logger) {
	if err := o.store.SetFailure(ctx, taskID, cause.Error()); err != nil {
		logger.Error("failed to record task failure", "error", err)
	}
	logger.Error("task failed permanently", "error", cause, "attempts", retryCount+1)
	o.emitter.Emit(ctx, Event{
		TaskID:     taskID,
		Type:       EventFailed,
		RetryCount: retryCount,
		Error:      cause.Error(),
	})
}

func (o *Orchestrator) reportProgress(ctx context.Context, taskID string, current int, stage string) {
	p := Progress{Current: current, Total: TotalStages, Status: stage}
	if err := o.store.SetProgress(ctx, taskID, p); err != nil {
		o.logger.Error("failed to record progress",
			"task_id", taskID,
			"stage", stage,
			"error", err)
	}
	o.emitter.Emit(ctx, Event{TaskID: taskID, Type: EventProgress, Progress: p})
}
