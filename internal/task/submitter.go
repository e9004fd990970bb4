package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/queue"
)

// Submitter validates generation requests, records them as QUEUED and
// hands them to the broker for asynchronous processing.
type Submitter struct {
	store   Store
	broker  queue.Broker
	emitter *Emitter
	logger  *slog.Logger
}

// NewSubmitter creates a Submitter. All dependencies are required.
func NewSubmitter(store Store, broker queue.Broker, emitter *Emitter, logger *slog.Logger) (*Submitter, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if broker == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Submitter{
		store:   store,
		broker:  broker,
		emitter: emitter,
		logger:  logger.With("component", "task_submitter"),
	}, nil
}

// Submit validates the input, persists a QUEUED record and publishes
// the task to the broker. Returns the new task ID.
//
// Validation errors (empty or out-of-range input, unknown style) are
// returned unwrapped so callers can map them with errors.Is.
func (s *Submitter) Submit(ctx context.Context, userInput, styleName string) (string, error) {
	req, err := domain.NewGenerationRequest("", userInput, styleName)
	if err != nil {
		return "", err
	}

	rec := Record{
		TaskID:    req.ID,
		Status:    StatusQueued,
		Progress:  PendingProgress(),
		UpdatedAt: time.Now(),
	}
	if err := s.store.SetStatus(ctx, rec.TaskID, StatusQueued); err != nil {
		return "", fmt.Errorf("failed to record queued task: %w", err)
	}
	if err := s.store.SetProgress(ctx, rec.TaskID, rec.Progress); err != nil {
		return "", fmt.Errorf("failed to record pending progress: %w", err)
	}

	msg := queue.TaskMessage{
		TaskID:    req.ID,
		UserInput: req.UserInput,
		StyleName: req.StyleName,
	}
	if err := s.broker.Publish(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Info("task submitted",
		"task_id", req.ID,
		"style", req.StyleName,
		"input_length", len(req.UserInput))
	s.emitter.Emit(ctx, Event{TaskID: req.ID, Type: EventQueued})

	return req.ID, nil
}
