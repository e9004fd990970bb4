package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a task lifecycle transition.
type EventType string

// Lifecycle event types emitted as tasks move through the pipeline.
const (
	EventQueued    EventType = "task.queued"
	EventStarted   EventType = "task.started"
	EventProgress  EventType = "task.progress"
	EventRetried   EventType = "task.retried"
	EventSucceeded EventType = "task.succeeded"
	EventFailed    EventType = "task.failed"
)

// Event describes a single lifecycle transition of a task.
type Event struct {
	TaskID     string
	Type       EventType
	RetryCount int
	Progress   Progress
	Error      string
	At         time.Time
}

// EventHandler receives lifecycle events. Handlers must be safe for
// concurrent use; they are invoked from worker goroutines.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event Event)

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

// Emitter dispatches lifecycle events to registered handlers. Handlers
// are called synchronously in registration order.
type Emitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

// NewEmitter creates an Emitter with no handlers registered.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{
		logger: logger.With("component", "task_event_emitter"),
	}
}

// RegisterHandler adds a handler to receive all subsequent events.
func (e *Emitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// Emit publishes the event to all registered handlers.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler.HandleEvent(ctx, event)
	}
}

// LoggingHandler returns a handler that writes every event to the
// structured log, the default observer wired in at startup.
func LoggingHandler(logger *slog.Logger) EventHandler {
	return EventHandlerFunc(func(_ context.Context, event Event) {
		attrs := []any{
			"task_id", event.TaskID,
			"event", string(event.Type),
			"retry_count", event.RetryCount,
		}
		switch event.Type {
		case EventFailed:
			logger.Error("task failed", append(attrs, "error", event.Error)...)
		case EventRetried:
			logger.Warn("task scheduled for retry", append(attrs, "error", event.Error)...)
		case EventProgress:
			logger.Debug("task progress",
				append(attrs, "current", event.Progress.Current, "stage", event.Progress.Status)...)
		default:
			logger.Info("task lifecycle", attrs...)
		}
	})
}
