package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker backed by a buffered channel. It
// serves tests and single-process deployments where the API and worker
// share one binary.
type MemoryBroker struct {
	logger *slog.Logger

	mu     sync.Mutex
	tasks  chan Delivery
	done   chan struct{}
	timers []*time.Timer
	closed bool
}

// NewMemoryBroker creates a MemoryBroker with the given buffer size.
func NewMemoryBroker(size int, logger *slog.Logger) *MemoryBroker {
	if size <= 0 {
		size = 100
	}
	return &MemoryBroker{
		logger: logger.With("component", "memory_broker"),
		tasks:  make(chan Delivery, size),
		done:   make(chan struct{}),
	}
}

// Publish enqueues the message. The returned delivery's Nack(requeue=true)
// republishes with the redelivered flag set.
func (b *MemoryBroker) Publish(ctx context.Context, msg TaskMessage) error {
	return b.enqueue(ctx, msg, false)
}

// PublishDelayed enqueues the message after the delay elapses.
func (b *MemoryBroker) PublishDelayed(ctx context.Context, msg TaskMessage, delay time.Duration) error {
	if delay <= 0 {
		return b.enqueue(ctx, msg, false)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}

	t := time.AfterFunc(delay, func() {
		if err := b.enqueue(context.Background(), msg, false); err != nil {
			b.logger.Warn("failed to deliver delayed message", "task_id", msg.TaskID, "error", err)
		}
	})
	b.timers = append(b.timers, t)
	return nil
}

func (b *MemoryBroker) enqueue(ctx context.Context, msg TaskMessage, redelivered bool) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	b.mu.Unlock()

	del := Delivery{
		Message:     msg,
		Redelivered: redelivered,
		nack: func(requeue bool) error {
			if !requeue {
				return nil
			}
			return b.enqueue(context.Background(), msg, true)
		},
	}

	// The tasks channel is never closed; Close signals done so a send
	// racing with Close fails with ErrBrokerClosed.
	select {
	case b.tasks <- del:
		return nil
	case <-b.done:
		return ErrBrokerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the shared delivery channel.
func (b *MemoryBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case d := <-b.tasks:
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping always succeeds while the broker is open.
func (b *MemoryBroker) Ping(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	return nil
}

// Close stops delayed timers and shuts the queue down. In-flight and
// later publishes fail with ErrBrokerClosed.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, t := range b.timers {
		t.Stop()
	}
	close(b.done)
	return nil
}

var _ Broker = (*MemoryBroker)(nil)
