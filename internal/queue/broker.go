// Package queue provides the message broker boundary used to distribute
// generation tasks to workers, with an AMQP implementation for production
// and an in-memory implementation for tests and single-process runs.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Priority selects the work queue a submission lands on. There is no
// ordering guarantee beyond the high/default split.
type Priority string

const (
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// ErrBrokerClosed is returned when publishing to a closed broker.
var ErrBrokerClosed = errors.New("broker is closed")

// TaskMessage is the wire payload for one generation task. RetryCount
// travels with the message so a re-queued retry resumes its budget.
type TaskMessage struct {
	TaskID     string   `json:"task_id"`
	UserInput  string   `json:"user_input"`
	StyleName  string   `json:"style,omitempty"`
	RetryCount int      `json:"retry_count"`
	Priority   Priority `json:"priority,omitempty"`
}

// Encode serializes the message for the wire.
func (m TaskMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task message: %w", err)
	}
	return data, nil
}

// DecodeTaskMessage parses a wire payload.
func DecodeTaskMessage(data []byte) (TaskMessage, error) {
	var m TaskMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return TaskMessage{}, fmt.Errorf("failed to decode task message: %w", err)
	}
	if m.TaskID == "" {
		return TaskMessage{}, errors.New("task message has no task id")
	}
	return m, nil
}

// Delivery is one consumed message plus its acknowledgement controls.
// Workers acknowledge only after completing (or terminally failing) the
// task, so a worker lost mid-task causes redelivery.
type Delivery struct {
	Message TaskMessage

	// Redelivered reports that the broker already delivered this message
	// once; the orchestrator treats such deliveries as a fresh retry.
	Redelivered bool

	ack  func() error
	nack func(requeue bool) error
}

// NewDelivery wraps a message with acknowledgement callbacks. Either
// callback may be nil, in which case the operation is a no-op.
func NewDelivery(msg TaskMessage, redelivered bool, ack func() error, nack func(requeue bool) error) Delivery {
	return Delivery{Message: msg, Redelivered: redelivered, ack: ack, nack: nack}
}

// Ack confirms successful processing.
func (d *Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nack rejects the delivery, optionally requeueing it.
func (d *Delivery) Nack(requeue bool) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(requeue)
}

// Broker distributes task messages to workers. Implementations guarantee
// at-most-one active delivery per message under acknowledge-after-
// completion semantics.
type Broker interface {
	// Publish enqueues a message for immediate consumption.
	Publish(ctx context.Context, msg TaskMessage) error

	// PublishDelayed enqueues a message that becomes consumable only
	// after the given delay. Used for retry backoff so waits happen in
	// the broker, not in a worker loop.
	PublishDelayed(ctx context.Context, msg TaskMessage, delay time.Duration) error

	// Consume returns a channel of deliveries. The channel closes when
	// the context is cancelled or the broker shuts down.
	Consume(ctx context.Context) (<-chan Delivery, error)

	// Ping reports broker reachability for health checks.
	Ping(ctx context.Context) error

	// Close releases broker resources.
	Close() error
}
