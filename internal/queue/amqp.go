package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/memology/memology-api/internal/config"
)

// Queue name suffixes derived from the configured base queue name.
const (
	highSuffix  = "_high"
	retrySuffix = "_retry"
)

// AMQPBroker is the RabbitMQ-backed Broker. It declares three durable
// queues: the default work queue, a high-priority work queue consumed
// alongside it, and a retry queue whose dead-letter target is the work
// queue: publishing there with a per-message TTL implements delayed
// redelivery without worker-side sleeps.
type AMQPBroker struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger

	queue    string
	prefetch int

	mu     sync.Mutex
	closed bool
}

// NewAMQPBroker dials the broker and declares the queue topology.
func NewAMQPBroker(cfg config.BrokerConfig, logger *slog.Logger) (*AMQPBroker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	b := &AMQPBroker{
		conn:     conn,
		ch:       ch,
		logger:   logger.With("component", "amqp_broker"),
		queue:    cfg.Queue,
		prefetch: cfg.Prefetch,
	}

	if err := b.declareTopology(); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return b, nil
}

func (b *AMQPBroker) declareTopology() error {
	for _, name := range []string{b.queue, b.queue + highSuffix} {
		if _, err := b.ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	// Dead-lettering from the retry queue routes expired messages back
	// into the default work queue via the default exchange.
	if _, err := b.ch.QueueDeclare(
		b.queue+retrySuffix,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": b.queue,
		},
	); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// Publish enqueues a persistent message on the work queue matching the
// message priority.
func (b *AMQPBroker) Publish(ctx context.Context, msg TaskMessage) error {
	routingKey := b.queue
	if msg.Priority == PriorityHigh {
		routingKey = b.queue + highSuffix
	}
	return b.publish(ctx, routingKey, msg, 0)
}

// PublishDelayed enqueues the message on the retry queue with a
// per-message TTL; expiry dead-letters it back onto the work queue.
func (b *AMQPBroker) PublishDelayed(ctx context.Context, msg TaskMessage, delay time.Duration) error {
	return b.publish(ctx, b.queue+retrySuffix, msg, delay)
}

func (b *AMQPBroker) publish(ctx context.Context, routingKey string, msg TaskMessage, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}

	body, err := msg.Encode()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
	if ttl > 0 {
		pub.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}

	if err := b.ch.Publish("", routingKey, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}

	b.logger.DebugContext(ctx, "message published",
		"task_id", msg.TaskID,
		"queue", routingKey,
		"retry_count", msg.RetryCount,
		"ttl_ms", ttl.Milliseconds())

	return nil
}

// Consume merges deliveries from the high-priority and default work
// queues into one channel. Prefetch bounds unacknowledged deliveries so a
// worker holds at most that many tasks (default 1, the image backend is a
// scarce resource).
func (b *AMQPBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	if err := b.ch.Qos(b.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	out := make(chan Delivery)
	var wg sync.WaitGroup

	for _, name := range []string{b.queue + highSuffix, b.queue} {
		deliveries, err := b.ch.Consume(
			name,
			"",    // consumer tag
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to consume from %s: %w", name, err)
		}

		wg.Add(1)
		go func(queueName string, in <-chan amqp.Delivery) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-in:
					if !ok {
						return
					}

					msg, err := DecodeTaskMessage(d.Body)
					if err != nil {
						// Undecodable payloads are dropped, not
						// requeued: they can never succeed.
						b.logger.Error("dropping undecodable task message",
							"queue", queueName,
							"error", err)
						_ = d.Nack(false, false)
						continue
					}

					del := Delivery{
						Message:     msg,
						Redelivered: d.Redelivered,
						ack:         func() error { return d.Ack(false) },
						nack:        func(requeue bool) error { return d.Nack(false, requeue) },
					}

					select {
					case out <- del:
					case <-ctx.Done():
						_ = d.Nack(false, true)
						return
					}
				}
			}
		}(name, deliveries)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

// Ping reports whether the underlying connection is alive.
func (b *AMQPBroker) Ping(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.conn.IsClosed() {
		return ErrBrokerClosed
	}
	return nil
}

// Close shuts down the channel and connection.
func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.ch.Close(); err != nil {
		b.logger.Warn("failed to close AMQP channel", "error", err)
	}
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("failed to close AMQP connection: %w", err)
	}
	return nil
}

var _ Broker = (*AMQPBroker)(nil)
