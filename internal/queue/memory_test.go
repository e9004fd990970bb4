package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestTaskMessageRoundTrip(t *testing.T) {
	msg := TaskMessage{
		TaskID:     "task-1",
		UserInput:  "кот пьет кофе",
		StyleName:  "realistic",
		RetryCount: 1,
		Priority:   PriorityHigh,
	}

	data, err := msg.Encode()
	require.NoError(t, err)

	got, err := DecodeTaskMessage(data)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeTaskMessageRejectsBadPayloads(t *testing.T) {
	_, err := DecodeTaskMessage([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeTaskMessage([]byte(`{"user_input": "no id"}`))
	assert.Error(t, err)
}

func TestMemoryBrokerPublishConsume(t *testing.T) {
	b := NewMemoryBroker(10, testLogger())
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := b.Consume(ctx)
	require.NoError(t, err)

	msg := TaskMessage{TaskID: "task-1", UserInput: "cat drinks coffee"}
	require.NoError(t, b.Publish(ctx, msg))

	select {
	case d := <-deliveries:
		assert.Equal(t, msg, d.Message)
		assert.False(t, d.Redelivered)
		assert.NoError(t, d.Ack())
	case <-time.After(time.Second):
		t.Fatal("delivery not received")
	}
}

func TestMemoryBrokerNackRequeuesAsRedelivered(t *testing.T) {
	b := NewMemoryBroker(10, testLogger())
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := b.Consume(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, TaskMessage{TaskID: "task-1", UserInput: "x y z"}))

	first := <-deliveries
	require.NoError(t, first.Nack(true))

	select {
	case second := <-deliveries:
		assert.Equal(t, "task-1", second.Message.TaskID)
		assert.True(t, second.Redelivered)
	case <-time.After(time.Second):
		t.Fatal("requeued delivery not received")
	}
}

func TestMemoryBrokerPublishDelayed(t *testing.T) {
	b := NewMemoryBroker(10, testLogger())
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := b.Consume(ctx)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, b.PublishDelayed(ctx, TaskMessage{TaskID: "task-1", UserInput: "x y z"}, 50*time.Millisecond))

	select {
	case <-deliveries:
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed delivery not received")
	}
}

func TestMemoryBrokerCloseDuringPublish(t *testing.T) {
	// A publish blocked on a full queue must fail with ErrBrokerClosed
	// when the broker shuts down underneath it, not panic.
	b := NewMemoryBroker(1, testLogger())
	require.NoError(t, b.Publish(context.Background(), TaskMessage{TaskID: "task-1", UserInput: "x y z"}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Publish(context.Background(), TaskMessage{TaskID: "task-2", UserInput: "x y z"})
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrBrokerClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked publish did not return after close")
	}
}

func TestMemoryBrokerClosedRejectsPublish(t *testing.T) {
	b := NewMemoryBroker(10, testLogger())
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), TaskMessage{TaskID: "task-1"})
	assert.ErrorIs(t, err, ErrBrokerClosed)

	assert.ErrorIs(t, b.Ping(context.Background()), ErrBrokerClosed)
}
