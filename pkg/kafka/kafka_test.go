package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"roomsync/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Output: io.Discard, Service: "test"})
}

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("room-101").
		WithValue(map[string]string{"status": "OCCUPIED"}).
		WithEventType("room.occupancy_changed").
		WithSource("roomsync").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "room-101", msg.Key)
	assert.JSONEq(t, `{"status":"OCCUPIED"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "room.occupancy_changed", msg.GetEventType())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
}

func TestMessageBuilder_EncodeFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestMessage_RetryCountPastNine(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("store", errors.New("x")), ErrorTypeTransient},
		{"explicit business", NewBusinessError("task not in progress", nil), ErrorTypeBusiness},
		{"timeout text", errors.New("i/o Timeout while reading"), ErrorTypeTransient},
		{"connection reset", errors.New("read: connection reset by peer"), ErrorTypeTransient},
		{"unknown defaults to permanent", errors.New("something odd"), ErrorTypePermanent},
		{"broker leader election", fmt.Errorf("write: %w", kafka.LeaderNotAvailable), ErrorTypeTransient},
		{"broker rejects size", kafka.MessageSizeTooLarge, ErrorTypePermanent},
		{"deadline", fmt.Errorf("handle: %w", context.DeadlineExceeded), ErrorTypeTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("store", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("bad", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "events", log: testLogger()}

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("room-1").WithValue("x").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, w.count())
}

func TestProducer_RejectsInvalidAndClosed(t *testing.T) {
	p := &Producer{writer: &recordingWriter{}, topic: "events", log: testLogger()}

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestProducer_FailedPublishGoesToDLQ(t *testing.T) {
	writeErr := errors.New("connection refused")
	dlq := &recordingWriter{}
	p := &Producer{writer: &recordingWriter{err: writeErr}, dlqWriter: dlq, topic: "events", dlqTopic: "dlq", log: testLogger()}

	msg, err := NewMessage().WithKey("room-1").WithValue("x").Build()
	require.NoError(t, err)

	err = p.Publish(context.Background(), msg)
	assert.ErrorIs(t, err, writeErr)
	require.Equal(t, 1, dlq.count())
	assert.Equal(t, "events", headerValue(dlq.messages[0], HeaderOriginalTopic))
	assert.Empty(t, msg.Headers[HeaderDLQError], "original message headers must not be mutated")
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	c := &Consumer{
		topic:      "housekeeping",
		maxRetries: 3,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("store unavailable", nil)
			}
			return nil
		},
	}

	err := c.processMessage(context.Background(), Message{Key: "k", Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConsumer_PermanentErrorDeadLettered(t *testing.T) {
	dlq := &recordingWriter{}
	c := &Consumer{
		topic:      "housekeeping",
		groupID:    "roomsync",
		maxRetries: 3,
		dlqWriter:  dlq,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			return NewPermanentError("unknown task", nil)
		},
	}

	err := c.processMessage(context.Background(), Message{Key: "k", Headers: map[string]string{}})
	require.Error(t, err)
	require.Equal(t, 1, dlq.count())
	assert.Equal(t, "roomsync", headerValue(dlq.messages[0], HeaderDLQGroup))
}

func TestConsumer_BusinessErrorNotDeadLettered(t *testing.T) {
	dlq := &recordingWriter{}
	c := &Consumer{
		topic:     "housekeeping",
		dlqWriter: dlq,
		log:       testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			return NewBusinessError("task already completed", nil)
		},
	}

	err := c.processMessage(context.Background(), Message{Key: "k", Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 0, dlq.count())
}
