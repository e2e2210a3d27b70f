package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Publish when the bounded queue stays at
// capacity past the publish timeout. Backpressure, not silent growth.
var ErrQueueFull = errors.New("submission queue is full")

type Message struct {
	Body      []byte
	Timestamp time.Time
	Ack       func(multiple bool) error
	Nack      func(multiple bool, requeue bool) error
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context) (<-chan Message, error)
	Close() error
}

// MemoryQueue is an in-process bounded queue backing both ends of the
// pipeline when no broker is configured.
type MemoryQueue struct {
	messages       chan Message
	publishTimeout time.Duration
	logger         zerolog.Logger
	closeOnce      sync.Once
}

func NewMemoryQueue(capacity int, publishTimeout time.Duration, logger zerolog.Logger) *MemoryQueue {
	if capacity <= 0 {
		capacity = 100
	}
	if publishTimeout <= 0 {
		publishTimeout = time.Second
	}
	return &MemoryQueue{
		messages:       make(chan Message, capacity),
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

func noopAck(multiple bool) error                { return nil }
func noopNack(multiple bool, requeue bool) error { return nil }

func (q *MemoryQueue) Publish(ctx context.Context, body []byte) error {
	msg := Message{
		Body:      body,
		Timestamp: time.Now(),
		Ack:       noopAck,
		Nack:      noopNack,
	}

	select {
	case q.messages <- msg:
		return nil
	default:
	}

	q.logger.Warn().Msg("Submission queue at capacity, applying backpressure")

	select {
	case q.messages <- msg:
		return nil
	case <-time.After(q.publishTimeout):
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context) (<-chan Message, error) {
	output := make(chan Message)

	go func() {
		defer close(output)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-q.messages:
				if !ok {
					return
				}
				select {
				case output <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return output, nil
}

func (q *MemoryQueue) Len() int {
	return len(q.messages)
}

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.messages)
	})
	return nil
}

var (
	_ Publisher = (*MemoryQueue)(nil)
	_ Consumer  = (*MemoryQueue)(nil)
)
