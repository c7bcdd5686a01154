package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunTopic carries sign-in run requests.
const RunTopic = "signin_runs"

// Handler processes one payload. A returned error triggers a retry.
type Handler func(ctx context.Context, payload []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// RunRequest asks a worker to perform one sign-in run.
type RunRequest struct {
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
	Source      string    `json:"source"`
}

func EncodeRunRequest(r RunRequest) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRunRequest(payload []byte) (RunRequest, error) {
	var r RunRequest
	if err := json.Unmarshal(payload, &r); err != nil {
		return RunRequest{}, fmt.Errorf("invalid run request: %w", err)
	}
	return r, nil
}

var ErrQueueFull = errors.New("queue is full")

// InMemoryQueue drains each topic on a single goroutine, so jobs of one
// topic never run concurrently.
type InMemoryQueue struct {
	mu         sync.Mutex
	topics     map[string]chan job
	wg         sync.WaitGroup
	capacity   int
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	closed     bool
}

// job wraps a message payload with retry info
type job struct {
	Payload    []byte
	RetryCount int
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *slog.Logger, capacity, maxRetries int, backoff time.Duration) *InMemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &InMemoryQueue{
		topics:     make(map[string]chan job),
		capacity:   capacity,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// Publish enqueues a payload for the topic's subscriber.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("queue is closed")
	}
	ch, ok := q.topics[topic]
	if !ok {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	select {
	case ch <- job{Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Subscribe starts the single consumer of a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.topics[topic]; exists {
		return fmt.Errorf("topic %s already has a subscriber", topic)
	}
	ch := make(chan job, q.capacity)
	q.topics[topic] = ch

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for j := range ch {
			q.processJob(topic, handler, j)
		}
	}()
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler Handler, j job) {
	for {
		err := handler(context.Background(), j.Payload)
		if err == nil {
			q.logger.Debug("job processed", "topic", topic)
			return
		}

		j.RetryCount++
		q.logger.Error("job failed", "topic", topic, "attempt", j.RetryCount, "max_retries", q.maxRetries, "error", err)

		if j.RetryCount > q.maxRetries {
			q.logger.Error("job permanently failed", "topic", topic, "attempts", j.RetryCount)
			return
		}

		time.Sleep(time.Duration(j.RetryCount) * q.backoff)
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, ch := range q.topics {
		close(ch)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
