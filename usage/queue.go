package usage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spetersoncode/abapforge/internal/retry"
)

// ErrQueueClosed is returned by Close when the queue was already closed.
var ErrQueueClosed = errors.New("usage queue closed")

const (
	DefaultBuffer         = 256
	DefaultWorkers        = 2
	DefaultDeliverTimeout = 10 * time.Second
)

// Queue is an asynchronous Reporter. Records are buffered and delivered to
// a Sink by background workers with retry. When the buffer is full the
// record is dropped and logged; Report never blocks.
type Queue struct {
	sink      Sink
	ch        chan Record
	workers   int
	retry     retry.Config
	timeout   time.Duration
	logger    *slog.Logger
	onDropped func()

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithBuffer sets the number of records held before new ones are dropped.
func WithBuffer(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Record, n)
		}
	}
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithRetry sets the delivery retry policy.
func WithRetry(cfg retry.Config) QueueOption {
	return func(q *Queue) {
		q.retry = cfg
	}
}

// WithDeliverTimeout bounds each delivery including retries.
func WithDeliverTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		q.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = l
	}
}

// WithDropHook registers a callback invoked for each record that is dropped
// or fails delivery.
func WithDropHook(fn func()) QueueOption {
	return func(q *Queue) {
		q.onDropped = fn
	}
}

// NewQueue creates a Queue and starts its workers.
func NewQueue(sink Sink, opts ...QueueOption) *Queue {
	q := &Queue{
		sink:    sink,
		ch:      make(chan Record, DefaultBuffer),
		workers: DefaultWorkers,
		retry:   retry.DefaultConfig(),
		timeout: DefaultDeliverTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

// Report enqueues r for delivery. It never blocks.
func (q *Queue) Report(ctx context.Context, r Record) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(ctx, r, "queue closed")
		return
	}
	select {
	case q.ch <- r:
	default:
		q.drop(ctx, r, "queue full")
	}
}

// Close stops accepting records and waits for queued ones to be delivered
// or for ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	err := ErrQueueClosed
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
		err = nil
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for r := range q.ch {
		q.deliver(r)
	}
}

func (q *Queue) deliver(r Record) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	// Sized for every event a delivery can emit: a failure and a retry per
	// attempt plus the final success or exhaustion.
	events := make(chan retry.Event, 2*max(q.retry.MaxAttempts, 1)+1)
	err := retry.DoWithEvents(ctx, q.retry, events, func(ctx context.Context) error {
		return q.sink.RecordUsage(ctx, r)
	})
	close(events)
	for ev := range events {
		if ev.Type == retry.EventAttemptFailed {
			q.logger.DebugContext(ctx, "usage delivery attempt failed",
				"usage_id", r.ID,
				"attempt", ev.Attempt,
				"max_attempts", ev.MaxAttempts,
				"retryable", ev.Retryable,
				"error", ev.Error)
		}
	}
	if err != nil {
		q.drop(ctx, r, "delivery failed", "error", err)
	}
}

func (q *Queue) drop(ctx context.Context, r Record, reason string, attrs ...any) {
	args := append([]any{
		"reason", reason,
		"usage_id", r.ID,
		"user_id", r.UserID,
		"provider", r.Provider,
		"tokens", r.TokensUsed,
		"cost_cents", r.CostCents,
	}, attrs...)
	q.logger.WarnContext(ctx, "usage record dropped", args...)
	if q.onDropped != nil {
		q.onDropped()
	}
}

var _ Reporter = (*Queue)(nil)
