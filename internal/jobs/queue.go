// Package jobs runs background work on a bounded in-process queue.
package jobs

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")
)

type Handler[T any] func(ctx context.Context, item T) error

// Queue hands items to a fixed set of workers. Enqueue never blocks: when the
// buffer is full the item is rejected with ErrQueueFull.
type Queue[T any] struct {
	name    string
	items   chan T
	handler Handler[T]
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	stopped bool
	pending sync.WaitGroup
	wg      sync.WaitGroup
}

func NewQueue[T any](name string, size, workers int, handler Handler[T], logger *zap.Logger) *Queue[T] {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		items:   make(chan T, size),
		handler: handler,
		workers: workers,
		logger:  logger.Named("queue").With(zap.String("queue", name)),
	}
}

// Start launches the workers. They stop when ctx is cancelled or the queue
// is closed and empty. After a cancellation the queue refuses new items and
// whatever is still buffered is dropped.
func (q *Queue[T]) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			q.work(ctx, id)
		}(i)
	}
}

func (q *Queue[T]) work(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			q.discard()
			return
		case item, ok := <-q.items:
			if !ok {
				return
			}
			q.handle(ctx, id, item)
		}
	}
}

func (q *Queue[T]) handle(ctx context.Context, id int, item T) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	if err := q.handler(ctx, item); err != nil {
		q.logger.Warn("job failed", zap.Int("worker", id), zap.Error(err))
	}
}

// discard marks buffered items done so Drain does not wait on work no
// worker will pick up.
func (q *Queue[T]) discard() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	dropped := 0
loop:
	for {
		select {
		case _, ok := <-q.items:
			if !ok {
				break loop
			}
			dropped++
			q.pending.Done()
		default:
			break loop
		}
	}
	if dropped > 0 {
		q.logger.Warn("queue stopped with unhandled items", zap.Int("dropped", dropped))
	}
}

func (q *Queue[T]) Enqueue(_ context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || q.stopped {
		return ErrQueueClosed
	}
	q.pending.Add(1)
	select {
	case q.items <- item:
		return nil
	default:
		q.pending.Done()
		return ErrQueueFull
	}
}

// Drain blocks until every accepted item has been handled.
func (q *Queue[T]) Drain() {
	q.pending.Wait()
}

// Close stops accepting items and waits for the workers to finish what is
// already queued.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()
	q.wg.Wait()
}
