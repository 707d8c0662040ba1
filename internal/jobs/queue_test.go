package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesItems(t *testing.T) {
	var sum atomic.Int64
	q := NewQueue("sum", 8, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	}, nil)
	q.Start(context.Background())
	defer q.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), i))
	}
	q.Drain()
	assert.Equal(t, int64(15), sum.Load())
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := NewQueue("full", 1, 1, func(context.Context, int) error { return nil }, nil)
	require.NoError(t, q.Enqueue(context.Background(), 1))
	require.ErrorIs(t, q.Enqueue(context.Background(), 2), ErrQueueFull)

	q.Start(context.Background())
	q.Drain()
	q.Close()
}

func TestQueueSurvivesHandlerFailures(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("flaky", 4, 1, func(_ context.Context, n int) error {
		handled.Add(1)
		if n == 1 {
			return errors.New("boom")
		}
		if n == 2 {
			panic("bad item")
		}
		return nil
	}, nil)
	q.Start(context.Background())
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), i))
	}
	q.Drain()
	q.Close()
	assert.Equal(t, int32(3), handled.Load())
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue("closed", 1, 1, func(context.Context, int) error { return nil }, nil)
	q.Start(context.Background())
	q.Close()
	q.Close()
	require.ErrorIs(t, q.Enqueue(context.Background(), 1), ErrQueueClosed)
}

func TestQueueDrainReturnsAfterCancellation(t *testing.T) {
	release := make(chan struct{})
	var handled atomic.Int32
	q := NewQueue("cancelled", 8, 1, func(context.Context, int) error {
		<-release
		handled.Add(1)
		return nil
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(context.Background(), i))
	}
	cancel()
	close(release)

	drained := make(chan struct{})
	go func() {
		q.Drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain blocked on items left behind by cancelled workers")
	}
	assert.LessOrEqual(t, handled.Load(), int32(4))
	require.Eventually(t, func() bool {
		return errors.Is(q.Enqueue(context.Background(), 9), ErrQueueClosed)
	}, 2*time.Second, 10*time.Millisecond)
	q.Close()
}
