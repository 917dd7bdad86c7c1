package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	processed := make(map[string]bool)
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		mu.Lock()
		processed[job.ID] = true
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})

	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: fmt.Sprintf("job-%d", i), Type: "noop"}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, 5)
}

func TestQueueStopOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var handlerCtxErr error
	processed := false
	q := NewQueue("shutdown", func(jobCtx context.Context, _ Job) error {
		handlerCtxErr = jobCtx.Err()
		processed = true
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(ctx)
	cancel()
	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "noop"}))
	q.Stop()

	require.True(t, processed)
	require.NoError(t, handlerCtxErr)
}

func TestQueueRejectsEnqueueAfterStop(t *testing.T) {
	q := NewQueue("closed", func(context.Context, Job) error { return nil }, QueueConfig{Workers: 1})
	q.Start(context.Background())
	q.Stop()

	err := q.Enqueue(Job{ID: "late", Type: "noop"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "shutting down")
}
