package async_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"adminservice/internal/infrastructure/async"
)

func TestWorkerPool_RunsSubmittedTasks(t *testing.T) {
	pool := async.NewWorkerPool(context.Background(), async.Options{Size: 2}, zap.NewNop())
	defer pool.Shutdown()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			counter.Add(1)
		})
	}
	wg.Wait()

	if got := counter.Load(); got != 20 {
		t.Fatalf("want 20 tasks run, got %d", got)
	}
}

func TestWorkerPool_SurvivesPanickingTask(t *testing.T) {
	pool := async.NewWorkerPool(context.Background(), async.Options{Size: 1}, zap.NewNop())
	defer pool.Shutdown()

	done := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		panic("boom")
	})
	pool.Submit(func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestWorkerPool_TasksGetBoundedContext(t *testing.T) {
	pool := async.NewWorkerPool(context.Background(), async.Options{Size: 1, TaskTimeout: 50 * time.Millisecond}, zap.NewNop())
	defer pool.Shutdown()

	deadlines := make(chan bool, 1)
	pool.Submit(func(ctx context.Context) {
		_, ok := ctx.Deadline()
		deadlines <- ok
	})

	select {
	case ok := <-deadlines:
		if !ok {
			t.Fatal("task context must carry a deadline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestWorkerPool_SubmitAfterShutdownIsDropped(t *testing.T) {
	pool := async.NewWorkerPool(context.Background(), async.Options{Size: 1}, zap.NewNop())
	pool.Shutdown()

	ran := make(chan struct{}, 1)
	pool.Submit(func(ctx context.Context) {
		ran <- struct{}{}
	})

	select {
	case <-ran:
		t.Fatal("task must not run after shutdown")
	case <-time.After(100 * time.Millisecond):
	}
}
