package async

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context)

// Options tunes the pool. Zero values fall back to defaults.
type Options struct {
	// Size is the number of workers.
	Size int
	// QueueDepth is how many tasks may wait for a worker before Submit
	// blocks.
	QueueDepth int
	// TaskTimeout bounds each task's context.
	TaskTimeout time.Duration
}

const (
	defaultSize        = 4
	defaultQueueDepth  = 64
	defaultTaskTimeout = 5 * time.Second
)

type WorkerPool struct {
	tasks    chan Task
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	log      *zap.Logger
	stopOnce sync.Once
}

func NewWorkerPool(parent context.Context, opts Options, log *zap.Logger) *WorkerPool {
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = defaultQueueDepth
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}

	ctx, cancel := context.WithCancel(parent)
	p := &WorkerPool{
		tasks:   make(chan Task, opts.QueueDepth),
		ctx:     ctx,
		cancel:  cancel,
		timeout: opts.TaskTimeout,
		log:     log,
	}

	for i := 0; i < opts.Size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			taskCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
			func() {
				defer func() {
					if r := recover(); r != nil {
						p.log.Error("task panicked", zap.Any("panic", r))
					}
				}()
				task(taskCtx)
			}()
			cancel()
		}
	}
}

// Submit queues the task, blocking while the queue is full. Submissions
// after Shutdown are dropped.
func (p *WorkerPool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
		return
	case p.tasks <- task:
	}
}

// Shutdown stops the workers and waits for the in-flight tasks. Queued
// tasks no worker picked up yet are dropped.
func (p *WorkerPool) Shutdown() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}
