// Package worker provides the bounded concurrency primitives the expansion
// engine schedules fetches with: a fixed-size task pool and a host-keyed
// rate limiter.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work. Run must be pure with respect to shared state:
// results are merged serially by the consumer of Results.
type Task interface {
	Run(ctx context.Context) Result
}

// Result is the outcome of one task.
type Result interface {
	Err() error
}

// Pool executes tasks with a fixed number of workers. Intended use is
// one pool per batch: a producer goroutine Submits every task and calls
// Finish, while the caller ranges over Results until it closes.
type Pool struct {
	workers    int
	tasks      chan Task
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	finishOnce sync.Once
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers (minimum 1).
// Tasks run under a context derived from ctx, so cancelling it aborts the
// pool as well.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers),
		results: make(chan Result, workers),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. The results channel closes once every worker
// has exited, after Finish or Abort.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			result := task.Run(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task. It blocks while the queue is full and becomes a
// no-op after Abort.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
		return
	case p.tasks <- task:
	}
}

// Finish marks submission complete. Workers drain the remaining queue and
// exit; Results closes once they have.
func (p *Pool) Finish() {
	p.finishOnce.Do(func() {
		close(p.tasks)
	})
}

// Results returns the channel task outcomes arrive on, in completion order.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Abort cancels outstanding work. In-flight results may be dropped; Results
// still closes, so a consumer ranging over it terminates cleanly.
func (p *Pool) Abort() {
	p.cancel()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
