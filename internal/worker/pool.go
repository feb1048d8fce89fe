package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed number of workers. Results are drained by a
// collector goroutine as they arrive, so workers never block on a full
// results channel, and Wait returns them in submission order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    chan indexedResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	next      atomic.Int64
	collected []Result
	done      chan struct{}
	started   bool

	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs are cancelled with ctx.
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}
}

// Start starts the workers and the result collector. Call it once.
func (p *Pool) Start() {
	p.started = true
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult{index: job.index, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) collect() {
	defer close(p.done)
	for r := range p.results {
		for len(p.collected) <= r.index {
			p.collected = append(p.collected, nil)
		}
		p.collected[r.index] = r.result
	}
}

// Submit queues a job. It reports false when the pool has been cancelled.
// Submit is safe for concurrent use but must not be called after Wait.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	idx := int(p.next.Add(1) - 1)
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob{index: idx, job: job}:
		return true
	}
}

// Wait closes the queue, waits for every queued job and returns the results
// in submission order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []Result {
	p.closeJobs.Do(func() { close(p.jobQueue) })
	p.wg.Wait()
	return p.finish()
}

// Shutdown cancels running jobs and stops the workers.
func (p *Pool) Shutdown() []Result {
	p.cancelFunc()
	p.wg.Wait()
	return p.finish()
}

func (p *Pool) finish() []Result {
	p.closeResults.Do(func() { close(p.results) })
	defer p.cancelFunc()
	if !p.started {
		return nil
	}
	<-p.done

	results := make([]Result, 0, len(p.collected))
	for _, r := range p.collected {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}
