package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job
type Result interface {
	GetError() error
}

type queuedJob struct {
	seq int64
	job Job
}

type queuedResult struct {
	seq    int64
	result Result
}

// Pool runs jobs on a fixed number of workers. Results are returned in
// submission order regardless of completion order.
type Pool struct {
	workers   int
	jobQueue  chan queuedJob
	results   chan queuedResult
	seq       atomic.Int64
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// filled by collect until results is closed
	collected []queuedResult
	drained   chan struct{}
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:  workers,
		jobQueue: make(chan queuedJob, workers*2),
		results:  make(chan queuedResult, workers*2),
		ctx:      ctx,
		cancel:   cancel,
		drained:  make(chan struct{}),
	}
	go p.collect()
	return p
}

// collect drains results while jobs are still being submitted so workers
// never stall on a full results buffer
func (p *Pool) collect() {
	defer close(p.drained)
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

// Start launches the workers
func (p *Pool) Start() {
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
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			r := q.job.Execute(p.ctx)
			select {
			case p.results <- queuedResult{seq: q.seq, result: r}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It returns false once the pool is shut down.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	q := queuedJob{seq: p.seq.Add(1) - 1, job: job}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- q:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns one slot per
// accepted job in submission order. Jobs abandoned on cancellation leave a
// nil slot.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.drained
	p.cancel()

	results := make([]Result, p.seq.Load())
	for _, r := range p.collected {
		results[r.seq] = r.result
	}
	return results
}

// Shutdown stops the pool immediately; queued jobs are abandoned
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
