package spindecay

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

/*
Pool is a fixed-size worker pool. Jobs are queued, dispatched by a manager
goroutine to whichever worker is free, and their results are handed back
through a Space keyed by job ID.
*/
type Pool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *Space
	metrics    *Metrics
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
	closeOnce  sync.Once
}

// NewPool starts size workers bound to ctx.
func NewPool(ctx context.Context, size int, config *Config) *Pool {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:        ctx,
		cancel:     cancel,
		workerList: make([]*Worker, 0, size),
		jobs:       make(chan Job, size*10),
		workers:    make(chan chan Job, size),
		space:      newSpace(),
		metrics:    newMetrics(),
		config:     config,
	}

	for i := 0; i < size; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	return p
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			select {
			case <-p.ctx.Done():
				return
			case workerChan := <-p.workers:
				select {
				case workerChan <- job:
				case <-p.ctx.Done():
					return
				}
			}
		}
	}
}

/*
Schedule queues fn under id and returns the channel its result arrives on.
If the job cannot be queued, because ctx ends or the scheduling timeout
passes first, the channel carries the error instead.
*/
func (p *Pool) Schedule(ctx context.Context, id string, fn func() (any, error)) chan Result {
	if err := p.ctx.Err(); err != nil {
		return p.failed(fmt.Errorf("job scheduling aborted: %w", err))
	}

	if timeout := p.getSchedulingTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}

	// Register before queueing so the result cannot be missed.
	result := p.space.Await(id)

	select {
	case p.jobs <- job:
		return result
	case <-p.ctx.Done():
		return p.failed(fmt.Errorf("job scheduling aborted: %w", p.ctx.Err()))
	case <-ctx.Done():
		return p.failed(fmt.Errorf("job scheduling timeout: %w", ctx.Err()))
	}
}

func (p *Pool) failed(err error) chan Result {
	p.metrics.recordSchedulingFailure()

	ch := make(chan Result, 1)
	ch <- Result{Error: err, CreatedAt: time.Now()}
	close(ch)
	return ch
}

// Metrics returns the pool's metrics.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

func (p *Pool) startWorker() {
	worker := &Worker{
		pool: p,
		jobs: make(chan Job),
	}

	p.workerMu.Lock()
	p.workerList = append(p.workerList, worker)
	p.workerMu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	count := p.metrics.WorkerCount
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run()
	}()

	log.Printf("Started worker, total workers: %d", count)
}

func (p *Pool) getSchedulingTimeout() time.Duration {
	if p.config != nil && p.config.SchedulingTimeout > 0 {
		return p.config.SchedulingTimeout
	}
	return 0
}

// Close stops the manager and all workers and waits for them to exit.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		p.workerMu.Lock()
		p.workerList = nil
		p.workerMu.Unlock()

		p.space.Close()
	})
}
