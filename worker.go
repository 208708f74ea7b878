package spindecay

import (
	"fmt"
	"log"
	"time"
)

// Worker runs jobs handed to it by the pool, one at a time.
type Worker struct {
	pool *Pool
	jobs chan Job
}

func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.jobs:
			select {
			case job := <-w.jobs:
				result, err := w.processJob(job)
				w.pool.space.Store(job.ID, result, err)
			case <-w.pool.ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) processJob(job Job) (result any, err error) {
	startTime := job.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("job %s panicked: %v", job.ID, r)
		}

		if err != nil {
			log.Printf("Job %s failed with error: %v", job.ID, err)
		}

		w.pool.metrics.recordJobExecution(startTime, err == nil)
	}()

	return job.Fn()
}
