// Package worker provides a bounded pool for per-asset work. Unlike a
// free-for-all fan-out, results come back indexed by submission order so the
// extraction stream is reproducible regardless of worker scheduling.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job.
type Result interface {
	GetError() error
}

// Pool executes jobs on a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

type indexedJob struct {
	index int
	job   Job
}

// Run executes all jobs and returns their results in submission order.
// A cancelled context stops dispatching; already-dispatched jobs finish and
// undispatched slots stay nil.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	queue := make(chan indexedJob)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				results[item.index] = item.job.Execute(ctx)
			}
		}()
	}

dispatch:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- indexedJob{index: i, job: job}:
		}
	}
	close(queue)

	wg.Wait()
	return results
}
