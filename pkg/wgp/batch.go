package wgp

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/gitrdm/gowgp/internal/parallel"
)

// Job describes one independent weighted solve. Build must create a fresh
// Model and return the objective options to solve it with; options such as
// WithCost usually reference that model's variables.
type Job struct {
	Name  string
	Build func() (*Model, []ObjectiveOption, error)
}

// BatchResult is the outcome of one Job. Err holds build failures and
// structural solve errors; solver outcomes live in Result.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// SolveBatch runs jobs on up to workers goroutines and returns their results
// in job order. A model is still solved by a single goroutine; only distinct
// models run concurrently. Jobs not started before ctx is done report the
// context error.
func SolveBatch(ctx context.Context, jobs []Job, workers int) []BatchResult {
	results := make([]BatchResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if workers <= 0 || workers > len(jobs) {
		workers = len(jobs)
	}

	pool := parallel.NewWorkerPool(workers)
	var wg sync.WaitGroup
	for i := range jobs {
		i := i
		results[i].Name = jobs[i].Name
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			results[i].Result, results[i].Err = runJob(ctx, jobs[i])
		})
		if err != nil {
			wg.Done()
			results[i].Err = errors.Wrapf(err, "job %q not started", jobs[i].Name)
		}
	}
	wg.Wait()
	pool.Shutdown()
	return results
}

func runJob(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "job %q not started", job.Name)
	}
	if job.Build == nil {
		return nil, errors.Newf("job %q has no builder", job.Name)
	}
	m, opts, err := job.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "building job %q", job.Name)
	}
	if m == nil {
		return nil, errors.Newf("job %q built a nil model", job.Name)
	}
	return m.SolveWeighted(ctx, opts...)
}
