// Package pipeline runs independent jobs over a bounded worker pool.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one unit of work. Name only labels log lines.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result summarizes a pool run.
type Result struct {
	Completed int
	Failed    int
	Duration  time.Duration
	// Err is the first job error, if any.
	Err error
}

// Pool processes jobs with a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool returns a pool of at least one worker.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes every job and waits for them. A failing job does not stop
// the others; a cancelled context stops enqueuing.
func (p *Pool) Run(ctx context.Context, jobs []Job) Result {
	start := time.Now()
	jobChan := make(chan Job, len(jobs))

	var (
		mu  sync.Mutex
		res Result
		wg  sync.WaitGroup
	)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				err := job.Run(ctx)

				mu.Lock()
				if err != nil {
					res.Failed++
					if res.Err == nil {
						res.Err = err
					}
				} else {
					res.Completed++
				}
				mu.Unlock()

				if err != nil {
					log.Warn().Err(err).Int("worker", workerID).Str("job", job.Name).Msg("pipeline: job failed")
				}
			}
		}(i)
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			if res.Err == nil {
				res.Err = err
			}
			mu.Unlock()
			break
		}
		jobChan <- job
	}
	close(jobChan)
	wg.Wait()

	res.Duration = time.Since(start)
	return res
}
