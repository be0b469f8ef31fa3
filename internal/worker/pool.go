package worker

import (
	"context"
	"sync"

	"github.com/property360-2/richwell-potal-sub001/internal/logger"

	"github.com/rs/zerolog"
)

// WorkerPool bounds how many sweep runs execute at once. Jobs carry a
// name so a dropped or failed job is identifiable in the logs.
type WorkerPool struct {
	workerCount int
	jobChan     chan namedJob
	wg          sync.WaitGroup
	log         zerolog.Logger
}

type namedJob struct {
	name string
	run  func(context.Context) error
}

func NewWorkerPool(workerCount int) *WorkerPool {
	return &WorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan namedJob, workerCount*2),
		log:         logger.Get(),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Info().Int("worker_count", wp.workerCount).Msg("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobChan)
	wp.wg.Wait()
	wp.log.Info().Msg("Worker pool stopped")
}

// Submit queues a job without blocking. A full queue drops the job; the
// caller's queue semantics (redelivery, DLQ) handle the loss.
func (wp *WorkerPool) Submit(name string, job func(context.Context) error) bool {
	select {
	case wp.jobChan <- namedJob{name: name, run: job}:
		return true
	default:
		wp.log.Warn().Str("job", name).Msg("Worker pool job queue full, job dropped")
		return false
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	log := wp.log.With().Int("worker_id", id).Logger()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Worker stopping due to context cancellation")
			return
		case job, ok := <-wp.jobChan:
			if !ok {
				log.Debug().Msg("Worker stopping due to closed job channel")
				return
			}

			if err := job.run(ctx); err != nil {
				log.Error().Err(err).Str("job", job.name).Msg("Job execution failed")
			}
		}
	}
}
