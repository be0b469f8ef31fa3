package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	"github.com/property360-2/richwell-potal-sub001/internal/queue"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
	"github.com/property360-2/richwell-potal-sub001/internal/sweep"

	"github.com/rs/zerolog"
)

// SweepWorker runs commit-mode expiration sweeps requested through the
// registrar's trigger endpoint. Each queued job produces one sweep run
// and an archived report.
type SweepWorker struct {
	cfg          *config.Config
	sweepService *sweep.Service
	store        storage.Storage
	consumer     *queue.Consumer
	workerPool   *WorkerPool
	log          zerolog.Logger
}

func NewSweepWorker(
	cfg *config.Config,
	sweepService *sweep.Service,
	store storage.Storage,
	redisClient *queue.RedisClient,
) *SweepWorker {
	return &SweepWorker{
		cfg:          cfg,
		sweepService: sweepService,
		store:        store,
		consumer:     queue.NewConsumer(redisClient, cfg),
		workerPool:   NewWorkerPool(cfg.Workers.Sweep.Count),
		log:          logger.Get(),
	}
}

func (w *SweepWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting sweep worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeSweepQueue(ctx, w.handleMessage)
}

func (w *SweepWorker) Stop() {
	w.log.Info().Msg("Stopping sweep worker")
	w.workerPool.Stop()
}

func (w *SweepWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.SweepJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal sweep job")
		return err
	}

	w.log.Info().
		Str("job_id", job.JobID).
		Str("requested_by", job.RequestedBy).
		Msg("Processing sweep job")

	if !w.workerPool.Submit("sweep:"+job.JobID, w.runSweep) {
		// Returning the error sends the job to the DLQ instead of
		// losing it silently.
		return fmt.Errorf("worker pool full, sweep job %s not accepted", job.JobID)
	}

	return nil
}

func (w *SweepWorker) runSweep(ctx context.Context) error {
	report, err := w.sweepService.Sweep(ctx, false)
	if err != nil {
		return err
	}

	if w.store != nil && len(report.Candidates) > 0 {
		key, err := sweep.ArchiveReport(ctx, w.store, report)
		if err != nil {
			// The sweep itself committed; a report archive failure is
			// logged, not returned, so the job is not redelivered.
			w.log.Error().Err(err).Str("job_id", report.JobID).Msg("Failed to archive sweep report")
			return nil
		}
		w.log.Info().Str("job_id", report.JobID).Str("report_key", key).Msg("Sweep report archived")
	}

	return nil
}
