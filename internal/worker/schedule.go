package worker

import (
	"context"
	"time"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
	"github.com/property360-2/richwell-potal-sub001/internal/sweep"

	"github.com/rs/zerolog"
)

// ScheduleWorker runs the nightly expiration sweep without anyone
// triggering it, so an overdue INC never outlives its deadline by more
// than a day.
type ScheduleWorker struct {
	cfg          *config.Config
	sweepService *sweep.Service
	store        storage.Storage
	timer        *time.Timer
	log          zerolog.Logger
}

func NewScheduleWorker(cfg *config.Config, sweepService *sweep.Service, store storage.Storage) *ScheduleWorker {
	return &ScheduleWorker{
		cfg:          cfg,
		sweepService: sweepService,
		store:        store,
		log:          logger.Get(),
	}
}

func (w *ScheduleWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting sweep scheduler")

	nextRun := w.nextRunTime(time.Now())
	w.log.Info().Time("next_run", nextRun).Msg("Scheduled next sweep")

	if w.cfg.Workers.Sweep.RunOnStart {
		w.log.Info().Msg("Running initial sweep on startup")
		if err := w.runSweep(ctx); err != nil {
			w.log.Error().Err(err).Msg("Initial sweep failed")
		}
	}

	w.timer = time.NewTimer(time.Until(nextRun))

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Sweep scheduler context cancelled")
			return ctx.Err()
		case <-w.timer.C:
			w.log.Info().Msg("Starting scheduled sweep")
			if err := w.runSweep(ctx); err != nil {
				w.log.Error().Err(err).Msg("Scheduled sweep failed")
			}

			nextRun = w.nextRunTime(time.Now())
			w.log.Info().Time("next_run", nextRun).Msg("Scheduled next sweep")
			w.timer.Reset(time.Until(nextRun))
		}
	}
}

func (w *ScheduleWorker) Stop() {
	w.log.Info().Msg("Stopping sweep scheduler")
	if w.timer != nil {
		w.timer.Stop()
	}
}

// nextRunTime returns the next occurrence of the configured HH:MM run
// time, today if still ahead, otherwise tomorrow.
func (w *ScheduleWorker) nextRunTime(now time.Time) time.Time {
	runAt, err := time.Parse("15:04", w.cfg.Workers.Sweep.RunAt)
	if err != nil {
		w.log.Warn().Err(err).Str("run_at", w.cfg.Workers.Sweep.RunAt).Msg("Invalid run_at, defaulting to 23:30")
		runAt, _ = time.Parse("15:04", "23:30")
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), runAt.Hour(), runAt.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (w *ScheduleWorker) runSweep(ctx context.Context) error {
	startTime := time.Now()

	report, err := w.sweepService.Sweep(ctx, false)
	if err != nil {
		return err
	}

	if w.store != nil && len(report.Candidates) > 0 {
		key, err := sweep.ArchiveReport(ctx, w.store, report)
		if err != nil {
			w.log.Error().Err(err).Str("job_id", report.JobID).Msg("Failed to archive sweep report")
		} else {
			w.log.Info().Str("report_key", key).Msg("Sweep report archived")
		}
	}

	w.log.Info().
		Dur("duration", time.Since(startTime)).
		Int("candidates", len(report.Candidates)).
		Int("expired", report.Expired).
		Int("failed", report.Failed).
		Msg("Scheduled sweep completed")

	return nil
}
