package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
)

// Service expires overdue incompletes. It is the one system-initiated
// writer of grade records: it bypasses the resolution chain entirely and
// converts INC past its deadline straight to FAILED at the failing mark.
type Service struct {
	repo      db.Repository
	notifier  grading.Notifier
	policy    grading.Policy
	batchSize int
	now       func() time.Time
	log       zerolog.Logger
}

// NewService builds the sweep service. batchSize caps how many records
// one run touches (0 means unlimited); anything left over is picked up
// by the next scheduled run.
func NewService(repo db.Repository, notifier grading.Notifier, policy grading.Policy, batchSize int) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		policy:    policy,
		batchSize: batchSize,
		now:       time.Now,
		log:       logger.Get(),
	}
}

// Sweep selects INC records whose deadline is at or before now
// (inclusive) with no open resolution request, oldest deadlines first,
// up to the configured batch size per run.
//
// Dry run only reports the candidate set. Commit mode expires each
// candidate in its own transaction: one record losing a race with a
// concurrent resolution or edit is recorded in the report and never
// blocks the rest of the batch. Running the sweep twice is harmless,
// expired records are FAILED and no longer candidates.
func (s *Service) Sweep(ctx context.Context, dryRun bool) (*model.SweepReport, error) {
	now := s.now()
	records, err := s.repo.ListExpiredIncompletes(ctx, now, s.batchSize)
	if err != nil {
		return nil, err
	}

	report := &model.SweepReport{
		JobID:  uuid.NewString(),
		DryRun: dryRun,
		RanAt:  now,
	}

	for _, rec := range records {
		report.Candidates = append(report.Candidates, candidateFor(&rec, now))
	}

	if dryRun {
		s.log.Info().Int("candidates", len(report.Candidates)).Msg("Sweep dry run completed")
		return report, nil
	}

	for i, rec := range records {
		outcome := model.SweepOutcome{Candidate: report.Candidates[i]}

		if err := s.repo.ExpireIncomplete(ctx, rec.ID, s.policy.FailingGrade, now); err != nil {
			outcome.Error = err.Error()
			report.Failed++
			s.log.Warn().Err(err).
				Str("grade_record_id", rec.ID).
				Msg("Skipped record during sweep")
		} else {
			outcome.Expired = true
			report.Expired++
			s.publishExpired(ctx, &rec)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.log.Info().
		Str("job_id", report.JobID).
		Int("candidates", len(report.Candidates)).
		Int("expired", report.Expired).
		Int("failed", report.Failed).
		Msg("Sweep completed")

	return report, nil
}

func candidateFor(rec *model.GradeRecord, now time.Time) model.SweepCandidate {
	c := model.SweepCandidate{
		GradeRecordID:     rec.ID,
		StudentID:         rec.StudentID,
		SubjectOfferingID: rec.SubjectOfferingID,
	}
	if rec.IncDeadline != nil {
		c.IncDeadline = *rec.IncDeadline
		c.DaysOverdue = int(now.Sub(*rec.IncDeadline).Hours() / 24)
	}
	return c
}

func (s *Service) publishExpired(ctx context.Context, rec *model.GradeRecord) {
	if s.notifier == nil {
		return
	}
	event := model.NotificationEvent{
		Kind:              "grade.expired",
		GradeRecordID:     rec.ID,
		StudentID:         rec.StudentID,
		SubjectOfferingID: rec.SubjectOfferingID,
		Status:            model.GradeStatusFailed,
		OccurredAt:        s.now(),
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("grade_record_id", rec.ID).Msg("Failed to publish expiry event")
	}
}
