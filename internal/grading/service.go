package grading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

// TermWindow is the campus system's answer for one subject offering:
// whether ordinary grade entry is currently allowed, and whether the
// subject's resolution chain needs department-head sign-off before the
// registrar.
type TermWindow struct {
	Open                bool
	RequiresHeadSignoff bool
}

// Directory is the read-only view of the campus system this service
// needs: teaching assignments and term windows. Rosters and enrollment
// live there, not here.
type Directory interface {
	IsAssigned(ctx context.Context, professorID, subjectOfferingID string) (bool, error)
	TermWindow(ctx context.Context, subjectOfferingID string) (TermWindow, error)
}

// Notifier publishes grade events fire-and-forget. A publish failure is
// logged and never fails the operation.
type Notifier interface {
	Publish(ctx context.Context, event model.NotificationEvent) error
}

// Service is the professor-facing grade entry service. Ordinary
// submissions write the grade record directly; post-window INC
// resolutions and post-finalization corrections go through a resolution
// request instead.
type Service struct {
	repo      db.Repository
	directory Directory
	notifier  Notifier
	policy    Policy
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(repo db.Repository, directory Directory, notifier Notifier, policy Policy) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		policy:    policy,
		now:       time.Now,
		log:       logger.Get(),
	}
}

// SubmitGrade records or updates a grade on behalf of a professor.
//
// Direct-write path: the grading window is open. The status is derived
// from the selection; PASSED/FAILED/DROPPED finalize the record, INC sets
// the resolution deadline and never finalizes.
//
// Resolution path: the window is closed and the record is an INC being
// resolved, or a finalized PASSED/FAILED being corrected. The record
// itself is untouched; an open resolution request is created instead.
func (s *Service) SubmitGrade(ctx context.Context, professorID, gradeRecordID string, req model.SubmitGradeRequest) (*model.SubmitGradeResult, error) {
	rec, err := s.repo.GetGradeRecord(ctx, gradeRecordID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.directory.IsAssigned(ctx, professorID, rec.SubjectOfferingID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, apperrors.ErrNotAssigned
	}

	status, grade, err := s.policy.DeriveStatus(req.Selection, req.Grade)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.GetOpenResolution(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperrors.NewConflictError("an open resolution request already exists for this record")
	}

	now := s.now()
	if rec.RetakeLocked(now) {
		return nil, apperrors.NewLockedError("record is locked pending a retake enrollment")
	}

	window, err := s.directory.TermWindow(ctx, rec.SubjectOfferingID)
	if err != nil {
		return nil, err
	}

	if window.Open {
		return s.directWrite(ctx, rec, status, grade, req.Remarks, now)
	}
	return s.openResolution(ctx, professorID, rec, status, grade, req.Reason, window, now)
}

func (s *Service) directWrite(ctx context.Context, rec *model.GradeRecord, status model.GradeStatus, grade *float64, remarks string, now time.Time) (*model.SubmitGradeResult, error) {
	prior := rec.Status

	updated := *rec
	updated.Status = status
	updated.Grade = grade
	updated.Remarks = remarks
	updated.IncDeadline = nil
	updated.FinalizedAt = nil

	switch status {
	case model.GradeStatusPassed, model.GradeStatusFailed, model.GradeStatusDropped:
		updated.FinalizedAt = &now
	case model.GradeStatusInc:
		deadline := now.Add(s.policy.IncDeadline)
		updated.IncDeadline = &deadline
	}

	if s.policy.RetakeLock > 0 && (status == model.GradeStatusFailed || status == model.GradeStatusDropped) {
		eligible := now.Add(s.policy.RetakeLock)
		updated.RetakeEligibleAfter = &eligible
	} else {
		updated.RetakeEligibleAfter = nil
	}

	if err := s.repo.UpdateGradeRecord(ctx, &updated, prior); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("grade_record_id", updated.ID).
		Str("from", string(prior)).
		Str("to", string(status)).
		Msg("Grade recorded")

	s.publish(ctx, "grade.updated", &updated)
	return &model.SubmitGradeResult{Record: &updated}, nil
}

func (s *Service) openResolution(ctx context.Context, professorID string, rec *model.GradeRecord,
	status model.GradeStatus, grade *float64, reason string, window TermWindow, now time.Time) (*model.SubmitGradeResult, error) {

	switch rec.Status {
	case model.GradeStatusInc:
		// resolving an incomplete after the window closed
	case model.GradeStatusPassed, model.GradeStatusFailed:
		// post-finalization correction
	default:
		return nil, apperrors.NewInvalidStateError("grading window is closed and record is not eligible for resolution")
	}

	if reason == "" {
		return nil, apperrors.NewValidationError("reason", reason, "a resolution request requires a reason")
	}
	if status == model.GradeStatusInc {
		return nil, apperrors.NewValidationError("selection", status, "a resolution request must propose a settled outcome")
	}

	approval := model.ApprovalStatusPendingHead
	if !window.RequiresHeadSignoff {
		approval = model.ApprovalStatusPendingRegistrar
	}

	resolution := &model.ResolutionRequest{
		ID:             uuid.NewString(),
		GradeRecordID:  rec.ID,
		RequestedBy:    professorID,
		ProposedGrade:  grade,
		ProposedStatus: status,
		Reason:         reason,
		ApprovalStatus: approval,
		CreatedAt:      now,
	}

	// Atomic check-and-create: a concurrent submission or sweep racing
	// this call is settled by the repository, not by the read above.
	if err := s.repo.CreateResolution(ctx, resolution); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("grade_record_id", rec.ID).
		Str("resolution_id", resolution.ID).
		Str("approval_status", string(approval)).
		Msg("Resolution request opened")

	return &model.SubmitGradeResult{Record: rec, Resolution: resolution}, nil
}

// RevokeResolution withdraws an open resolution request. Only the original
// requester may revoke, and only while no approval step has closed the
// request. The grade record is left unchanged.
func (s *Service) RevokeResolution(ctx context.Context, professorID, requestID string) (*model.ResolutionRequest, error) {
	req, err := s.repo.GetResolution(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequestedBy != professorID {
		return nil, apperrors.NewValidationError("requested_by", professorID, "only the original requester may revoke")
	}
	if req.ApprovalStatus.IsTerminal() {
		return nil, apperrors.NewInvalidStateError("resolution request is already resolved")
	}

	now := s.now()
	if err := s.repo.CloseResolution(ctx, req.ID, req.ApprovalStatus, model.ApprovalStatusRevoked,
		nil, nil, now, nil); err != nil {
		return nil, err
	}

	req.ApprovalStatus = model.ApprovalStatusRevoked
	req.ResolvedAt = &now

	s.log.Info().
		Str("resolution_id", req.ID).
		Str("grade_record_id", req.GradeRecordID).
		Msg("Resolution request revoked")

	return req, nil
}

func (s *Service) publish(ctx context.Context, kind string, rec *model.GradeRecord) {
	if s.notifier == nil {
		return
	}
	event := model.NotificationEvent{
		Kind:              kind,
		GradeRecordID:     rec.ID,
		StudentID:         rec.StudentID,
		SubjectOfferingID: rec.SubjectOfferingID,
		Status:            rec.Status,
		OccurredAt:        s.now(),
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", kind).Msg("Failed to publish notification event")
	}
}
