package approval

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Reviewer roles. Each approval step is bound to one of them; ADMIN may
// act at either step.
const (
	RoleHead      = "head"
	RoleRegistrar = "registrar"
	RoleAdmin     = "admin"
)

// Service sequences the two-phase approval chain over resolution
// requests. Head approval hands off to the registrar; registrar approval
// applies the proposed change to the grade record atomically with the
// request's terminal transition.
type Service struct {
	repo     db.Repository
	notifier grading.Notifier
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(repo db.Repository, notifier grading.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		log:      logger.Get(),
	}
}

// Decide applies one approval step on behalf of the acting reviewer:
//
//	PENDING_HEAD      + approve -> PENDING_REGISTRAR
//	PENDING_HEAD      + reject  -> REJECTED (terminal, record unchanged)
//	PENDING_REGISTRAR + approve -> APPROVED (terminal, record updated)
//	PENDING_REGISTRAR + reject  -> REJECTED (terminal, record unchanged)
//
// The PENDING_HEAD step accepts only the head role, PENDING_REGISTRAR
// only the registrar; ADMIN may act at either step. The role check keeps
// the chain two-actor, one reviewer cannot walk a request through both
// steps alone.
//
// Rejection requires non-empty notes; approval notes are optional. A
// request already at a terminal status cannot be re-decided.
func (s *Service) Decide(ctx context.Context, requestID, actorRole, decision, notes string) (*model.ResolutionRequest, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperrors.NewValidationError("decision", decision, "decision must be approve or reject")
	}

	req, err := s.repo.GetResolution(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ApprovalStatus.IsTerminal() {
		return nil, apperrors.NewInvalidStateError("resolution request is already resolved")
	}
	if decision == DecisionReject && notes == "" {
		return nil, apperrors.NewValidationError("notes", notes, "rejection requires a stated reason")
	}

	switch req.ApprovalStatus {
	case model.ApprovalStatusPendingHead:
		if actorRole != RoleHead && actorRole != RoleAdmin {
			return nil, apperrors.ErrWrongReviewer
		}
		return s.decideHead(ctx, req, decision, notes)
	case model.ApprovalStatusPendingRegistrar:
		if actorRole != RoleRegistrar && actorRole != RoleAdmin {
			return nil, apperrors.ErrWrongReviewer
		}
		return s.decideRegistrar(ctx, req, decision, notes)
	default:
		return nil, apperrors.NewInvalidStateError("unexpected approval status " + string(req.ApprovalStatus))
	}
}

func (s *Service) decideHead(ctx context.Context, req *model.ResolutionRequest, decision, notes string) (*model.ResolutionRequest, error) {
	headNotes := optional(notes)

	if decision == DecisionApprove {
		err := s.repo.AdvanceResolution(ctx, req.ID,
			model.ApprovalStatusPendingHead, model.ApprovalStatusPendingRegistrar, headNotes)
		if err != nil {
			return nil, err
		}
		req.ApprovalStatus = model.ApprovalStatusPendingRegistrar
		if headNotes != nil {
			req.HeadNotes = headNotes
		}
		s.log.Info().Str("resolution_id", req.ID).Msg("Head approved, forwarded to registrar")
		return req, nil
	}

	now := s.now()
	err := s.repo.CloseResolution(ctx, req.ID,
		model.ApprovalStatusPendingHead, model.ApprovalStatusRejected, headNotes, nil, now, nil)
	if err != nil {
		return nil, err
	}
	req.ApprovalStatus = model.ApprovalStatusRejected
	req.HeadNotes = headNotes
	req.ResolvedAt = &now
	s.log.Info().Str("resolution_id", req.ID).Msg("Resolution rejected by head")
	s.publishDecision(ctx, req)
	return req, nil
}

func (s *Service) decideRegistrar(ctx context.Context, req *model.ResolutionRequest, decision, notes string) (*model.ResolutionRequest, error) {
	registrarNotes := optional(notes)
	now := s.now()

	if decision == DecisionReject {
		err := s.repo.CloseResolution(ctx, req.ID,
			model.ApprovalStatusPendingRegistrar, model.ApprovalStatusRejected, nil, registrarNotes, now, nil)
		if err != nil {
			return nil, err
		}
		req.ApprovalStatus = model.ApprovalStatusRejected
		req.RegistrarNotes = registrarNotes
		req.ResolvedAt = &now
		s.log.Info().Str("resolution_id", req.ID).Msg("Resolution rejected by registrar")
		s.publishDecision(ctx, req)
		return req, nil
	}

	rec, err := s.repo.GetGradeRecord(ctx, req.GradeRecordID)
	if err != nil {
		return nil, err
	}

	updated := *rec
	updated.Grade = req.ProposedGrade
	updated.Status = req.ProposedStatus
	updated.IncDeadline = nil
	updated.FinalizedAt = &now

	err = s.repo.CloseResolution(ctx, req.ID,
		model.ApprovalStatusPendingRegistrar, model.ApprovalStatusApproved, nil, registrarNotes, now, &updated)
	if err != nil {
		return nil, err
	}
	req.ApprovalStatus = model.ApprovalStatusApproved
	req.RegistrarNotes = registrarNotes
	req.ResolvedAt = &now

	s.log.Info().
		Str("resolution_id", req.ID).
		Str("grade_record_id", rec.ID).
		Str("status", string(req.ProposedStatus)).
		Msg("Resolution approved, grade record updated")

	s.publishDecision(ctx, req)
	return req, nil
}

// ListPending returns the open requests waiting on the given role's
// review screen, oldest first.
func (s *Service) ListPending(ctx context.Context, role string) ([]model.PendingResolution, error) {
	switch role {
	case RoleHead:
		return s.repo.ListPendingResolutions(ctx, model.ApprovalStatusPendingHead)
	case RoleRegistrar:
		return s.repo.ListPendingResolutions(ctx, model.ApprovalStatusPendingRegistrar)
	default:
		return nil, apperrors.NewValidationError("role", role, "role must be head or registrar")
	}
}

func (s *Service) publishDecision(ctx context.Context, req *model.ResolutionRequest) {
	if s.notifier == nil {
		return
	}
	rec, err := s.repo.GetGradeRecord(ctx, req.GradeRecordID)
	if err != nil {
		s.log.Warn().Err(err).Str("resolution_id", req.ID).Msg("Failed to load record for notification")
		return
	}
	event := model.NotificationEvent{
		Kind:              "resolution.decided",
		GradeRecordID:     rec.ID,
		StudentID:         rec.StudentID,
		SubjectOfferingID: rec.SubjectOfferingID,
		Status:            rec.Status,
		OccurredAt:        s.now(),
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("resolution_id", req.ID).Msg("Failed to publish notification event")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
