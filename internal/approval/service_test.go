package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*Service, *db.MemoryRepository) {
	t.Helper()
	repo := db.NewMemoryRepository()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func seedIncWithRequest(t *testing.T, repo *db.MemoryRepository, start model.ApprovalStatus) *model.ResolutionRequest {
	t.Helper()
	deadline := testNow.Add(24 * time.Hour)
	repo.SeedGradeRecord(model.GradeRecord{
		ID:                "gr-1",
		StudentID:         "student-1",
		SubjectOfferingID: "offering-1",
		Status:            model.GradeStatusInc,
		IncDeadline:       &deadline,
	})

	req := &model.ResolutionRequest{
		ID:             "res-1",
		GradeRecordID:  "gr-1",
		RequestedBy:    "prof-1",
		ProposedGrade:  f(2.00),
		ProposedStatus: model.GradeStatusPassed,
		Reason:         "completed removal exam",
		ApprovalStatus: start,
		CreatedAt:      time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.CreateResolution(context.Background(), req))
	return req
}

func TestDecide_HeadReject(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	req, err := svc.Decide(context.Background(), "res-1", RoleHead, DecisionReject, "missing requirements")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusRejected, req.ApprovalStatus)
	require.NotNil(t, req.HeadNotes)
	assert.Equal(t, "missing requirements", *req.HeadNotes)
	require.NotNil(t, req.ResolvedAt)

	// Target record unchanged.
	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, rec.Status)
	assert.NotNil(t, rec.IncDeadline)
}

func TestDecide_RejectRequiresNotes(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	_, err := svc.Decide(context.Background(), "res-1", RoleHead, DecisionReject, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestDecide_FullChainApproval(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	req, err := svc.Decide(context.Background(), "res-1", RoleHead, DecisionApprove, "requirements verified")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPendingRegistrar, req.ApprovalStatus)

	// Record still untouched between the two steps.
	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, rec.Status)

	req, err = svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, req.ApprovalStatus)

	// Final approval applies the proposed change atomically.
	rec, err = repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusPassed, rec.Status)
	require.NotNil(t, rec.Grade)
	assert.Equal(t, 2.00, *rec.Grade)
	assert.Nil(t, rec.IncDeadline)
	require.NotNil(t, rec.FinalizedAt)
	assert.Equal(t, testNow, *rec.FinalizedAt)
}

func TestDecide_HeadCannotDecideRegistrarStep(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	// The head clears their own step.
	req, err := svc.Decide(context.Background(), "res-1", RoleHead, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPendingRegistrar, req.ApprovalStatus)

	// The same role cannot also clear the registrar step and finalize
	// the grade singlehandedly.
	_, err = svc.Decide(context.Background(), "res-1", RoleHead, DecisionApprove, "")
	assert.ErrorIs(t, err, apperrors.ErrWrongReviewer)

	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, rec.Status, "record untouched until the registrar decides")
}

func TestDecide_RegistrarCannotDecideHeadStep(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	_, err := svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionApprove, "")
	assert.ErrorIs(t, err, apperrors.ErrWrongReviewer)

	req, err := repo.GetResolution(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPendingHead, req.ApprovalStatus)
}

func TestDecide_AdminMayActAtEitherStep(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	req, err := svc.Decide(context.Background(), "res-1", RoleAdmin, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPendingRegistrar, req.ApprovalStatus)

	req, err = svc.Decide(context.Background(), "res-1", RoleAdmin, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, req.ApprovalStatus)

	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusPassed, rec.Status)
}

func TestDecide_RegistrarReject(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingRegistrar)

	req, err := svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionReject, "transcript mismatch")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusRejected, req.ApprovalStatus)
	require.NotNil(t, req.RegistrarNotes)

	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, rec.Status)
}

func TestDecide_TerminalRequestCannotBeRedecided(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingRegistrar)

	_, err := svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionReject, "no")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionApprove, "")
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestDecide_RevokedRequestCannotBeDecided(t *testing.T) {
	svc, repo := newTestService(t)
	req := seedIncWithRequest(t, repo, model.ApprovalStatusPendingRegistrar)

	err := repo.CloseResolution(context.Background(), req.ID,
		model.ApprovalStatusPendingRegistrar, model.ApprovalStatusRevoked, nil, nil, testNow, nil)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), "res-1", RoleRegistrar, DecisionApprove, "")
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestDecide_UnknownDecision(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	_, err := svc.Decide(context.Background(), "res-1", RoleHead, "defer", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestDecide_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Decide(context.Background(), "missing", RoleRegistrar, DecisionApprove, "")
	assert.ErrorIs(t, err, apperrors.ErrResolutionNotFound)
}

func TestListPending(t *testing.T) {
	svc, repo := newTestService(t)
	seedIncWithRequest(t, repo, model.ApprovalStatusPendingHead)

	pending, err := svc.ListPending(context.Background(), RoleHead)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "res-1", pending[0].Request.ID)
	assert.Equal(t, "student-1", pending[0].Record.StudentID)
	assert.Equal(t, 2, pending[0].AgeDays)

	registrarQueue, err := svc.ListPending(context.Background(), RoleRegistrar)
	require.NoError(t, err)
	assert.Empty(t, registrarQueue)

	_, err = svc.ListPending(context.Background(), "dean")
	assert.True(t, apperrors.IsValidation(err))
}
