package db

import (
	"context"
	"sync"
	"time"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

// MemoryRepository is an in-process Repository with the same transition
// semantics as the MySQL implementation, including the one-open-request
// uniqueness and compare-and-set updates. Used by tests and local runs
// without a database.
type MemoryRepository struct {
	mu          sync.Mutex
	records     map[string]model.GradeRecord
	resolutions map[string]model.ResolutionRequest
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:     make(map[string]model.GradeRecord),
		resolutions: make(map[string]model.ResolutionRequest),
	}
}

// SeedGradeRecord inserts a record directly, standing in for the
// enrollment system that owns record creation.
func (m *MemoryRepository) SeedGradeRecord(rec model.GradeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = rec.CreatedAt
	m.records[rec.ID] = rec
}

func (m *MemoryRepository) GetGradeRecord(_ context.Context, id string) (*model.GradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, apperrors.ErrGradeRecordNotFound
	}
	return &rec, nil
}

func (m *MemoryRepository) UpdateGradeRecord(_ context.Context, rec *model.GradeRecord, expectStatus model.GradeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[rec.ID]
	if !ok {
		return apperrors.ErrGradeRecordNotFound
	}
	if current.Status != expectStatus {
		return apperrors.NewInvalidStateError("grade record changed state since it was read")
	}
	updated := *rec
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now()
	m.records[rec.ID] = updated
	return nil
}

func (m *MemoryRepository) GetResolution(_ context.Context, id string) (*model.ResolutionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.resolutions[id]
	if !ok {
		return nil, apperrors.ErrResolutionNotFound
	}
	return &req, nil
}

func (m *MemoryRepository) GetOpenResolution(_ context.Context, gradeRecordID string) (*model.ResolutionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req := m.openResolutionLocked(gradeRecordID); req != nil {
		out := *req
		return &out, nil
	}
	return nil, nil
}

func (m *MemoryRepository) openResolutionLocked(gradeRecordID string) *model.ResolutionRequest {
	for id, req := range m.resolutions {
		if req.GradeRecordID == gradeRecordID && !req.ApprovalStatus.IsTerminal() {
			req := m.resolutions[id]
			return &req
		}
	}
	return nil
}

func (m *MemoryRepository) CreateResolution(_ context.Context, req *model.ResolutionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openResolutionLocked(req.GradeRecordID) != nil {
		return apperrors.NewConflictError("an open resolution request already exists for this record")
	}
	m.resolutions[req.ID] = *req
	return nil
}

func (m *MemoryRepository) AdvanceResolution(_ context.Context, id string, from, to model.ApprovalStatus, headNotes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.resolutions[id]
	if !ok {
		return apperrors.ErrResolutionNotFound
	}
	if req.ApprovalStatus != from {
		return apperrors.NewInvalidStateError("resolution request is no longer at " + string(from))
	}
	req.ApprovalStatus = to
	if headNotes != nil {
		req.HeadNotes = headNotes
	}
	m.resolutions[id] = req
	return nil
}

func (m *MemoryRepository) CloseResolution(_ context.Context, id string, from, to model.ApprovalStatus,
	headNotes, registrarNotes *string, resolvedAt time.Time, record *model.GradeRecord) error {

	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.resolutions[id]
	if !ok {
		return apperrors.ErrResolutionNotFound
	}
	if req.ApprovalStatus != from {
		return apperrors.NewInvalidStateError("resolution request is no longer at " + string(from))
	}
	req.ApprovalStatus = to
	if headNotes != nil {
		req.HeadNotes = headNotes
	}
	if registrarNotes != nil {
		req.RegistrarNotes = registrarNotes
	}
	req.ResolvedAt = &resolvedAt
	m.resolutions[id] = req

	if record != nil {
		current, ok := m.records[record.ID]
		if !ok {
			return apperrors.ErrGradeRecordNotFound
		}
		updated := *record
		updated.IncDeadline = nil
		updated.CreatedAt = current.CreatedAt
		updated.UpdatedAt = time.Now()
		m.records[record.ID] = updated
	}
	return nil
}

func (m *MemoryRepository) ListPendingResolutions(_ context.Context, status model.ApprovalStatus) ([]model.PendingResolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var pending []model.PendingResolution
	for id, req := range m.resolutions {
		if req.ApprovalStatus != status {
			continue
		}
		req := m.resolutions[id]
		rec := m.records[req.GradeRecordID]
		pending = append(pending, model.PendingResolution{
			Request: &req,
			Record:  &rec,
			AgeDays: int(now.Sub(req.CreatedAt).Hours() / 24),
		})
	}
	return pending, nil
}

func (m *MemoryRepository) ListExpiredIncompletes(_ context.Context, now time.Time, limit int) ([]model.GradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.GradeRecord
	for _, rec := range m.records {
		if rec.Status != model.GradeStatusInc || rec.IncDeadline == nil {
			continue
		}
		if rec.IncDeadline.After(now) {
			continue
		}
		if m.openResolutionLocked(rec.ID) != nil {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepository) ExpireIncomplete(_ context.Context, id string, failingGrade float64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return apperrors.ErrGradeRecordNotFound
	}
	if rec.Status != model.GradeStatusInc || rec.IncDeadline == nil || rec.IncDeadline.After(now) {
		return apperrors.NewInvalidStateError("record is no longer an expirable incomplete")
	}
	if m.openResolutionLocked(id) != nil {
		return apperrors.NewInvalidStateError("record is no longer an expirable incomplete")
	}
	grade := failingGrade
	finalized := now
	rec.Grade = &grade
	rec.Status = model.GradeStatusFailed
	rec.IncDeadline = nil
	rec.FinalizedAt = &finalized
	rec.UpdatedAt = time.Now()
	m.records[id] = rec
	return nil
}
