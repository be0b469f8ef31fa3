package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

// Repository is the persistence boundary for grade records and resolution
// requests, the only shared mutable state in the grade lifecycle core.
//
// The "at most one open resolution request per record" invariant lives
// here: CreateResolution is an atomic check-and-create, backed by a unique
// key in the MySQL implementation, so two concurrent submissions cannot
// both pass the guard.
type Repository interface {
	GetGradeRecord(ctx context.Context, id string) (*model.GradeRecord, error)

	// UpdateGradeRecord applies a direct-write transition. The update is
	// a compare-and-set on the record's prior status; a stale writer gets
	// InvalidStateError instead of clobbering a concurrent transition.
	UpdateGradeRecord(ctx context.Context, rec *model.GradeRecord, expectStatus model.GradeStatus) error

	GetResolution(ctx context.Context, id string) (*model.ResolutionRequest, error)
	GetOpenResolution(ctx context.Context, gradeRecordID string) (*model.ResolutionRequest, error)

	// CreateResolution inserts a new open request. Returns ConflictError
	// if an open request already exists for the record.
	CreateResolution(ctx context.Context, req *model.ResolutionRequest) error

	// AdvanceResolution moves an open request between pending steps
	// (PENDING_HEAD -> PENDING_REGISTRAR), recording head notes.
	AdvanceResolution(ctx context.Context, id string, from, to model.ApprovalStatus, headNotes *string) error

	// CloseResolution moves a request to a terminal status and, when
	// record is non-nil, applies the proposed change to the grade record
	// in the same transaction. No observable window exists where the
	// request is APPROVED but the record still holds its old state.
	CloseResolution(ctx context.Context, id string, from, to model.ApprovalStatus,
		headNotes, registrarNotes *string, resolvedAt time.Time, record *model.GradeRecord) error

	ListPendingResolutions(ctx context.Context, status model.ApprovalStatus) ([]model.PendingResolution, error)

	// ListExpiredIncompletes returns INC records whose deadline is at or
	// before now (inclusive) and which have no open resolution request.
	ListExpiredIncompletes(ctx context.Context, now time.Time, limit int) ([]model.GradeRecord, error)

	// ExpireIncomplete force-fails one overdue INC record. The WHERE
	// guards re-check status, deadline, and the absence of an open
	// request, so a sweep racing a professor's resolution loses cleanly
	// with InvalidStateError.
	ExpireIncomplete(ctx context.Context, id string, failingGrade float64, now time.Time) error
}

type mysqlRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &mysqlRepository{db: db}
}

const gradeRecordColumns = `id, student_id, subject_offering_id, grade, status, remarks,
	finalized_at, inc_deadline, retake_eligible_after, created_at, updated_at`

func scanGradeRecord(row interface{ Scan(...interface{}) error }) (*model.GradeRecord, error) {
	var rec model.GradeRecord
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.SubjectOfferingID, &rec.Grade,
		&rec.Status, &rec.Remarks, &rec.FinalizedAt, &rec.IncDeadline,
		&rec.RetakeEligibleAfter, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *mysqlRepository) GetGradeRecord(ctx context.Context, id string) (*model.GradeRecord, error) {
	query := `SELECT ` + gradeRecordColumns + ` FROM grade_records WHERE id = ?`

	rec, err := scanGradeRecord(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrGradeRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *mysqlRepository) UpdateGradeRecord(ctx context.Context, rec *model.GradeRecord, expectStatus model.GradeStatus) error {
	query := `UPDATE grade_records
		SET grade = ?, status = ?, remarks = ?, finalized_at = ?, inc_deadline = ?,
			retake_eligible_after = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, query, rec.Grade, rec.Status, rec.Remarks,
		rec.FinalizedAt, rec.IncDeadline, rec.RetakeEligibleAfter, rec.ID, expectStatus)
	if err != nil {
		return err
	}
	return requireOneRow(res, "grade record changed state since it was read")
}

const resolutionColumns = `id, grade_record_id, requested_by, proposed_grade, proposed_status,
	reason, approval_status, head_notes, registrar_notes, created_at, resolved_at`

func scanResolution(row interface{ Scan(...interface{}) error }) (*model.ResolutionRequest, error) {
	var req model.ResolutionRequest
	err := row.Scan(&req.ID, &req.GradeRecordID, &req.RequestedBy, &req.ProposedGrade,
		&req.ProposedStatus, &req.Reason, &req.ApprovalStatus, &req.HeadNotes,
		&req.RegistrarNotes, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *mysqlRepository) GetResolution(ctx context.Context, id string) (*model.ResolutionRequest, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolution_requests WHERE id = ?`

	req, err := scanResolution(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrResolutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *mysqlRepository) GetOpenResolution(ctx context.Context, gradeRecordID string) (*model.ResolutionRequest, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolution_requests
		WHERE grade_record_id = ? AND open_marker = 1`

	req, err := scanResolution(r.db.QueryRowContext(ctx, query, gradeRecordID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// open_marker is 1 while the request is open and NULL once terminal; the
// unique key (grade_record_id, open_marker) ignores NULLs, so MySQL
// serializes the one-open-request check for us. A duplicate-key error
// means a concurrent writer won.
func (r *mysqlRepository) CreateResolution(ctx context.Context, req *model.ResolutionRequest) error {
	query := `INSERT INTO resolution_requests
		(id, grade_record_id, requested_by, proposed_grade, proposed_status, reason,
		 approval_status, open_marker, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`

	_, err := r.db.ExecContext(ctx, query, req.ID, req.GradeRecordID, req.RequestedBy,
		req.ProposedGrade, req.ProposedStatus, req.Reason, req.ApprovalStatus, req.CreatedAt)
	if isDuplicateKey(err) {
		return apperrors.NewConflictError("an open resolution request already exists for this record")
	}
	return err
}

func (r *mysqlRepository) AdvanceResolution(ctx context.Context, id string, from, to model.ApprovalStatus, headNotes *string) error {
	query := `UPDATE resolution_requests
		SET approval_status = ?, head_notes = COALESCE(?, head_notes)
		WHERE id = ? AND approval_status = ?`

	res, err := r.db.ExecContext(ctx, query, to, headNotes, id, from)
	if err != nil {
		return err
	}
	return requireOneRow(res, "resolution request is no longer at "+string(from))
}

func (r *mysqlRepository) CloseResolution(ctx context.Context, id string, from, to model.ApprovalStatus,
	headNotes, registrarNotes *string, resolvedAt time.Time, record *model.GradeRecord) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE resolution_requests
		SET approval_status = ?, head_notes = COALESCE(?, head_notes),
			registrar_notes = COALESCE(?, registrar_notes),
			resolved_at = ?, open_marker = NULL
		WHERE id = ? AND approval_status = ?`

	res, err := tx.ExecContext(ctx, query, to, headNotes, registrarNotes, resolvedAt, id, from)
	if err != nil {
		return err
	}
	if err := requireOneRow(res, "resolution request is no longer at "+string(from)); err != nil {
		return err
	}

	if record != nil {
		recQuery := `UPDATE grade_records
			SET grade = ?, status = ?, remarks = ?, finalized_at = ?, inc_deadline = NULL,
				retake_eligible_after = ?, updated_at = NOW()
			WHERE id = ?`
		if _, err := tx.ExecContext(ctx, recQuery, record.Grade, record.Status, record.Remarks,
			record.FinalizedAt, record.RetakeEligibleAfter, record.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *mysqlRepository) ListPendingResolutions(ctx context.Context, status model.ApprovalStatus) ([]model.PendingResolution, error) {
	query := `SELECT r.id, r.grade_record_id, r.requested_by, r.proposed_grade, r.proposed_status,
			r.reason, r.approval_status, r.head_notes, r.registrar_notes, r.created_at, r.resolved_at,
			g.id, g.student_id, g.subject_offering_id, g.grade, g.status, g.remarks,
			g.finalized_at, g.inc_deadline, g.retake_eligible_after, g.created_at, g.updated_at
		FROM resolution_requests r
		JOIN grade_records g ON g.id = r.grade_record_id
		WHERE r.approval_status = ?
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	var pending []model.PendingResolution
	for rows.Next() {
		var req model.ResolutionRequest
		var rec model.GradeRecord
		err := rows.Scan(&req.ID, &req.GradeRecordID, &req.RequestedBy, &req.ProposedGrade,
			&req.ProposedStatus, &req.Reason, &req.ApprovalStatus, &req.HeadNotes,
			&req.RegistrarNotes, &req.CreatedAt, &req.ResolvedAt,
			&rec.ID, &rec.StudentID, &rec.SubjectOfferingID, &rec.Grade, &rec.Status,
			&rec.Remarks, &rec.FinalizedAt, &rec.IncDeadline, &rec.RetakeEligibleAfter,
			&rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, err
		}
		pending = append(pending, model.PendingResolution{
			Request: &req,
			Record:  &rec,
			AgeDays: int(now.Sub(req.CreatedAt).Hours() / 24),
		})
	}
	return pending, rows.Err()
}

func (r *mysqlRepository) ListExpiredIncompletes(ctx context.Context, now time.Time, limit int) ([]model.GradeRecord, error) {
	query := `SELECT ` + gradeRecordColumns + ` FROM grade_records g
		WHERE g.status = 'INC' AND g.inc_deadline <= ?
		AND NOT EXISTS (
			SELECT 1 FROM resolution_requests r
			WHERE r.grade_record_id = g.id AND r.open_marker = 1
		)
		ORDER BY g.inc_deadline ASC`

	args := []interface{}{now}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.GradeRecord
	for rows.Next() {
		rec, err := scanGradeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *mysqlRepository) ExpireIncomplete(ctx context.Context, id string, failingGrade float64, now time.Time) error {
	query := `UPDATE grade_records g
		SET g.grade = ?, g.status = 'FAILED', g.inc_deadline = NULL,
			g.finalized_at = ?, g.updated_at = NOW()
		WHERE g.id = ? AND g.status = 'INC' AND g.inc_deadline <= ?
		AND NOT EXISTS (
			SELECT 1 FROM resolution_requests r
			WHERE r.grade_record_id = g.id AND r.open_marker = 1
		)`

	res, err := r.db.ExecContext(ctx, query, failingGrade, now, id, now)
	if err != nil {
		return err
	}
	return requireOneRow(res, "record is no longer an expirable incomplete")
}

func requireOneRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewInvalidStateError(msg)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
