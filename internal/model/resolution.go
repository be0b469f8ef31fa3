package model

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPendingHead      ApprovalStatus = "PENDING_HEAD"
	ApprovalStatusPendingRegistrar ApprovalStatus = "PENDING_REGISTRAR"
	ApprovalStatusApproved         ApprovalStatus = "APPROVED"
	ApprovalStatusRejected         ApprovalStatus = "REJECTED"
	ApprovalStatusRevoked          ApprovalStatus = "REVOKED"
)

// IsTerminal reports whether the approval chain is closed. A terminal
// request is immutable.
func (s ApprovalStatus) IsTerminal() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusRevoked:
		return true
	}
	return false
}

// ResolutionRequest is a proposed grade change held for oversight. At most
// one open request exists per grade record; the storage layer enforces the
// uniqueness atomically.
type ResolutionRequest struct {
	ID             string         `json:"id" db:"id"`
	GradeRecordID  string         `json:"grade_record_id" db:"grade_record_id"`
	RequestedBy    string         `json:"requested_by" db:"requested_by"`
	ProposedGrade  *float64       `json:"proposed_grade,omitempty" db:"proposed_grade"`
	ProposedStatus GradeStatus    `json:"proposed_status" db:"proposed_status"`
	Reason         string         `json:"reason" db:"reason"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	HeadNotes      *string        `json:"head_notes,omitempty" db:"head_notes"`
	RegistrarNotes *string        `json:"registrar_notes,omitempty" db:"registrar_notes"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
}
