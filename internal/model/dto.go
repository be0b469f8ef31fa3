package model

import "time"

// GradeSelection is what the professor picked on the entry form: either a
// numeric grade, or an explicit INC/DROPPED selection with no number.
type GradeSelection string

const (
	SelectionNumeric GradeSelection = "NUMERIC"
	SelectionInc     GradeSelection = "INC"
	SelectionDropped GradeSelection = "DROPPED"
)

type SubmitGradeRequest struct {
	Selection GradeSelection `json:"selection"`
	Grade     *float64       `json:"grade,omitempty"`
	Remarks   string         `json:"remarks,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// SubmitGradeResult tells the caller which path the submission took.
type SubmitGradeResult struct {
	Record     *GradeRecord       `json:"record"`
	Resolution *ResolutionRequest `json:"resolution,omitempty"`
}

type DecideRequest struct {
	Decision string `json:"decision"` // "approve" or "reject"
	Notes    string `json:"notes,omitempty"`
}

type PendingResolution struct {
	Request *ResolutionRequest `json:"request"`
	Record  *GradeRecord       `json:"record"`
	AgeDays int                `json:"age_days"`
}

// SweepJob is the queue payload for a commit-mode expiration sweep.
type SweepJob struct {
	JobID       string    `json:"job_id"`
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// SweepCandidate is one overdue INC record, as reported by a dry run.
type SweepCandidate struct {
	GradeRecordID     string    `json:"grade_record_id"`
	StudentID         string    `json:"student_id"`
	SubjectOfferingID string    `json:"subject_offering_id"`
	IncDeadline       time.Time `json:"inc_deadline"`
	DaysOverdue       int       `json:"days_overdue"`
}

// SweepOutcome is one record's result in a commit-mode sweep. Failures
// are collected here, never propagated as a batch-wide error.
type SweepOutcome struct {
	Candidate SweepCandidate `json:"candidate"`
	Expired   bool           `json:"expired"`
	Error     string         `json:"error,omitempty"`
}

type SweepReport struct {
	JobID      string           `json:"job_id"`
	DryRun     bool             `json:"dry_run"`
	RanAt      time.Time        `json:"ran_at"`
	Candidates []SweepCandidate `json:"candidates,omitempty"`
	Outcomes   []SweepOutcome   `json:"outcomes,omitempty"`
	Expired    int              `json:"expired"`
	Failed     int              `json:"failed"`
}

// NotificationEvent is published fire-and-forget on grade state changes.
// Delivery is owned by the notification system, not this service.
type NotificationEvent struct {
	Kind              string      `json:"kind"` // grade.updated, resolution.decided, grade.expired
	GradeRecordID     string      `json:"grade_record_id"`
	StudentID         string      `json:"student_id"`
	SubjectOfferingID string      `json:"subject_offering_id"`
	Status            GradeStatus `json:"status"`
	OccurredAt        time.Time   `json:"occurred_at"`
}
