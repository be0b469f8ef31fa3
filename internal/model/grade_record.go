package model

import "time"

type GradeStatus string

const (
	GradeStatusEnrolled GradeStatus = "ENROLLED"
	GradeStatusPassed   GradeStatus = "PASSED"
	GradeStatusFailed   GradeStatus = "FAILED"
	GradeStatusInc      GradeStatus = "INC"
	GradeStatusDropped  GradeStatus = "DROPPED"

	// GradeStatusForResolution is a display-only status: an INC or
	// finalized record with an open resolution request. It is derived,
	// never stored.
	GradeStatusForResolution GradeStatus = "FOR_RESOLUTION"
)

// GradeRecord is one student's grade for one subject offering in a term.
// It is created at ENROLLED when the student enlists (owned by the
// enrollment system) and never deleted while the enrollment exists.
type GradeRecord struct {
	ID                  string      `json:"id" db:"id"`
	StudentID           string      `json:"student_id" db:"student_id"`
	SubjectOfferingID   string      `json:"subject_offering_id" db:"subject_offering_id"`
	Grade               *float64    `json:"grade,omitempty" db:"grade"`
	Status              GradeStatus `json:"status" db:"status"`
	Remarks             string      `json:"remarks,omitempty" db:"remarks"`
	FinalizedAt         *time.Time  `json:"finalized_at,omitempty" db:"finalized_at"`
	IncDeadline         *time.Time  `json:"inc_deadline,omitempty" db:"inc_deadline"`
	RetakeEligibleAfter *time.Time  `json:"retake_eligible_after,omitempty" db:"retake_eligible_after"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// DisplayStatus returns the status a review screen should show: records
// with an open resolution request surface as FOR_RESOLUTION while keeping
// their last settled state underneath.
func (r *GradeRecord) DisplayStatus(hasOpenRequest bool) GradeStatus {
	if hasOpenRequest {
		return GradeStatusForResolution
	}
	return r.Status
}

// IsFinalized reports whether the record reached a settled state that
// ordinary submission may no longer overwrite.
func (r *GradeRecord) IsFinalized() bool {
	return r.FinalizedAt != nil
}

// RetakeLocked reports whether the record is held for a retake enrollment
// at the given instant.
func (r *GradeRecord) RetakeLocked(now time.Time) bool {
	return r.RetakeEligibleAfter != nil && r.RetakeEligibleAfter.After(now)
}
