package grading

import (
	"time"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

// Grade scale: 1.00 is the best mark, 5.00 the failing mark.
const (
	ScaleBest  = 1.00
	ScaleWorst = 5.00
)

// Policy holds the institutional grading constants. Status derivation
// lives here and nowhere else, so the passing threshold cannot drift
// between entry points.
type Policy struct {
	PassingThreshold float64
	FailingGrade     float64
	IncDeadline      time.Duration
	RetakeLock       time.Duration
}

func PolicyFromConfig(cfg config.GradingConfig) Policy {
	return Policy{
		PassingThreshold: cfg.PassingThreshold,
		FailingGrade:     cfg.FailingGrade,
		IncDeadline:      time.Duration(cfg.IncDeadlineDays) * 24 * time.Hour,
		RetakeLock:       time.Duration(cfg.RetakeLockDays) * 24 * time.Hour,
	}
}

func (p Policy) ValidateGrade(grade float64) error {
	if grade < ScaleBest || grade > ScaleWorst {
		return apperrors.NewValidationError("grade", grade, "grade must be between 1.00 and 5.00")
	}
	return nil
}

// DeriveStatus maps a professor's form selection to a grade status and
// the grade value that goes with it. Numeric at or below the passing
// threshold is PASSED, above it FAILED; INC and DROPPED selections carry
// no numeric grade.
func (p Policy) DeriveStatus(selection model.GradeSelection, grade *float64) (model.GradeStatus, *float64, error) {
	switch selection {
	case model.SelectionNumeric:
		if grade == nil {
			return "", nil, apperrors.NewValidationError("grade", nil, "numeric selection requires a grade")
		}
		if err := p.ValidateGrade(*grade); err != nil {
			return "", nil, err
		}
		if *grade <= p.PassingThreshold {
			return model.GradeStatusPassed, grade, nil
		}
		return model.GradeStatusFailed, grade, nil
	case model.SelectionInc:
		return model.GradeStatusInc, nil, nil
	case model.SelectionDropped:
		return model.GradeStatusDropped, nil, nil
	default:
		return "", nil, apperrors.NewValidationError("selection", selection, "unknown grade selection")
	}
}
