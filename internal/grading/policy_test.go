package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

func testPolicy() Policy {
	return Policy{
		PassingThreshold: 3.00,
		FailingGrade:     5.00,
		IncDeadline:      180 * 24 * time.Hour,
	}
}

func f(v float64) *float64 { return &v }

func TestDeriveStatus_Numeric(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name  string
		grade float64
		want  model.GradeStatus
	}{
		{"best mark passes", 1.00, model.GradeStatusPassed},
		{"mid scale passes", 1.50, model.GradeStatusPassed},
		{"threshold passes inclusive", 3.00, model.GradeStatusPassed},
		{"just above threshold fails", 3.25, model.GradeStatusFailed},
		{"four fails", 4.00, model.GradeStatusFailed},
		{"worst mark fails", 5.00, model.GradeStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, grade, err := p.DeriveStatus(model.SelectionNumeric, f(tt.grade))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			require.NotNil(t, grade)
			assert.Equal(t, tt.grade, *grade)
		})
	}
}

func TestDeriveStatus_OutOfScale(t *testing.T) {
	p := testPolicy()

	for _, grade := range []float64{0.99, 0, -1, 5.01, 100} {
		_, _, err := p.DeriveStatus(model.SelectionNumeric, f(grade))
		assert.True(t, apperrors.IsValidation(err), "grade %v should be rejected", grade)
	}
}

func TestDeriveStatus_NumericWithoutGrade(t *testing.T) {
	_, _, err := testPolicy().DeriveStatus(model.SelectionNumeric, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeriveStatus_IncAndDropped(t *testing.T) {
	p := testPolicy()

	status, grade, err := p.DeriveStatus(model.SelectionInc, nil)
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, status)
	assert.Nil(t, grade)

	// An explicit selection discards any numeric grade the form carried.
	status, grade, err = p.DeriveStatus(model.SelectionDropped, f(2.00))
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusDropped, status)
	assert.Nil(t, grade)
}

func TestDeriveStatus_UnknownSelection(t *testing.T) {
	_, _, err := testPolicy().DeriveStatus("BOGUS", nil)
	assert.True(t, apperrors.IsValidation(err))
}
