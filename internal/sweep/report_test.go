package sweep

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
)

func TestWriteReportXLSX(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	report := &model.SweepReport{
		JobID: "job-1",
		RanAt: deadline.Add(72 * time.Hour),
		Outcomes: []model.SweepOutcome{
			{
				Candidate: model.SweepCandidate{
					GradeRecordID:     "gr-1",
					StudentID:         "student-1",
					SubjectOfferingID: "offering-1",
					IncDeadline:       deadline,
					DaysOverdue:       3,
				},
				Expired: true,
			},
			{
				Candidate: model.SweepCandidate{
					GradeRecordID: "gr-2",
					StudentID:     "student-2",
					IncDeadline:   deadline,
				},
				Error: "record is no longer an expirable incomplete",
			},
		},
		Expired: 1,
		Failed:  1,
	}

	data, err := WriteReportXLSX(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per outcome")
	assert.Equal(t, "Grade Record", rows[0][0])
	assert.Equal(t, "gr-1", rows[1][0])
	assert.Equal(t, "expired", rows[1][5])
	assert.Equal(t, "skipped", rows[2][5])
}
