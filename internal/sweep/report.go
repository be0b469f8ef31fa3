package sweep

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
)

const reportSheet = "Expired Incompletes"

// WriteReportXLSX renders a sweep report as a spreadsheet, one row per
// candidate with its outcome. The registrar's office files these with the
// term records.
func WriteReportXLSX(report *model.SweepReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Grade Record", "Student", "Subject Offering", "INC Deadline", "Days Overdue", "Outcome", "Error"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return nil, err
		}
	}

	rows := reportRows(report)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(reportSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportRows(report *model.SweepReport) [][]interface{} {
	var rows [][]interface{}

	if report.DryRun {
		for _, c := range report.Candidates {
			rows = append(rows, []interface{}{
				c.GradeRecordID, c.StudentID, c.SubjectOfferingID,
				c.IncDeadline.Format("2006-01-02"), c.DaysOverdue, "candidate", "",
			})
		}
		return rows
	}

	for _, o := range report.Outcomes {
		outcome := "expired"
		if !o.Expired {
			outcome = "skipped"
		}
		rows = append(rows, []interface{}{
			o.Candidate.GradeRecordID, o.Candidate.StudentID, o.Candidate.SubjectOfferingID,
			o.Candidate.IncDeadline.Format("2006-01-02"), o.Candidate.DaysOverdue, outcome, o.Error,
		})
	}
	return rows
}

// ArchiveReport writes the xlsx artifact to object storage and returns
// its key.
func ArchiveReport(ctx context.Context, store storage.Storage, report *model.SweepReport) (string, error) {
	data, err := WriteReportXLSX(report)
	if err != nil {
		return "", fmt.Errorf("failed to render sweep report: %w", err)
	}

	key := fmt.Sprintf("sweep-reports/%s/%s.xlsx", report.RanAt.Format("2006-01"), report.JobID)
	if err := store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to archive sweep report: %w", err)
	}
	return key, nil
}
