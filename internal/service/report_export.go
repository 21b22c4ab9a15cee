package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

var resultsHeader = []interface{}{
	"Student", "Email", "Student ID", "Score (%)", "Correct", "MCQ Total",
	"Progress (%)", "Duration (min)", "Forced", "Started At", "Submitted At",
}

// ExportResults renders every submission of the exam as an XLSX workbook.
// It returns the file contents and a suggested file name.
func (s *ReportService) ExportResults(ctx context.Context, teacherID int, examID uuid.UUID) ([]byte, string, error) {
	exam, err := s.exams.owned(ctx, teacherID, examID)
	if err != nil {
		return nil, "", err
	}
	subs, err := s.subs.ListAllByExam(ctx, examID)
	if err != nil {
		return nil, "", fmt.Errorf("list submissions: %w", err)
	}

	buf, err := WriteResultsWorkbook(subs)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("exam_id", examID.String()).Int("rows", len(subs)).Msg("Results exported")
	return buf.Bytes(), exportFileName(exam.Title), nil
}

// WriteResultsWorkbook builds the results workbook for subs.
func WriteResultsWorkbook(subs []model.SubmissionRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &resultsHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(resultsHeader))
	if err := f.SetCellStyle(resultsSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, sub := range subs {
		var score interface{} = ""
		if sub.Score != nil {
			score = *sub.Score
		}
		row := []interface{}{
			sub.StudentName,
			sub.StudentEmail,
			sub.StudentID,
			score,
			sub.CorrectCount,
			sub.MultipleChoiceCount,
			sub.Progress,
			round2(float64(sub.DurationTakenSeconds) / 60),
			sub.Forced,
			sub.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			sub.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func exportFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(title))
	if name == "" {
		name = "exam"
	}
	return name + "_results.xlsx"
}
