package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/HMPS-2025/homework-service/internal/models"
)

const ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MonthlyReportWorkbook renders one student's monthly report as an xlsx
// workbook, returned as bytes for download or email attachment.
func MonthlyReportWorkbook(report *models.MonthlyReport, student *models.User) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	f.SetSheetName("Sheet1", sheet)

	monthName := time.Month(report.Month).String()
	header := fmt.Sprintf("Monthly Report - %s %d", monthName, report.Year)

	rows := [][]interface{}{
		{header},
		{},
		{"Student", student.Name},
		{"Grade", student.Grade},
		{"Section", student.Section},
		{"Roll Number", student.RollNumber},
		{},
		{"Overall Average", fmt.Sprintf("%.1f%%", report.OverallAverage)},
		{"Overall Grade", report.OverallGrade},
		{"Class Rank", fmt.Sprintf("%d of %d", report.ClassRank, report.ClassSize)},
		{},
		{"Subject", "Average", "Grade", "Completed", "Assigned", "Trend"},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	rowNum := len(rows) + 1
	for _, subject := range report.SubjectList() {
		row := []interface{}{
			subject.Subject,
			fmt.Sprintf("%.1f%%", subject.AverageScore),
			subject.Grade,
			subject.HomeworkCompleted,
			subject.TotalHomework,
			string(subject.Trend),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write subject row: %w", err)
		}
		rowNum++
	}

	rowNum++
	sections := []struct {
		title string
		items []string
	}{
		{"Strengths", decodeList(report.Strengths)},
		{"Areas for Improvement", decodeList(report.Improvements)},
		{"Recommendations", decodeList(report.Recommendations)},
	}
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		titleRow := []interface{}{section.title}
		if err := f.SetSheetRow(sheet, cell, &titleRow); err != nil {
			return nil, fmt.Errorf("failed to write section title: %w", err)
		}
		rowNum++
		for _, item := range section.items {
			cell, _ := excelize.CoordinatesToCellName(2, rowNum)
			itemRow := []interface{}{item}
			if err := f.SetSheetRow(sheet, cell, &itemRow); err != nil {
				return nil, fmt.Errorf("failed to write section item: %w", err)
			}
			rowNum++
		}
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ClassResultsWorkbook renders a homework's results sheet for teachers.
func ClassResultsWorkbook(homework *models.Homework, submissions []*models.Submission) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{fmt.Sprintf("Results - %s", homework.Title)},
		{"Subject", homework.Subject, "Grade", homework.Grade, "Total Marks", homework.TotalMarks},
		{},
		{"Student", "Status", "Marks", "Percentage", "Grade", "Late", "Submitted At"},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	rowNum := len(rows) + 1
	for _, sub := range submissions {
		name := sub.StudentID
		if sub.Student != nil {
			name = sub.Student.Name
		}
		grade := ""
		if sub.Grade != nil {
			grade = *sub.Grade
		}
		submittedAt := ""
		if sub.SubmittedAt != nil {
			submittedAt = sub.SubmittedAt.Format("2006-01-02 15:04")
		}
		row := []interface{}{
			name,
			string(sub.Status),
			sub.MarksObtained,
			fmt.Sprintf("%.1f%%", sub.Percentage),
			grade,
			sub.IsLate,
			submittedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write result row: %w", err)
		}
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
