package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/HMPS-2025/homework-service/internal/models"
)

func testReport(t *testing.T) *models.MonthlyReport {
	t.Helper()
	subjects, err := json.Marshal([]models.SubjectSummary{
		{Subject: "Science", AverageScore: 82.5, Grade: "A-", HomeworkCompleted: 7, TotalHomework: 8, Trend: models.TrendImproving},
		{Subject: "Math", AverageScore: 64, Grade: "B-", HomeworkCompleted: 6, TotalHomework: 8, Trend: models.TrendStable},
	})
	if err != nil {
		t.Fatalf("Failed to marshal subjects: %v", err)
	}
	strengths, err := json.Marshal([]string{"Consistent work in Science"})
	if err != nil {
		t.Fatalf("Failed to marshal strengths: %v", err)
	}

	return &models.MonthlyReport{
		ID:             1,
		StudentID:      "student-1",
		Year:           2026,
		Month:          8,
		OverallAverage: 73.3,
		OverallGrade:   "B",
		ClassRank:      4,
		ClassSize:      30,
		Subjects:       datatypes.JSON(subjects),
		Strengths:      datatypes.JSON(strengths),
	}
}

func testStudent() *models.User {
	return &models.User{
		ID:         "student-1",
		Name:       "Asha Verma",
		Role:       models.RoleStudent,
		Grade:      7,
		Section:    "A",
		RollNumber: "7A-12",
	}
}

func TestMonthlyReportWorkbook(t *testing.T) {
	data, err := MonthlyReportWorkbook(testReport(t), testStudent())
	if err != nil {
		t.Fatalf("MonthlyReportWorkbook failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Expected workbook bytes")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Workbook is not valid xlsx: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue("Report", "A1")
	if err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	if header != "Monthly Report - August 2026" {
		t.Errorf("Header = %q, want %q", header, "Monthly Report - August 2026")
	}

	student, err := f.GetCellValue("Report", "B3")
	if err != nil {
		t.Fatalf("Failed to read student cell: %v", err)
	}
	if student != "Asha Verma" {
		t.Errorf("Student cell = %q, want %q", student, "Asha Verma")
	}

	// first subject row sits right under the table header
	subject, err := f.GetCellValue("Report", "A13")
	if err != nil {
		t.Fatalf("Failed to read subject cell: %v", err)
	}
	if subject != "Science" {
		t.Errorf("Subject cell = %q, want %q", subject, "Science")
	}
}

func TestClassResultsWorkbook(t *testing.T) {
	grade := "B+"
	submittedAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	homework := &models.Homework{
		ID:         1,
		Title:      "Plant processes quiz",
		Subject:    "Science",
		Grade:      7,
		TotalMarks: 12,
	}
	submissions := []*models.Submission{
		{
			StudentID:     "student-1",
			Status:        models.SubmissionGraded,
			MarksObtained: 9.5,
			Percentage:    79.2,
			Grade:         &grade,
			SubmittedAt:   &submittedAt,
		},
		{
			StudentID: "student-2",
			Status:    models.SubmissionSubmitted,
			IsLate:    true,
		},
	}

	data, err := ClassResultsWorkbook(homework, submissions)
	if err != nil {
		t.Fatalf("ClassResultsWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Workbook is not valid xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}
	// title, meta, blank, header, two result rows
	if len(rows) < 6 {
		t.Fatalf("Expected at least 6 rows, got %d", len(rows))
	}
	if rows[4][0] != "student-1" {
		t.Errorf("First result row = %q, want %q", rows[4][0], "student-1")
	}
}
