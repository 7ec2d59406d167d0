package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HMPS-2025/homework-service/internal/services"
)

// Grades the school runs, used when scheduling for all of them.
var schoolGrades = []int{6, 7, 8, 9, 10, 11}

// ===== WEEKLY HOMEWORK =====

// WeeklyHomeworkJob schedules the coming week's homework for every
// grade and subject, Monday mornings.
type WeeklyHomeworkJob struct {
	homework services.HomeworkService
	actor    string
	logger   *slog.Logger
}

func NewWeeklyHomeworkJob(homework services.HomeworkService, actor string, logger *slog.Logger) *WeeklyHomeworkJob {
	return &WeeklyHomeworkJob{homework: homework, actor: actor, logger: logger}
}

func (j *WeeklyHomeworkJob) Name() string { return "weekly-homework" }

// NextRun is the next Monday at 06:00 local time.
func (j *WeeklyHomeworkJob) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (j *WeeklyHomeworkJob) Run(ctx context.Context) error {
	weekStart := startOfWeek(time.Now())

	var failures int
	for _, grade := range schoolGrades {
		req := services.ScheduleWeekRequest{Grade: grade, WeekStart: weekStart}
		created, err := j.homework.ScheduleWeek(ctx, req, j.actor)
		if err != nil {
			j.logger.Error("weekly scheduling failed for grade", "grade", grade, "error", err)
			failures++
			continue
		}
		j.logger.Info("weekly homework scheduled for grade", "grade", grade, "created", len(created))
	}

	if failures == len(schoolGrades) {
		return fmt.Errorf("weekly scheduling failed for all grades")
	}
	return nil
}

func startOfWeek(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) - int(time.Monday) + 7) % 7
	day := t.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// ===== HOMEWORK LIFECYCLE =====

// HomeworkLifecycleJob activates scheduled homework that has reached
// its assigned date and closes homework past its due date. Runs hourly.
type HomeworkLifecycleJob struct {
	homework services.HomeworkService
}

func NewHomeworkLifecycleJob(homework services.HomeworkService) *HomeworkLifecycleJob {
	return &HomeworkLifecycleJob{homework: homework}
}

func (j *HomeworkLifecycleJob) Name() string { return "homework-lifecycle" }

func (j *HomeworkLifecycleJob) NextRun(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

func (j *HomeworkLifecycleJob) Run(ctx context.Context) error {
	if _, err := j.homework.ActivateScheduled(ctx); err != nil {
		return err
	}
	_, err := j.homework.CloseOverdue(ctx)
	return err
}

// ===== MONTHLY REPORTS =====

// MonthlyReportJob generates and emails the previous month's reports on
// the first day of each month.
type MonthlyReportJob struct {
	report services.ReportService
	logger *slog.Logger
}

func NewMonthlyReportJob(report services.ReportService, logger *slog.Logger) *MonthlyReportJob {
	return &MonthlyReportJob{report: report, logger: logger}
}

func (j *MonthlyReportJob) Name() string { return "monthly-reports" }

// NextRun is 07:00 local time on the first of the next month.
func (j *MonthlyReportJob) NextRun(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 7, 0, 0, 0, now.Location())
	if !first.After(now) {
		first = first.AddDate(0, 1, 0)
	}
	return first
}

func (j *MonthlyReportJob) Run(ctx context.Context) error {
	// report on the month that just ended
	prev := time.Now().AddDate(0, -1, 0)
	year, month := prev.Year(), int(prev.Month())

	var failures int
	for _, grade := range schoolGrades {
		reports, err := j.report.GenerateForClass(ctx, grade, "", year, month)
		if err != nil {
			j.logger.Error("report generation failed for grade", "grade", grade, "error", err)
			failures++
			continue
		}

		for _, report := range reports {
			if err := j.report.EmailReport(ctx, report.StudentID, year, month); err != nil {
				j.logger.Warn("failed to email report",
					"student_id", report.StudentID, "error", err)
			}
		}
	}

	if failures == len(schoolGrades) {
		return fmt.Errorf("report generation failed for all grades")
	}
	return nil
}
