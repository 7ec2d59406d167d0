package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/config"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type HandlerManager struct {
	lessonHandler      *LessonHandler
	questionHandler    *QuestionHandler
	homeworkHandler    *HomeworkHandler
	submissionHandler  *SubmissionHandler
	gradingHandler     *GradingHandler
	performanceHandler *PerformanceHandler
	reportHandler      *ReportHandler
	authMiddleware     *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		lessonHandler:      NewLessonHandler(serviceManager.Lesson(), logger),
		questionHandler:    NewQuestionHandler(serviceManager.Question(), logger),
		homeworkHandler:    NewHomeworkHandler(serviceManager.Homework(), logger),
		submissionHandler:  NewSubmissionHandler(serviceManager.Submission(), logger),
		gradingHandler:     NewGradingHandler(serviceManager.Grading(), logger),
		performanceHandler: NewPerformanceHandler(serviceManager.Performance(), logger),
		reportHandler:      NewReportHandler(serviceManager.Report(), userRepo, logger),
		authMiddleware:     authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		staffOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

		// Lesson routes
		lessons := v1.Group("/lessons")
		{
			lessons.POST("", staffOnly, hm.lessonHandler.CreateLesson)
			lessons.GET("", hm.lessonHandler.ListLessons)
			lessons.GET("/:id", hm.lessonHandler.GetLesson)
			lessons.PUT("/:id", staffOnly, hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", staffOnly, hm.lessonHandler.DeleteLesson)
		}

		// Question routes (authoring is staff-only)
		questions := v1.Group("/questions")
		questions.Use(staffOnly)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/generate", hm.questionHandler.GenerateQuestions)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Homework routes
		homework := v1.Group("/homework")
		{
			homework.POST("", staffOnly, hm.homeworkHandler.CreateHomework)
			homework.GET("", hm.homeworkHandler.ListHomework)
			homework.GET("/:id", hm.homeworkHandler.GetHomework)
			homework.PUT("/:id", staffOnly, hm.homeworkHandler.UpdateHomework)
			homework.DELETE("/:id", staffOnly, hm.homeworkHandler.DeleteHomework)
			homework.POST("/:id/publish", staffOnly, hm.homeworkHandler.PublishHomework)
			homework.POST("/:id/close", staffOnly, hm.homeworkHandler.CloseHomework)
			homework.GET("/:id/stats", staffOnly, hm.homeworkHandler.GetHomeworkStats)
			homework.POST("/schedule-week", staffOnly, hm.homeworkHandler.ScheduleWeek)

			// Student submission flow
			homework.PUT("/:id/draft", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.SaveDraft)
			homework.POST("/:id/submit", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.Submit)
			homework.GET("/:id/submissions", staffOnly, hm.submissionHandler.ListHomeworkSubmissions)
			homework.POST("/:id/grade", staffOnly, hm.gradingHandler.GradeHomework)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("/mine", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.ListMySubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.POST("/:id/grade", staffOnly, hm.gradingHandler.GradeSubmission)
			submissions.POST("/:id/override", staffOnly, hm.gradingHandler.OverrideGrade)
		}

		// Performance routes
		performance := v1.Group("/performance")
		{
			performance.GET("/students/:student_id", hm.performanceHandler.GetStudentPerformance)
			performance.POST("/students/:student_id/compute", staffOnly, hm.performanceHandler.ComputeStudentPerformance)
			performance.GET("/class", staffOnly, hm.performanceHandler.GetClassOverview)
		}

		// Report routes
		reports := v1.Group("/reports")
		{
			reports.POST("/generate", staffOnly, hm.reportHandler.GenerateReports)
			reports.GET("/students/:student_id", hm.reportHandler.GetReport)
			reports.GET("/students/:student_id/download", hm.reportHandler.DownloadReport)
			reports.POST("/students/:student_id/email", staffOnly, hm.reportHandler.EmailReport)
		}
	}
}

// HealthCheck godoc
// @Summary Health check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": "homework-service",
	})
}
