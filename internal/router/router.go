package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/handler"
	"github.com/teachexamhub/examhub-backend/internal/metrics"
	"github.com/teachexamhub/examhub-backend/internal/middleware"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/teachexamhub/examhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Public    *handler.PublicHandler
	Session   *handler.SessionHandler
	Report    *handler.ReportHandler
	Dashboard *handler.DashboardHandler
	Monitor   *handler.MonitorHandler
	System    *handler.SystemHandler
}

// Limiters holds the per-IP token buckets applied to unauthenticated routes.
type Limiters struct {
	Auth    *middleware.RateLimiter
	Public  *middleware.RateLimiter
	Session *middleware.RateLimiter
}

// NewLimiters returns the default limits: 30 auth attempts, 120 public
// lookups and 20 session connections per minute per IP.
func NewLimiters() *Limiters {
	return &Limiters{
		Auth:    middleware.NewRateLimiter(30, time.Minute),
		Public:  middleware.NewRateLimiter(120, time.Minute),
		Session: middleware.NewRateLimiter(20, time.Minute),
	}
}

// RunCleanup evicts stale buckets of every limiter until ctx is cancelled.
func (l *Limiters) RunCleanup(ctx context.Context) {
	go l.Auth.RunCleanup(ctx)
	go l.Public.RunCleanup(ctx)
	l.Session.RunCleanup(ctx)
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiters *Limiters,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// An empty AllowedOrigins allows all origins so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", middleware.NoStore(), handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── 0. Public Group (No Auth, Rate Limited) ───────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(limiters.Public.Middleware())
	{
		publicAPI.GET("/exams/:code", middleware.CacheControl(30), handlers.Public.GetExam)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/signup", limiters.Auth.Middleware(), handlers.Auth.Signup)
		auth.POST("/login", limiters.Auth.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireTeacherJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireTeacherJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. WebSocket Group (Student, No Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(limiters.Session.Middleware())
	{
		ws.GET("/exams/:code/session", handlers.Session.ExamSession)
	}

	// ─── 3. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService), middleware.NoStore())
	{
		teacherAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)

		// Account
		teacherAPI.PUT("/profile", handlers.Auth.UpdateProfile)
		teacherAPI.PUT("/password", handlers.Auth.ChangePassword)
		teacherAPI.PUT("/preferences", handlers.Auth.UpdatePreferences)

		// Exam authoring
		teacherAPI.GET("/exams", handlers.Exam.ListExams)
		teacherAPI.POST("/exams", handlers.Exam.CreateExam)
		teacherAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		teacherAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		teacherAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		teacherAPI.POST("/exams/:exam_id/duplicate", handlers.Exam.DuplicateExam)
		teacherAPI.POST("/exams/:exam_id/publish", handlers.Exam.PublishExam)
		teacherAPI.POST("/exams/:exam_id/close", handlers.Exam.CloseExam)

		// Results
		teacherAPI.GET("/exams/:exam_id/submissions", handlers.Report.ListSubmissions)
		teacherAPI.GET("/exams/:exam_id/submissions/:submission_id", handlers.Report.GetSubmission)
		teacherAPI.GET("/exams/:exam_id/report", handlers.Report.GetReport)
		teacherAPI.GET("/exams/:exam_id/export", handlers.Report.ExportResults)

		// Live monitoring (SSE)
		teacherAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExamSSE)
		teacherAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
