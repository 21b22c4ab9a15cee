package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/config"
	"github.com/teachexamhub/examhub-backend/internal/database"
	"github.com/teachexamhub/examhub-backend/internal/handler"
	"github.com/teachexamhub/examhub-backend/internal/logger"
	"github.com/teachexamhub/examhub-backend/internal/mail"
	"github.com/teachexamhub/examhub-backend/internal/repository"
	"github.com/teachexamhub/examhub-backend/internal/router"
	"github.com/teachexamhub/examhub-backend/internal/service"
	"github.com/teachexamhub/examhub-backend/internal/validator"
	"github.com/teachexamhub/examhub-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting TeachExamHub Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Mail ──────────────────────────────────────────────────────────
	var sender mail.Sender
	if cfg.SendgridAPIKey != "" {
		sender = mail.NewSendgridSender(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress, log)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, emails will be logged only")
		sender = mail.NewLogSender(log)
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	teacherRepo := repository.NewTeacherRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	monitorRepo := repository.NewMonitorRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	teacherService := service.NewTeacherService(teacherRepo, authService, log)
	examService := service.NewExamService(cfg, examRepo, teacherRepo, rdb, log)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, rdb, log)
	reportService := service.NewReportService(examService, submissionRepo, cfg.PassingScore, log)
	dashboardService := service.NewDashboardService(dashboardRepo)
	monitorService := service.NewMonitorService(monitorRepo, examService, log)
	notificationService := service.NewNotificationService(sender, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(teacherService, log),
		Exam:   handler.NewExamHandler(examService, log),
		Public: handler.NewPublicHandler(examService, log),
		Session: handler.NewSessionHandler(examService, submissionService, monitorService, handler.SessionOptions{
			WarningSeconds:        cfg.TimeWarningSeconds,
			FinalCountdownSeconds: cfg.FinalCountdownSeconds,
			AllowedOrigins:        cfg.AllowedOrigins,
		}, log),
		Report:    handler.NewReportHandler(submissionService, reportService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
		Monitor:   handler.NewMonitorHandler(monitorService, log),
		System:    handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	submissionWorker := worker.NewSubmissionWorker(rdb, submissionRepo, examService, monitorService, notificationService, log)
	examSweeper := worker.NewExamSweeper(examService, int(cfg.ExamCloseSweepInterval/time.Minute), log)
	limiters := router.NewLimiters()

	workers.Add(3)
	go func() { defer workers.Done(); submissionWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); examSweeper.Start(workerCtx) }()
	go func() { defer workers.Done(); limiters.RunCleanup(workerCtx) }()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Published exams are cached before accepting traffic.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiters, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Open WebSocket sessions are
	// hijacked connections and are not waited for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the submission queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
