package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/database"
	"github.com/stemsi/lentera-backend/internal/handler"
	"github.com/stemsi/lentera-backend/internal/logger"
	"github.com/stemsi/lentera-backend/internal/repository"
	"github.com/stemsi/lentera-backend/internal/router"
	"github.com/stemsi/lentera-backend/internal/service"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
	"github.com/stemsi/lentera-backend/internal/validator"
	"github.com/stemsi/lentera-backend/internal/worker"
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
		Msg("Starting Lentera Backend")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	instructorRepo := repository.NewInstructorRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	discussionRepo := repository.NewDiscussionRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	sessionRepo := repository.NewAssignmentSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	clock := timekeeper.SystemClock{}
	eventSink := service.NewRedisSessionEventSink(rdb)

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo)
	instructorService := service.NewInstructorService(instructorRepo)
	courseService := service.NewCourseService(courseRepo, videoRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, studentRepo)
	discussionService := service.NewDiscussionService(discussionRepo, enrollmentRepo, courseRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, sessionRepo, rdb, clock, log)
	accountingService := service.NewSessionAccountingService(sessionRepo, assignmentRepo, enrollmentRepo, eventSink, clock, log)
	answerService := service.NewAnswerService(answerRepo, rdb, log)
	monitorService := service.NewMonitorService(monitorRepo, answerRepo, clock)
	dashboardService := service.NewDashboardService(dashboardRepo)
	mediaService := service.NewMediaService(cfg)
	settingService := service.NewSettingService(settingRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentService, instructorService),
		StudentPortal: handler.NewStudentPortalHandler(accountingService, assignmentService, answerService, enrollmentService, courseService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService, authService),
		Course:        handler.NewCourseHandler(courseService, enrollmentService),
		Assignment:    handler.NewAssignmentHandler(assignmentService),
		Discussion:    handler.NewDiscussionHandler(discussionService),
		Media:         handler.NewMediaHandler(mediaService),
		WS:            handler.NewWSHandler(accountingService, answerService, log, cfg.AllowedOrigins),
		Setting:       handler.NewSettingHandler(settingService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Monitor:       handler.NewMonitorHandler(rdb, assignmentService, monitorService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(pool, rdb, log)
	eventWorker := worker.NewSessionEventWorker(pool, rdb, log)

	go answerWorker.Start(workerCtx)
	go eventWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published assignments into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := assignmentService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
