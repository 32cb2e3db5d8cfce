package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siga-api/api/swagger"
	"github.com/noah-isme/siga-api/internal/handler"
	"github.com/noah-isme/siga-api/internal/middleware"
	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/repository"
	"github.com/noah-isme/siga-api/internal/service"
	"github.com/noah-isme/siga-api/pkg/cache"
	"github.com/noah-isme/siga-api/pkg/config"
	"github.com/noah-isme/siga-api/pkg/database"
	"github.com/noah-isme/siga-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siga-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siga-api/pkg/middleware/requestid"
)

// @title SIGA API
// @version 1.0.0
// @description Academic management API: identity, catalog, enrollment, grading, attendance and reporting
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)
	}

	userRepo := repository.NewUserRepository(db)
	termRepo := repository.NewTermRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	observationRepo := repository.NewObservationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, termRepo, enrollmentRepo, validate, logr)
	termSvc := service.NewTermService(termRepo, enrollmentRepo, cfg.Academic.PassingAverage, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, userRepo, subjectRepo, termRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sectionRepo, termRepo, userRepo, cacheSvc, cfg.Academic.MaxSubjectsPerTerm, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, sectionRepo, termRepo, cacheSvc, cfg.Academic.PassingAverage, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, sectionRepo, cacheSvc, cfg.Academic.MinAttendancePercent, validate, logr)
	observationSvc := service.NewObservationService(observationRepo, enrollmentRepo, sectionRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, termRepo, cacheSvc, service.ReportThresholds{
		PassingAverage:       cfg.Academic.PassingAverage,
		MinAttendancePercent: cfg.Academic.MinAttendancePercent,
	}, logr)
	exportSvc := service.NewExportService(reportSvc, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	termHandler := handler.NewTermHandler(termSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	observationHandler := handler.NewObservationHandler(observationSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
		authed.PUT("/password", authHandler.ChangePassword)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleDirector, models.RoleAdmin)
	teaching := middleware.RequireRoles(models.RoleDirector, models.RoleAdmin, models.RoleProfessor)
	student := middleware.RequireRoles(models.RoleStudent)

	users := protected.Group("/users")
	{
		users.GET("", staff, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleDirector), string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", staff, userHandler.Create)
		users.PUT("/:id", staff, userHandler.Update)
		users.DELETE("/:id", staff, middleware.Audit(userRepo, models.AuditActionUserDeactivate, "users"), userHandler.Deactivate)
		users.PUT("/:id/activate", staff, userHandler.Reactivate)
	}

	terms := protected.Group("/terms")
	{
		terms.GET("", termHandler.List)
		terms.GET("/active", termHandler.GetActive)
		terms.GET("/:id", termHandler.Get)
		terms.POST("", staff, termHandler.Create)
		terms.POST("/:id/activate", staff, termHandler.Activate)
		terms.POST("/:id/close", staff, termHandler.Close)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", staff, subjectHandler.Create)
		subjects.PUT("/:id", staff, subjectHandler.Update)
	}

	sections := protected.Group("/sections")
	{
		sections.GET("", sectionHandler.List)
		sections.GET("/available", student, sectionHandler.ListAvailable)
		sections.GET("/:id", sectionHandler.Get)
		sections.POST("", staff, sectionHandler.Create)
		sections.PUT("/:id", staff, sectionHandler.Update)
		sections.GET("/:id/roster", teaching, enrollmentHandler.Roster)
		sections.GET("/:id/grades", teaching, gradeHandler.ListBySection)
		sections.GET("/:id/attendance", teaching, attendanceHandler.ListBySection)
	}

	enrollment := protected.Group("/enrollment")
	{
		enrollment.POST("", student, enrollmentHandler.Enroll)
		enrollment.DELETE("/:id", middleware.RequireRoles(models.RoleStudent, models.RoleDirector, models.RoleAdmin), enrollmentHandler.Withdraw)
		enrollment.GET("/info", student, enrollmentHandler.Info)
		enrollment.GET("/sections", student, enrollmentHandler.Sections)
	}

	grades := protected.Group("/grades")
	{
		grades.GET("", student, gradeHandler.ListMine)
		grades.PUT("/:id", teaching, gradeHandler.Upsert)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.POST("", teaching, attendanceHandler.Set)
		attendance.GET("/:id/summary", attendanceHandler.Summary)
		attendance.PUT("/:id/summary", teaching, attendanceHandler.SetSummary)
	}

	observations := protected.Group("/observations")
	{
		observations.GET("", observationHandler.List)
		observations.POST("", middleware.RequireRoles(models.RoleProfessor), observationHandler.Create)
		observations.PUT("/:id", teaching, observationHandler.Update)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/dashboard", staff, reportHandler.Dashboard)
		reports.GET("/alerts", teaching, reportHandler.Alerts)
		reports.GET("/consolidated", teaching, reportHandler.Consolidated)
		reports.GET("/consolidated/export", teaching, reportHandler.Export)
	}

	protected.GET("/system/metrics", staff, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
