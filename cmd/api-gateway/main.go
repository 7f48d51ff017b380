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

	_ "github.com/noah-isme/sma-tatib-api/api/swagger"
	"github.com/noah-isme/sma-tatib-api/internal/handler"
	"github.com/noah-isme/sma-tatib-api/internal/middleware"
	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/repository"
	"github.com/noah-isme/sma-tatib-api/internal/service"
	"github.com/noah-isme/sma-tatib-api/pkg/cache"
	"github.com/noah-isme/sma-tatib-api/pkg/config"
	"github.com/noah-isme/sma-tatib-api/pkg/database"
	"github.com/noah-isme/sma-tatib-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-tatib-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-tatib-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-tatib-api/pkg/storage"
)

// @title SMA Tatib API
// @version 1.0.0
// @description Disciplinary case management for the student affairs office
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	localStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	violationRepo := repository.NewViolationRepository(db)
	sanctionTypeRepo := repository.NewSanctionTypeRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Reports.CacheTTL, logr, false)
	}

	auditSvc := service.NewAuditService(auditRepo, metricsSvc, logr, service.AuditQueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, auditSvc, validate, logr)
	violationSvc := service.NewViolationService(violationRepo, auditSvc, validate, logr)
	sanctionTypeSvc := service.NewSanctionTypeService(sanctionTypeRepo, auditSvc, validate, logr)
	caseSvc := service.NewCaseService(caseRepo, studentRepo, violationRepo, sanctionTypeRepo,
		cacheSvc, auditSvc, validate, logr, service.CaseServiceConfig{
			EnforceTransitions: cfg.Cases.EnforceTransitions,
		})
	reportSvc := service.NewReportService(reportRepo, cacheSvc, logr, service.ReportServiceConfig{
		CacheTTL:    cfg.Reports.CacheTTL,
		TopStudents: cfg.Reports.TopStudents,
		RecentLimit: cfg.Cases.RecentLimit,
	})
	profileSvc := service.NewProfileService(reportRepo, logr, cfg.Cases.RecentLimit)

	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	uploadSvc := service.NewUploadService(localStore, signer, auditSvc, logr, service.UploadConfig{
		PublicBaseURL:    cfg.Uploads.PublicBaseURL,
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	violationHandler := handler.NewViolationHandler(violationSvc)
	sanctionTypeHandler := handler.NewSanctionTypeHandler(sanctionTypeSvc)
	caseHandler := handler.NewCaseHandler(caseSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Expose)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.Static(cfg.Uploads.PublicBaseURL, cfg.Uploads.StorageDir)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/uploads/:token", uploadHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.GET("/profile/stats", profileHandler.Stats)

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleGuru))
		{
			staff.GET("/students", studentHandler.List)
			staff.GET("/students/:id", studentHandler.Get)

			staff.GET("/violations/categories", violationHandler.ListCategories)
			staff.GET("/violations", violationHandler.List)
			staff.GET("/violations/:id", violationHandler.Get)

			staff.GET("/master/sanction-types", sanctionTypeHandler.List)
			staff.GET("/master/sanction-types/:id", sanctionTypeHandler.Get)

			staff.GET("/cases", caseHandler.List)
			staff.GET("/cases/:id", caseHandler.Get)
			staff.POST("/cases", caseHandler.Create)
			staff.PATCH("/cases/:id/status", caseHandler.UpdateStatus)
			staff.POST("/cases/:id/actions", caseHandler.AddAction)
			staff.PUT("/cases/:id/actions/:actionId", caseHandler.UpdateAction)
			staff.DELETE("/cases/:id/actions/:actionId", caseHandler.DeleteAction)
			staff.POST("/cases/:id/sanctions", caseHandler.AddSanction)
			staff.PATCH("/cases/:id/sanctions/:sanctionId/complete", caseHandler.CompleteSanction)

			staff.GET("/reports/dashboard", reportHandler.Dashboard)
			staff.GET("/reports/monthly", reportHandler.Monthly)
			staff.GET("/reports/statistics", reportHandler.Statistics)
			staff.GET("/reports/export", reportHandler.Export)

			staff.POST("/upload", uploadHandler.Upload)
			staff.POST("/uploads/sign", uploadHandler.Sign)
		}

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/students", studentHandler.Create)
			admin.PUT("/students/:id", studentHandler.Update)
			admin.DELETE("/students/:id", studentHandler.Delete)

			admin.POST("/violations/categories", violationHandler.CreateCategory)
			admin.PUT("/violations/categories/:id", violationHandler.UpdateCategory)
			admin.POST("/violations", violationHandler.Create)
			admin.PUT("/violations/:id", violationHandler.Update)

			admin.POST("/master/sanction-types", sanctionTypeHandler.Create)
			admin.PUT("/master/sanction-types/:id", sanctionTypeHandler.Update)
			admin.DELETE("/master/sanction-types/:id", sanctionTypeHandler.Delete)

			admin.GET("/audit-logs", auditHandler.List)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
