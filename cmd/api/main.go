package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/savanapaaa/BE-form-pengajuan/api/swagger"
	"github.com/savanapaaa/BE-form-pengajuan/internal/handler"
	"github.com/savanapaaa/BE-form-pengajuan/internal/middleware"
	"github.com/savanapaaa/BE-form-pengajuan/internal/repository"
	"github.com/savanapaaa/BE-form-pengajuan/internal/router"
	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/cache"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/config"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/database"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/logger"
	corsmiddleware "github.com/savanapaaa/BE-form-pengajuan/pkg/middleware/cors"
	reqidmiddleware "github.com/savanapaaa/BE-form-pengajuan/pkg/middleware/requestid"
	"github.com/savanapaaa/BE-form-pengajuan/pkg/storage"
)

// @title Form Pengajuan API
// @version 1.0.0
// @description Content submission workflow backend
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, queue caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	blobStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	submissionRepo := repository.NewSubmissionRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	validationRepo := repository.NewValidationRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, auditRepo, validate, logr)

	var workflowOpts []service.WorkflowServiceOption
	if redisClient != nil && cfg.Queues.Enabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		workflowOpts = append(workflowOpts, service.WithQueueCache(cacheRepo, cfg.Queues.CacheTTL), service.WithCacheObserver(metricsSvc))
	}
	workflowSvc := service.NewWorkflowService(workflowRepo, submissionRepo, reviewRepo, validationRepo, attachmentRepo, auditRepo, logr, workflowOpts...)

	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, submissionRepo, blobStore, signer, auditRepo, logr, service.AttachmentServiceConfig{
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		APIPrefix:   cfg.APIPrefix,
	})
	rekapSvc := service.NewRekapService(submissionRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		User:       handler.NewUserHandler(userSvc),
		Submission: handler.NewSubmissionHandler(submissionSvc),
		Workflow:   handler.NewWorkflowHandler(workflowSvc, metricsSvc),
		Attachment: handler.NewAttachmentHandler(attachmentSvc, metricsSvc),
		Rekap:      handler.NewRekapHandler(rekapSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, db, redisClient),
	}
	router.New(r, handlers, router.Options{
		APIPrefix:   cfg.APIPrefix,
		EnableDocs:  cfg.Env != config.EnvProduction,
		AuthService: authSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
