package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/savanapaaa/BE-form-pengajuan/internal/handler"
	"github.com/savanapaaa/BE-form-pengajuan/internal/middleware"
	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	"github.com/savanapaaa/BE-form-pengajuan/internal/service"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Submission *handler.SubmissionHandler
	Workflow   *handler.WorkflowHandler
	Attachment *handler.AttachmentHandler
	Rekap      *handler.RekapHandler
	Metrics    *handler.MetricsHandler
}

// Options controls optional route groups.
type Options struct {
	APIPrefix   string
	EnableDocs  bool
	AuthService *service.AuthService
}

// New mounts all routes on the engine.
func New(r *gin.Engine, h Handlers, opts Options) {
	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/stats", h.Metrics.Stats)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// Token downloads carry their own signed credential.
	api.GET("/files/download", h.Attachment.DownloadByToken)

	authed := api.Group("")
	authed.Use(middleware.JWT(opts.AuthService))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.GET("/auth/me", h.Auth.Me)

		admin := authed.Group("/users", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("", h.User.Create)
			admin.GET("", h.User.List)
			admin.GET("/:id", h.User.Get)
			admin.PUT("/:id", h.User.Update)
			admin.DELETE("/:id", h.User.Deactivate)
		}

		submissions := authed.Group("/submissions")
		{
			submissions.POST("", h.Submission.Create)
			submissions.GET("", h.Submission.List)
			submissions.GET("/:id", h.Submission.Get)
			submissions.PUT("/:id", h.Submission.Update)
			submissions.DELETE("/:id", h.Submission.Delete)
			submissions.POST("/:id/confirm", h.Submission.Confirm)
			submissions.POST("/:id/items", h.Submission.AddContentItem)
			submissions.GET("/:id/items", h.Submission.ListContentItems)
			submissions.GET("/:id/attachments", h.Attachment.ListBySubmission)
		}

		reviews := authed.Group("/reviews")
		{
			reviews.GET("", h.Workflow.ReviewQueue)
			reviews.GET("/:id", h.Workflow.Get)
			reviews.POST("/:id/assign", h.Workflow.AssignReviewer)
			reviews.POST("/:id", h.Workflow.SubmitReview)
		}

		validations := authed.Group("/validations")
		{
			validations.GET("", h.Workflow.ValidationQueue)
			validations.GET("/:id", h.Workflow.Get)
			validations.POST("/:id/assign", h.Workflow.AssignValidator)
			validations.POST("/:id", h.Workflow.SubmitValidation)
		}

		attachments := authed.Group("/attachments")
		{
			attachments.POST("", h.Attachment.Upload)
			attachments.GET("/:id/download", h.Attachment.Download)
			attachments.POST("/:id/link", h.Attachment.Link)
			attachments.DELETE("/:id", h.Attachment.Delete)
		}

		rekap := authed.Group("/rekap", middleware.RequireRoles(models.RoleRekap, models.RoleAdmin))
		{
			rekap.GET("/export", h.Rekap.Export)
			rekap.GET("/summary", h.Rekap.Summary)
		}
	}
}
