package api

import (
	"context"
	"net/http"
	"time"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/agency-cms-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const serviceName = "agency-cms-api"

// HealthCheck checks one dependency for /health
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, tokens *auth.TokenManager, cfg *config.Config, log zerolog.Logger, checks ...HealthCheck) *gin.Engine {
	if !cfg.IsDevelopment() && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.RegisterValidators(); err != nil {
		log.Error().Err(err).Msg("Failed to register request validators")
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg))
	router.Use(uuidParams("/api/admin/logs/:id"))

	authn := &authMiddleware{
		tokens:   tokens,
		accounts: services.Auth,
		log:      log.With().Str("component", "auth").Logger(),
	}
	uploads := newRateLimiter(cfg.Upload)
	staff := authn.RequireRole(models.RoleEditor, models.RoleAdmin)
	writers := authn.RequireRole(models.RoleAuthor, models.RoleEditor, models.RoleAdmin)

	// Handlers
	authHandler := NewAuthHandler(services, log)
	articleHandler := NewArticleHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	blogHandler := NewBlogHandler(services, log)
	offerHandler := NewOfferHandler(services, log)
	testimonialHandler := NewTestimonialHandler(services, log)
	teamHandler := NewTeamHandler(services, log)
	contactHandler := NewContactHandler(services, log)
	mediaHandler := NewMediaHandler(services, log)
	portfolioHandler := NewPortfolioHandler(services, log)
	fileHandler := NewProjectFileHandler(services, log)
	paymentHandler := NewPaymentHandler(services, log)
	webhookHandler := NewWebhookHandler(services, log)
	exportHandler := NewExportHandler(services, log)
	adminHandler := NewAdminHandler(services, log)

	// Health check and metrics
	router.GET("/health", healthCheck(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Processor webhooks read the raw body, so they sit outside /api
	router.POST("/webhooks/stripe", webhookHandler.Stripe)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/check", authn.OptionalAuth(), authHandler.Check)
			authGroup.GET("/me", authn.RequireAuth(), authHandler.Me)
			authGroup.POST("/refresh", authn.RequireAuth(), authHandler.Refresh)
		}

		articles := api.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/mine", authn.RequireAuth(), articleHandler.Mine)
			articles.GET("/:slug", articleHandler.Get)
			articles.POST("", authn.RequireAuth(), writers, articleHandler.Create)
			articles.PUT("/:id", authn.RequireAuth(), writers, articleHandler.Update)
			articles.DELETE("/:id", authn.RequireAuth(), writers, articleHandler.Delete)
		}

		rubriques := api.Group("/rubriques")
		{
			rubriques.GET("", articleHandler.ListRubriques)
			rubriques.GET("/:slug", articleHandler.GetRubrique)
			rubriques.POST("", authn.RequireAuth(), authn.RequireAdmin(), articleHandler.CreateRubrique)
			rubriques.PUT("/:id", authn.RequireAuth(), authn.RequireAdmin(), articleHandler.UpdateRubrique)
			rubriques.DELETE("/:id", authn.RequireAuth(), authn.RequireAdmin(), articleHandler.DeleteRubrique)
		}

		comments := api.Group("/comments")
		{
			comments.GET("/article/:id", authn.OptionalAuth(), commentHandler.ListByArticle)
			comments.POST("/article/:id", authn.OptionalAuth(), commentHandler.Create)
			comments.GET("/pending", authn.RequireAuth(), staff, commentHandler.Pending)
			comments.PUT("/moderation", authn.RequireAuth(), staff, commentHandler.SetModeration)
			comments.PUT("/:id", authn.RequireAuth(), commentHandler.Update)
			comments.DELETE("/:id", authn.RequireAuth(), commentHandler.Delete)
			comments.PATCH("/:id/approve", authn.RequireAuth(), staff, commentHandler.Approve)
		}

		blog := api.Group("/blog")
		{
			blog.GET("", blogHandler.List)
			blog.GET("/categories", blogHandler.Categories)
			blog.GET("/tags", blogHandler.Tags)
			blog.GET("/admin/all", authn.RequireAuth(), staff, blogHandler.ListAll)
			blog.GET("/admin/stats", authn.RequireAuth(), staff, blogHandler.Stats)
			blog.GET("/:slug", blogHandler.Get)
			blog.POST("", authn.RequireAuth(), staff, blogHandler.Create)
			blog.PUT("/:id", authn.RequireAuth(), staff, blogHandler.Update)
			blog.DELETE("/:id", authn.RequireAuth(), authn.RequireAdmin(), blogHandler.Delete)
		}

		offers := api.Group("/offers")
		{
			offers.GET("", offerHandler.List)
			offers.GET("/admin/all", authn.RequireAuth(), authn.RequireAdmin(), offerHandler.ListAll)
			offers.GET("/admin/stats", authn.RequireAuth(), authn.RequireAdmin(), offerHandler.Stats)
			offers.GET("/:slug", offerHandler.Get)
			offers.POST("", authn.RequireAuth(), authn.RequireAdmin(), offerHandler.Create)
			offers.PUT("/:id", authn.RequireAuth(), authn.RequireAdmin(), offerHandler.Update)
			offers.DELETE("/:id", authn.RequireAuth(), authn.RequireAdmin(), offerHandler.Delete)
		}

		testimonials := api.Group("/testimonials")
		{
			testimonials.GET("", testimonialHandler.List)
			testimonials.GET("/admin/all", authn.RequireAuth(), authn.RequireAdmin(), testimonialHandler.ListAll)
			testimonials.GET("/admin/stats", authn.RequireAuth(), authn.RequireAdmin(), testimonialHandler.Stats)
			testimonials.GET("/:id", testimonialHandler.Get)
			testimonials.POST("", authn.RequireAuth(), testimonialHandler.Create)
			testimonials.PUT("/:id", authn.RequireAuth(), authn.RequireAdmin(), testimonialHandler.Update)
			testimonials.PATCH("/:id/approve", authn.RequireAuth(), authn.RequireAdmin(), testimonialHandler.Approve)
			testimonials.DELETE("/:id", authn.RequireAuth(), authn.RequireAdmin(), testimonialHandler.Delete)
		}

		team := api.Group("/team")
		{
			team.GET("", teamHandler.List)
			team.PUT("/profile", authn.RequireAuth(), teamHandler.UpdateProfile)
			team.PUT("/members/:id", authn.RequireAuth(), authn.RequireAdmin(), teamHandler.UpdateMember)
			team.GET("/:username", teamHandler.Get)
		}

		newsletter := api.Group("/newsletter")
		{
			newsletter.POST("/subscribe", contactHandler.Subscribe)
			newsletter.POST("/unsubscribe", contactHandler.Unsubscribe)
			admin := newsletter.Group("/admin", authn.RequireAuth(), authn.RequireAdmin())
			admin.GET("/subscribers", contactHandler.Subscribers)
			admin.GET("/stats", contactHandler.NewsletterStats)
			admin.GET("/export", exportHandler.Subscribers)
		}

		contact := api.Group("/contact")
		{
			contact.POST("", contactHandler.Submit)
			admin := contact.Group("/admin", authn.RequireAuth(), authn.RequireAdmin())
			admin.GET("/messages", contactHandler.List)
			admin.GET("/stats", contactHandler.Stats)
			admin.GET("/export", exportHandler.Contacts)
			admin.GET("/messages/:id", contactHandler.Thread)
			admin.POST("/messages/:id/reply", contactHandler.Reply)
			admin.PATCH("/messages/:id", contactHandler.Update)
			admin.DELETE("/messages/:id", contactHandler.Delete)
		}

		notifications := api.Group("/notifications", authn.RequireAuth())
		{
			notifications.GET("", adminHandler.ListNotifications)
			notifications.PATCH("/read-all", adminHandler.MarkAllNotificationsRead)
			notifications.PATCH("/:id/read", adminHandler.MarkNotificationRead)
		}

		admin := api.Group("/admin", authn.RequireAuth(), authn.RequireAdmin())
		{
			admin.GET("/logs", adminHandler.ListActivity)
			admin.GET("/logs/stats", adminHandler.ActivityStats)
			admin.GET("/logs/:id", adminHandler.GetActivity)
			admin.GET("/alerts", adminHandler.ListAlerts)
			admin.POST("/alerts", adminHandler.CreateAlert)
			admin.PATCH("/alerts/:id/resolve", adminHandler.ResolveAlert)
		}

		maxGallery := cfg.Upload.MaxImageSize*int64(max(cfg.Upload.MaxFiles, 1)) + 1<<20
		mediaGroup := api.Group("/media", authn.RequireAuth(), uploads.Middleware(),
			limitBody(max(maxGallery, cfg.Upload.MaxFileSize+1<<20)))
		{
			mediaGroup.POST("/avatar", mediaHandler.Avatar)
			mediaGroup.POST("/team/photo", mediaHandler.TeamPhoto)
			mediaGroup.POST("/articles/image", writers, mediaHandler.ArticleImage)
			mediaGroup.POST("/rubriques/image", authn.RequireAdmin(), mediaHandler.RubriqueImage)
			mediaGroup.POST("/gallery", staff, mediaHandler.Gallery)
			mediaGroup.POST("/files", staff, mediaHandler.File)
			mediaGroup.GET("/search", staff, mediaHandler.Search)
			mediaGroup.DELETE("/assets/*public_id", staff, mediaHandler.Delete)
		}

		portfolio := api.Group("/portfolio/images")
		{
			portfolio.GET("", portfolioHandler.List)
			portfolio.POST("", authn.RequireAuth(), authn.RequireAdmin(), uploads.Middleware(),
				limitBody(maxGallery), portfolioHandler.Upload)
			portfolio.PUT("/reorder", authn.RequireAuth(), authn.RequireAdmin(), portfolioHandler.Reorder)
			portfolio.PATCH("/:id", authn.RequireAuth(), authn.RequireAdmin(), portfolioHandler.Update)
			portfolio.DELETE("/:id", authn.RequireAuth(), authn.RequireAdmin(), portfolioHandler.Delete)
		}

		maxProjectFiles := cfg.Upload.MaxFileSize*int64(max(cfg.Upload.MaxFiles, 1)) + 1<<20
		projectFiles := api.Group("/projects/:id/files", authn.RequireAuth())
		{
			projectFiles.GET("", fileHandler.List)
			projectFiles.POST("", uploads.Middleware(), limitBody(maxProjectFiles), fileHandler.Upload)
			projectFiles.GET("/:file_id", fileHandler.Get)
			projectFiles.GET("/:file_id/download", fileHandler.Download)
			projectFiles.PATCH("/:file_id", fileHandler.Update)
			projectFiles.DELETE("/:file_id", fileHandler.Delete)
		}

		payments := api.Group("/payments", authn.RequireAuth())
		{
			payments.POST("/intent", paymentHandler.CreateIntent)
			payments.POST("/checkout-session", paymentHandler.CreateCheckout)
			payments.GET("", paymentHandler.ListMine)
			admin := payments.Group("/admin", authn.RequireAdmin())
			admin.GET("/all", paymentHandler.ListAll)
			admin.GET("/export", exportHandler.Payments)
			admin.POST("/customers", paymentHandler.CreateCustomer)
			admin.POST("/invoices", paymentHandler.CreateInvoice)
			admin.POST("/:id/refund", paymentHandler.Refund)
			payments.GET("/:id", paymentHandler.GetMine)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	return router
}

// healthCheck returns the health status, 503 when a dependency is down
func healthCheck(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		deps := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				deps[hc.Name] = err.Error()
				status, code = "unhealthy", http.StatusServiceUnavailable
				continue
			}
			deps[hc.Name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":       status,
			"timestamp":    time.Now().Format(time.RFC3339),
			"service":      serviceName,
			"dependencies": deps,
		})
	}
}
