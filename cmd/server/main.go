package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agency-cms-api/internal/api"
	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/service"
	"github.com/agency-cms-api/internal/validation"
	"github.com/agency-cms-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("env", cfg.Env).Msg("Starting agency CMS API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// External collaborators
	store, err := media.New(cfg.Media, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media storage")
	}
	sender, err := mailer.NewSender(cfg.Mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mail sender")
	}
	templates, err := mailer.LoadTemplates(cfg.Mail.FromName, cfg.Payment.FrontendURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load email templates")
	}
	tokens := auth.NewTokenManager(cfg.Auth)

	infra := service.Infra{
		Tokens:    tokens,
		Passwords: auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLength),
		Sanitizer: validation.NewSanitizer(),
		Media:     store,
		Payments:  payment.New(cfg.Payment, log),
		Sender:    sender,
		Templates: templates,
	}

	// Initialize services
	services := service.NewServices(repos, infra, cfg, log)

	// Start background mail dispatcher
	go services.Mail.StartDispatcher(context.Background())
	log.Info().Msg("Mail dispatcher started")

	// Initialize router
	router := api.NewRouter(services, tokens, cfg, log, api.HealthCheck{Name: "database", Check: db.HealthCheck})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain in-flight emails after the last request has been served
	services.Mail.StopDispatcher()

	log.Info().Msg("Server exited gracefully")
}
