package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/friends_api/internal/config"
	"github.com/mroshb/friends_api/internal/database"
	"github.com/mroshb/friends_api/internal/handlers"
	"github.com/mroshb/friends_api/internal/middleware"
	"github.com/mroshb/friends_api/internal/repositories"
	"github.com/mroshb/friends_api/internal/security"
	"github.com/mroshb/friends_api/internal/services"
	"github.com/mroshb/friends_api/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	logger.Info("Starting friends API...", "env", cfg.AppEnv)

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	userRepo := repositories.NewUserRepository(db)
	friendRepo := repositories.NewFriendRepository(db)

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL, cfg.EmailTokenTTL)

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else if cfg.RequireEmailVerification {
		logger.Warn("SMTP_HOST not set, verification emails will only be logged")
	}

	// Three verification emails per address per hour
	emailLimiter := middleware.NewKeyedLimiter(3, time.Hour)

	authSvc := services.NewAuthService(userRepo, tokens, mailer, emailLimiter, services.AuthOptions{
		BcryptCost:               cfg.BcryptCost,
		RequireEmailVerification: cfg.RequireEmailVerification,
		PublicBaseURL:            cfg.PublicBaseURL,
	})
	friendSvc := services.NewFriendService(friendRepo, userRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, time.Minute)
	defer rateLimiter.Stop()

	h := handlers.NewHandlerManager(authSvc, friendSvc, tokens, rateLimiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server stopped")
}
