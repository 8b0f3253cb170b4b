package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/triagedesk/triagedesk/internal/config"
	"github.com/triagedesk/triagedesk/internal/database"
	"github.com/triagedesk/triagedesk/internal/handlers"
	"github.com/triagedesk/triagedesk/internal/jobs"
	"github.com/triagedesk/triagedesk/internal/middleware"
	"github.com/triagedesk/triagedesk/internal/services"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting TriageDesk...")

	// Initialize JWT authentication middleware. Auth is optional: with no
	// admin password configured the API is open.
	jwtConfig := &middleware.JWTAuthConfig{
		Enabled:        cfg.AuthEnabled(),
		AdminUsername:  cfg.AdminUsername,
		JWTSecret:      cfg.JWTSecret,
		JWTExpiryHours: cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/login",
		},
	}
	if cfg.AuthEnabled() {
		passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		jwtConfig.AdminPasswordHash = passwordHash
	}
	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(jwtConfig)
	if cfg.AuthEnabled() {
		log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)
	} else {
		log.Printf("JWT authentication disabled (ADMIN_PASSWORD not set)")
	}

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Load classifier settings (file is optional, defaults apply)
	classifierSettings, err := config.LoadClassifierSettings(cfg.ClassifierConfigPath)
	if err != nil {
		log.Fatalf("Failed to load classifier settings: %v", err)
	}
	log.Printf("Classifier settings: model=%s max_concurrency=%d", classifierSettings.Model, classifierSettings.MaxConcurrency)

	classifier := services.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, classifierSettings)

	// Background task runner for analysis processing
	runner := jobs.NewRunner()

	// Initialize services
	ticketService := services.NewTicketService(database.GetDB())
	analysisService := services.NewAnalysisService(database.GetDB(), classifier, runner)

	// Start the stuck ticket sweep
	stopSweep := make(chan struct{})
	sweep := jobs.NewStuckTicketSweep(
		database.GetDB(),
		time.Duration(cfg.StuckTicketMaxAgeMinutes)*time.Minute,
		time.Minute,
	)
	go sweep.Start(stopSweep)
	log.Printf("Stuck ticket sweep started (max age: %d minutes)", cfg.StuckTicketMaxAgeMinutes)

	// Initialize handlers
	httpHandler := handlers.NewHTTPHandler()
	apiHandler := handlers.NewAPIHandler(ticketService, analysisService, runner)
	authHandler := handlers.NewAuthHandler(jwtAuthMiddleware)

	// Set up HTTP server routes
	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)

	// Wrap all routes: CORS first, then request IDs, then JWT authentication
	corsMiddleware := middleware.NewCORSMiddleware() // Allow all origins
	handler := corsMiddleware.Wrap(middleware.RequestIDMiddleware(jwtAuthMiddleware.Wrap(mux)))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")
	close(stopSweep)

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Close(); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Let in-flight analysis runs finish before closing the database
	log.Println("Waiting for background tasks...")
	runner.Wait()

	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}
