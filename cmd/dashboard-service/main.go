package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuepulse/config"
	"venuepulse/db"
	"venuepulse/handlers"
	"venuepulse/metrics"
	"venuepulse/services"
	"venuepulse/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger := utils.NewLogger("dashboard-service")

	// Connect to database
	database, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	// Initialize Redis client
	redisClient := services.NewRedisClient(cfg)
	defer redisClient.Close()

	// Initialize metrics and stores
	m := metrics.New()
	sessionStore := services.NewRedisSessionStore(redisClient, logger, cfg.SessionTTL)
	activityStore := services.NewGormActivityStore(database)

	// Start the session reaper
	reaper := services.NewReaper(sessionStore, logger, cfg.ReaperInterval)
	reaper.Start()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionStore, m, logger)
	activityHandler := handlers.NewActivityHandler(activityStore, m, logger)

	router := handlers.NewRouter(cfg, sessionHandler, activityHandler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting Dashboard Service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	reaper.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
