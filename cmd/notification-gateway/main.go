package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"venuepulse/config"
	"venuepulse/gateway"
	"venuepulse/metrics"
	"venuepulse/middleware"
	"venuepulse/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Setup logger
	logger := utils.NewLogger("notification-gateway")

	// Initialize hub and handlers
	m := metrics.New()
	hub := gateway.NewHub(m, logger)
	handler := gateway.NewHandler(hub, logger)

	// Create HTTP mux
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint with JWT authentication
	mux.Handle("/ws", middleware.JWTAuth(cfg.JWTSecret, http.HandlerFunc(handler.ServeWS)))

	// Internal publish endpoints, also behind JWT
	mux.Handle("/notify/event-activated", middleware.JWTAuth(cfg.JWTSecret, http.HandlerFunc(handler.PublishEventActivated)))
	mux.Handle("/notify/department-note", middleware.JWTAuth(cfg.JWTSecret, http.HandlerFunc(handler.PublishDepartmentNote)))

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.GatewayPort,
		Handler:      middleware.Logging(logger, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting Notification Gateway", "port", cfg.GatewayPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	hub.CloseAll()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
