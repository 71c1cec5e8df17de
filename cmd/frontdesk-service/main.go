package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medisync/frontdesk/internal/intake"
	"github.com/medisync/frontdesk/pkg/config"
	"github.com/medisync/frontdesk/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting Front-Desk Service")

	// Initialize intake service
	service, err := intake.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize intake service")
	}

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := service.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server stopped")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Front-Desk Service")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := service.Stop(ctx); err != nil {
		logger.WithError(err).Error("Failed to shutdown gracefully")
		os.Exit(1)
	}

	logger.Info("Front-Desk Service stopped")
}
