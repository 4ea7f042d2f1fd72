package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "calendar-relay-backend/docs"
	"calendar-relay-backend/internal/api/routes"
	"calendar-relay-backend/internal/auth"
	"calendar-relay-backend/internal/config"
	"calendar-relay-backend/internal/database"
	"calendar-relay-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Calendar Relay API
// @version 1.0
// @description Backend relay between authenticated users and the Microsoft Graph calendar API.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	authConfig, err := auth.LoadAuthConfig("config/auth.yaml")
	if err != nil {
		log.Fatalf("failed to load auth configuration: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	db, err := database.Initialize(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	router, err := routes.SetupRoutes(db, cfg, authConfig)
	if err != nil {
		log.Fatalf("failed to set up routes: %v", err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Infof("server listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}
	log.Info("server stopped")
}
