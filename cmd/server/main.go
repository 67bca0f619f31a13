package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lambda-http-router/examples/routes"
	"lambda-http-router/internal/config"
	"lambda-http-router/internal/handlers"
	"lambda-http-router/pkg/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependencies
	container, err := server.NewContainer(cfg, routes.New().Register)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, cfg)

	routerConfig := &handlers.RouterConfig{
		Config:      cfg,
		Dispatcher:  container.Dispatcher,
		AuthService: container.AuthService,
		Metrics:     container.Metrics,
	}
	if err := handlers.SetupRoutes(router, routerConfig); err != nil {
		logger.WithError(err).Fatal("Failed to set up routes")
	}
	handlers.SetupDevelopmentRoutes(router, routerConfig)

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"routes":  container.Table.Len(),
		"swagger": "http://localhost:" + cfg.Port + handlers.GatewayPrefix + "/swagger/index.html",
	}).Info("Local gateway started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
