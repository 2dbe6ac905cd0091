// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masalahub/kitchenplan/internal/api"
	"github.com/masalahub/kitchenplan/internal/cache"
	"github.com/masalahub/kitchenplan/internal/config"
	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/repository/postgres"
	"github.com/masalahub/kitchenplan/internal/service"
	"github.com/masalahub/kitchenplan/internal/storage"
	"github.com/masalahub/kitchenplan/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize plan cache (noop when disabled)
	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without it")
		planCache = cache.NewNoopPlanCache()
	}

	// Initialize object storage for plan export, if configured
	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		store, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
	}

	// Initialize services
	repo := postgres.NewPlanningRepository(db)
	planService := service.NewPlanService(repo, planCache, store, cfg.Planner.Locations, cfg.Planner.WorkerCount)

	// Start the periodic plan refresher
	refreshCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()
	refresher := service.NewRefresher(
		planService,
		domain.ParseTimeframe(cfg.Planner.DefaultTimeframe),
		time.Duration(cfg.Planner.RefreshSeconds)*time.Second,
	)
	go refresher.Run(refreshCtx)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{PlanService: planService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	stopRefresher()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
