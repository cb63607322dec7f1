package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/api"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/config"
	"github.com/taskhive/taskhive-be/internal/database"
	"github.com/taskhive/taskhive-be/internal/logger"
	"github.com/taskhive/taskhive-be/internal/reminder"
	"github.com/taskhive/taskhive-be/internal/services"
	"github.com/taskhive/taskhive-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up auth primitives. The signing secret lives only inside the
	// token service for the lifetime of the process.
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	// Set up services
	userService := services.NewUserService(db, hasher)
	taskService := services.NewTaskService(db)

	guard := auth.NewGuard(tokens, userService)

	// Set up the event hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up and run the background due-date sweeper
	sweeper, err := reminder.New(taskService, hub, cfg.ReminderSchedule, cfg.ReminderLookahead)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize due-date sweeper")
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(guard, userService, taskService, hub, tokens, cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
