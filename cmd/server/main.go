package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"monochrome/internal/auth"
	"monochrome/internal/config"
	"monochrome/internal/db"
	routes "monochrome/internal/http"
	"monochrome/internal/models"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// A missing .env file is fine in production, where env vars are set
	// directly.
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	database, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := database.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Reaction{},
		&models.Comment{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	env := &routes.Env{
		DB:     database,
		Tokens: auth.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL),
		Cfg:    cfg,
		Log:    log,
	}
	if cfg.GoogleClientID != "" {
		env.Google = &auth.GoogleClient{ClientID: cfg.GoogleClientID}
	} else {
		log.Info().Msg("GOOGLE_CLIENT_ID not set, google login disabled")
	}

	router := gin.New()
	routes.SetupRoutes(router, env)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exiting")
}
