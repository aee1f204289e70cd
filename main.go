package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/handlers"
	"github.com/Vegeta420Blaze/buzzer-app/internal/security"
	"github.com/Vegeta420Blaze/buzzer-app/internal/services"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	metrics := services.NewMetrics()
	registry := services.NewRoomRegistry(metrics)
	hub := services.NewHub(metrics)
	game := services.NewGameService(registry, hub, metrics, cfg.PublicURL)
	hub.Bind(game)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go hub.Run(ctx)

	origins := security.NewOriginValidator(cfg.AllowedOrigins)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/ws", handlers.NewWSHandler(hub, origins))
	r.Handle("/rooms/{code}/qr", handlers.NewQRHandler(registry, cfg.PublicURL))
	r.Get("/api/metrics", handlers.HandleMetrics(hub))
	r.Get("/api/health", handlers.HandleHealth(hub))
	r.Handle("/*", handlers.Static(cfg.StaticDir))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
