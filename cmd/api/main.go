package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/storage"

	// Use an alias to prevent naming collisions with the 'server' variable
	apiserver "github.com/greenbelt-recorded-talks/talks-processing/internal/api/server"
)

func main() {
	_ = godotenv.Load()

	// 1. Setup Configuration
	cfg, err := config.Load()
	if err != nil {
		base := log.Base()
		base.Fatal().Err(err).Msg("config")
	}
	log.Configure(log.Config{Level: cfg.Server.LogLevel, Pretty: cfg.Server.LogPretty, Service: "talks-rota-api"})
	logger := log.WithComponent("main")
	logger.Info().Msg("starting rota API server")

	if cfg.Server.JWTSecret == "" {
		logger.Warn().Msg("server.jwt_secret is empty, every protected route will answer 401")
	}

	// 2. Initialize Infrastructure
	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}

	// 3. Run Database Migrations
	if err := db.AutoMigrate(); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	if err := database.SeedSettings(context.Background(), db.DB); err != nil {
		logger.Fatal().Err(err).Msg("seed rota settings")
	}

	// 4. Storage
	store, err := storage.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage")
	}

	// 5. Setup Metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/_metrics", promhttp.Handler())
		logger.Info().Str("addr", cfg.Server.MetricsPort).Msg("metrics exposed at /_metrics")
		if err := http.ListenAndServe(cfg.Server.MetricsPort, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	// 6. Rota engine
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("event timezone")
	}
	clashMode, err := rota.ParseClashMode(cfg.Rota.ClashMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("clash mode")
	}
	engine := rota.NewEngine(database.NewRotaStore(db.DB),
		rota.WithClashMode(clashMode),
		rota.WithLocation(loc),
	)

	// 7. Start Server
	srv := apiserver.New(cfg, db, store, engine, loc)

	logger.Info().Str("addr", cfg.Server.Port).Msg("API server listening")
	if err := srv.Start(cfg.Server.Port); err != nil {
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
