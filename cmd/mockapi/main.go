// Command mockapi runs a development backend that implements the
// authentication and user endpoints the panel client talks to.
//
//	@title						Distribuidora Carol API
//	@version					1.0
//	@description				Development backend for the panel client: authentication and user accounts.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/api"
	"github.com/distribuidoracarol/panel/internal/api/handler"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/core/service"
	"github.com/distribuidoracarol/panel/internal/infrastructure/config"
	memrepo "github.com/distribuidoracarol/panel/internal/infrastructure/db/memory"
	mongorepo "github.com/distribuidoracarol/panel/internal/infrastructure/db/mongo"
	"github.com/distribuidoracarol/panel/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.LoadMockAPI(ctx)
	if err != nil {
		panic(err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env != "production"})
	log := logger.Component("mockapi")

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open user repository")
	}
	defer closeRepo()

	authService := service.NewAuthService(repo, cfg.JWTSecret, cfg.TokenTTL, log)
	if err := authService.EnsureAdmin(ctx, cfg.Seed.Username, cfg.Seed.Password); err != nil {
		log.Fatal().Err(err).Msg("seed admin user")
	}

	e := api.NewRouter(api.Deps{
		AuthService:     authService,
		Health:          map[string]handler.Pinger{"users": repo},
		JWTSecret:       cfg.JWTSecret,
		LoginRatePerMin: cfg.LoginRatePerMin,
		Log:             log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.WithCORS(e, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("mock API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func openRepository(ctx context.Context, cfg *config.MockAPIConfig, log zerolog.Logger) (ports.AuthRepository, func(), error) {
	if cfg.Mongo.URI == "" {
		log.Warn().Msg("MONGO_URI not set, users are kept in memory")
		return memrepo.NewAuthRepository(), func() {}, nil
	}

	conn, err := mongorepo.Connect(ctx, mongorepo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, err
	}
	repo := mongorepo.NewAuthRepository(conn.DB)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, nil, err
	}

	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}
	return repo, closeFn, nil
}
