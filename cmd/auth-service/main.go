// @title        Authentication Service API
// @version      1.0
// @description  Registers users, issues access tokens and validates them for other services.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/api"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/core/service"
	"github.com/99minutos/taskhub/internal/core/token"
	"github.com/99minutos/taskhub/internal/infrastructure/config"
	"github.com/99minutos/taskhub/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/taskhub/internal/infrastructure/db/mongo"
	"github.com/99minutos/taskhub/internal/infrastructure/http/handlers"
	"github.com/99minutos/taskhub/pkg/logger"
	"github.com/99minutos/taskhub/pkg/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "auth-service: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadAuth(ctx)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "auth-service",
	})
	if err != nil {
		return err
	}

	codec, err := token.NewCodec(cfg.Token.SecretKey, cfg.Token.Algorithm)
	if err != nil {
		return err
	}

	users, checks, closeStore, err := openUserStore(ctx, cfg, logger.Component(log, "store"))
	if err != nil {
		return err
	}
	defer closeStore()

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequests: cfg.RateLimit.Requests,
			Window:      cfg.RateLimit.Window(),
		})
		go limiter.Run(ctx)
	}

	e := api.NewAuthRouter(api.AuthDeps{
		Service: service.NewAuthService(users, codec, cfg.Token.TTL(), logger.Component(log, "auth")),
		Limiter: limiter,
		Checks:  checks,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Bool("rate_limit", limiter != nil).Msg("auth service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openUserStore(ctx context.Context, cfg *config.AuthConfig, log zerolog.Logger) (ports.UserRepository, []handlers.Check, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory credential store; users are lost on restart")
		return memory.NewUserRepository(), nil, func() {}, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}

	repo := mongostore.NewUserRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("ensure user indexes: %w", err)
	}

	checks := []handlers.Check{{
		Name: "mongodb",
		Ping: func(ctx context.Context) error { return mongostore.Ping(ctx, db) },
	}}
	return repo, checks, closeFn, nil
}
