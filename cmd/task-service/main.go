// @title                       Task Service API
// @version                     1.0
// @description                 Per-user task management backed by the Authentication Service.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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
	"github.com/99minutos/taskhub/internal/infrastructure/authclient"
	"github.com/99minutos/taskhub/internal/infrastructure/config"
	"github.com/99minutos/taskhub/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/taskhub/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/taskhub/internal/infrastructure/db/redis"
	"github.com/99minutos/taskhub/internal/infrastructure/http/handlers"
	"github.com/99minutos/taskhub/internal/infrastructure/notifier"
	"github.com/99minutos/taskhub/internal/infrastructure/queue"
	"github.com/99minutos/taskhub/pkg/logger"
	"github.com/99minutos/taskhub/pkg/ratelimit"
)

const (
	shutdownTimeout = 10 * time.Second
	drainTimeout    = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "task-service: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadTask(ctx)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "task-service",
	})
	if err != nil {
		return err
	}

	tasks, checks, closeStore, err := openTaskStore(ctx, cfg, logger.Component(log, "store"))
	if err != nil {
		return err
	}
	defer closeStore()

	idempotency, redisChecks, closeRedis, err := openIdempotency(ctx, cfg, logger.Component(log, "idempotency"))
	if err != nil {
		return err
	}
	defer closeRedis()
	checks = append(checks, redisChecks...)

	gateway := authclient.New(cfg.AuthServiceURL, authclient.DefaultTimeout, logger.Component(log, "gateway"))
	checks = append(checks, handlers.Check{Name: "auth_service", Ping: gateway.Ping})

	// The dispatcher outlives the signal context so requests still in flight
	// during e.Shutdown can enqueue; it is drained after the server stops.
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers,
		notifier.New(cfg.NotificationServiceURL, notifier.DefaultTimeout, logger.Component(log, "notifier")),
		logger.Component(log, "dispatcher"))
	dispatcher.Start(dispatchCtx)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequests: cfg.RateLimit.Requests,
			Window:      cfg.RateLimit.Window(),
		})
		go limiter.Run(ctx)
	}

	e := api.NewTaskRouter(api.TaskDeps{
		Service: service.NewTaskService(tasks, dispatcher, idempotency, logger.Component(log, "tasks")),
		Gateway: gateway,
		Limiter: limiter,
		Checks:  checks,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("auth_service", cfg.AuthServiceURL).Bool("rate_limit", limiter != nil).Msg("task service listening")
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
	err = e.Shutdown(shutdownCtx)

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if derr := dispatcher.Stop(drainCtx); derr != nil {
		log.Warn().Err(derr).Msg("notification drain cut short")
	}
	cancelDispatch()
	dispatcher.Wait()
	return err
}

func openTaskStore(ctx context.Context, cfg *config.TaskConfig, log zerolog.Logger) (ports.TaskRepository, []handlers.Check, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory task store; tasks are lost on restart")
		return memory.NewTaskRepository(), nil, func() {}, nil
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

	repo := mongostore.NewTaskRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("ensure task indexes: %w", err)
	}

	checks := []handlers.Check{{
		Name: "mongodb",
		Ping: func(ctx context.Context) error { return mongostore.Ping(ctx, db) },
	}}
	return repo, checks, closeFn, nil
}

// openIdempotency connects to Redis when REDIS_ADDR is set. Without it the
// Idempotency-Key header is ignored.
func openIdempotency(ctx context.Context, cfg *config.TaskConfig, log zerolog.Logger) (ports.IdempotencyStore, []handlers.Check, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, nil, func() {}, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}

	checks := []handlers.Check{{
		Name: "redis",
		Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
	}}
	return redisstore.NewIdempotencyStore(rdb), checks, closeFn, nil
}
