// Command holidaze-auth runs the local bridge between the Holidaze front end
// and the Noroff identity service.
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

	"github.com/holidaze/venue-auth/internal/api"
	"github.com/holidaze/venue-auth/internal/core/ports"
	"github.com/holidaze/venue-auth/internal/core/service"
	"github.com/holidaze/venue-auth/internal/core/validation"
	"github.com/holidaze/venue-auth/internal/infrastructure/db/memory"
	mongostore "github.com/holidaze/venue-auth/internal/infrastructure/db/mongo"
	redisstore "github.com/holidaze/venue-auth/internal/infrastructure/db/redis"
	"github.com/holidaze/venue-auth/internal/infrastructure/noroff"
	"github.com/holidaze/venue-auth/internal/infrastructure/telemetry"
	"github.com/holidaze/venue-auth/internal/pkg/config"
	"github.com/holidaze/venue-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "holidaze-auth: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "holidaze-auth",
	})
	log := logger.Get()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := noroff.NewClient(noroff.Config{
		BaseURL: cfg.Noroff.BaseURL,
		Timeout: cfg.Noroff.Timeout,
	}, logger.Component("noroff"))

	recorder := telemetry.NewRecorder(logger.Component("telemetry"))
	workflow := service.NewAuthWorkflow(
		client,
		validation.NewProfileValidator(),
		store,
		recorder,
		logger.Component("workflow"),
	)
	workflow.OnStateChange(recorder.ObserveState)

	state, err := workflow.Restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not restore persisted session, starting anonymous")
	}
	log.Info().Str("state", string(state)).Str("store", cfg.SessionStore).Msg("session initialised")

	e := api.NewRouter(api.Deps{
		Workflow:  workflow,
		Store:     store,
		StoreName: cfg.SessionStore,
		Log:       logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("identity", cfg.Noroff.BaseURL).Msg("bridge listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}

// openStore builds the configured session store and its cleanup function.
func openStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis session store: %w", err)
		}
		return redisstore.NewSessionStore(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo session store: %w", err)
		}
		return mongostore.NewSessionStore(db), func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil

	default:
		return memory.NewSessionStore(), func() {}, nil
	}
}
