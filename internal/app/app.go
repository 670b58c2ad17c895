// Package app wires configuration, storage and the REST server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/workplace-hygiene/noiseexposure/internal/controllers/restserver"
	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/internal/store/postgres"
	"github.com/workplace-hygiene/noiseexposure/internal/store/sqlite"
	"github.com/workplace-hygiene/noiseexposure/pkg/config"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// ErrNoStorage is returned when an operation needs a store and none is configured.
var ErrNoStorage = errors.New("no storage backend configured")

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Calculator returns an exposure calculator configured from the engine section
func (a *App) Calculator() *exposure.Calculator {
	return exposure.NewCalculator(a.config.Engine.Options(), a.logger.Named("exposure"))
}

// Workers returns the configured recompute parallelism
func (a *App) Workers() int {
	return a.config.Recompute.Workers
}

// OpenStore opens the configured storage backend. It returns ErrNoStorage
// when none is configured.
func (a *App) OpenStore(ctx context.Context) (store.Store, error) {
	storage := a.config.Storage
	switch {
	case storage.SQLite != nil:
		a.logger.Infof("using SQLite store at %s", storage.SQLite.Path)
		return sqlite.Open(ctx, storage.SQLite.Path, a.logger.Named("sqlite"))
	case storage.Postgres != nil:
		return postgres.Open(ctx, storage.Postgres.ConnectionString, a.logger.Named("postgres"))
	default:
		return nil, ErrNoStorage
	}
}

// Run serves the REST API and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := a.OpenStore(ctx)
	switch {
	case errors.Is(err, ErrNoStorage):
		a.logger.Warn("no storage configured; only POST /api/v1/statistics is available")
		s = nil
	case err != nil:
		return fmt.Errorf("opening store: %w", err)
	default:
		defer s.Close()
	}

	ctrl := restserver.NewController(ctx, &wg, s, a.Calculator(), a.config.REST, a.logger.Named("rest"))
	if err := ctrl.StartController(); err != nil {
		return err
	}

	a.logger.Info("application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
