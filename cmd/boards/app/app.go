// Package app bootstraps the boards processes: configuration, logging,
// and the run loop of each subcommand.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"boards-backend/cmd/boards/di"
	"boards-backend/cmd/boards/infrastructure"
	"boards-backend/cmd/boards/server"
	"boards-backend/internal/adapter/db/postgres"
	"boards-backend/internal/config"
	"boards-backend/internal/fixtures"
	pkgauth "boards-backend/pkg/auth"
	"boards-backend/pkg/logger"
)

// App carries configuration and the logger shared by all subcommands.
type App struct {
	Config *config.Config
	Logger *zap.Logger
}

// New loads configuration and initializes logging. debug forces the
// log level down and gin into debug mode.
func New(debug bool) (*App, error) {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.App.Debug = true
		cfg.Logger.Level = "debug"
	}

	l, err := logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{Config: cfg, Logger: l}, nil
}

// RunServe runs the API process until the context is cancelled.
func (a *App) RunServe(ctx context.Context) error {
	c, err := di.NewContainer(a.Config, a.Logger)
	if err != nil {
		return err
	}
	defer a.closeQuietly(c.Close)

	a.Logger.Info("starting api server",
		zap.String("environment", a.Config.App.Environment),
		zap.String("port", a.Config.App.HTTPPort))

	srv := server.NewHTTP(":"+a.Config.App.HTTPPort, c.Router, false)
	return server.Run(ctx, srv, a.shutdownTimeout(), a.Logger)
}

// RunSockets runs the websocket fanout process: the hub, the Redis
// announce listener, and the HTTP listener.
func (a *App) RunSockets(ctx context.Context) error {
	c, err := di.NewSocketsContainer(a.Config, a.Logger)
	if err != nil {
		return err
	}
	defer a.closeQuietly(c.Close)

	a.Logger.Info("starting sockets server",
		zap.String("environment", a.Config.App.Environment),
		zap.String("port", a.Config.App.SocketsPort),
		zap.String("channel", a.Config.Redis.SocketsChannel))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		c.Listener.Run(ctx)
		return nil
	})
	g.Go(func() error {
		srv := server.NewHTTP(":"+a.Config.App.SocketsPort, c.Router, true)
		return server.Run(ctx, srv, a.shutdownTimeout(), a.Logger)
	})
	return g.Wait()
}

// RunMigrate applies the schema migrations and exits.
func (a *App) RunMigrate(ctx context.Context) error {
	db, err := infrastructure.NewDatabase(a.Config, a.Logger)
	if err != nil {
		return err
	}
	defer a.closeQuietly(func() error { return infrastructure.CloseDatabase(db) })

	if err := db.WithContext(ctx).AutoMigrate(postgres.MigrationModels()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	a.Logger.Info("migrations applied",
		zap.Int("models", len(postgres.MigrationModels())))
	return nil
}

// RunLoadData loads fixture files in order and exits.
func (a *App) RunLoadData(ctx context.Context, paths []string) error {
	db, err := infrastructure.NewDatabase(a.Config, a.Logger)
	if err != nil {
		return err
	}
	defer a.closeQuietly(func() error { return infrastructure.CloseDatabase(db) })

	loader := fixtures.NewLoader(db, pkgauth.NewPasswordHasher(a.Config.Auth.BcryptCost), a.Logger)
	total := 0
	for _, path := range paths {
		n, err := loader.LoadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		total += n
	}
	a.Logger.Info("fixtures applied",
		zap.Int("files", len(paths)),
		zap.Int("records", total))
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	return time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
}

func (a *App) closeQuietly(close func() error) {
	if err := close(); err != nil {
		a.Logger.Error("failed to close resources", zap.Error(err))
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
