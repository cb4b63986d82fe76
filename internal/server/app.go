// Package server wires storage, services and transports together and runs
// the HTTP and gRPC servers until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/backup"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userkeeper/internal/server/rest"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
	"github.com/dmitrijs2005/userkeeper/internal/timex"

	gs "github.com/dmitrijs2005/userkeeper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	backups     *backup.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	stamper, err := timex.NewStamper(c.TimestampLayout, c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timestamp config: %w", err)
	}

	rm, err := repomanager.New(ctx, c, stamper, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, err
	}

	bs, err := backup.FromConfig(ctx, c, rm.Users(), logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	us := services.NewUserService(rm.Users(), c, logger)

	logger.Info(ctx, "storage ready", "backend", rm.Backend(), "backups", bs != nil)

	return &App{config: c, logger: logger, repos: rm, userService: us, backups: bs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) snapshotter() rest.Snapshotter {
	if app.backups == nil {
		return nil
	}
	return app.backups
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. Storage is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	httpServer := rest.NewServer(app.config, app.userService, app.snapshotter(), app.logger)
	grpcServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.userService, app.config.SecretKey)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return grpcServer.Run(gctx) })

	err := g.Wait()
	if cerr := app.repos.Close(); cerr != nil {
		app.logger.Error(ctx, "close storage", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
