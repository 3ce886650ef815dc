// Package server wires configuration, the database pool, services and the
// three listeners (web, api, gRPC health) into one process, and shuts them
// down together on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/api"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/httpx"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goblog/internal/server/services"
	"github.com/dmitrijs2005/goblog/internal/server/sessions"
	"github.com/dmitrijs2005/goblog/internal/server/web"

	gs "github.com/dmitrijs2005/goblog/internal/server/grpc"
)

// runner is a listener that serves until ctx is cancelled.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	runners []runner
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	dsn, cursorClass, err := c.ResolveDSN(config.Environ())
	if err != nil {
		return nil, err
	}
	if cursorClass != "" {
		logger.Info(ctx, "database credentials loaded", "cursor_class", cursorClass)
	}

	db, err := dbx.OpenPool(ctx, repomanager.DriverName, dsn, dbx.PoolOptions{
		MaxOpenConns: c.DatabaseMaxConns,
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	as := services.NewArticleService(db, rm)
	is := services.NewImageService(c)

	wh, err := web.NewHandler(web.Options{
		Users:    us,
		Articles: as,
		Images:   is,
		Sessions: sessions.NewStore(c.SessionValidityDuration),
		Logger:   logger,
		AppName:  c.AppName,
		Version:  c.AppVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("web init error: %w", err)
	}

	ah := api.NewHandler(api.Options{
		Users:          us,
		Articles:       as,
		Images:         is,
		Logger:         logger,
		AllowedOrigins: c.AllowedOrigins,
		AppName:        c.AppName,
		Version:        c.AppVersion,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		runners: []runner{
			httpx.NewServer("web", c.WebAddr, wh.Routes(), logger),
			httpx.NewServer("api", c.APIAddr, ah.Routes(), logger),
			gs.NewGRPCServer(c.GRPCAddr, logger, gs.NewHealthServer(db, logger)),
		},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves every listener until ctx is cancelled, a signal arrives or one
// of them fails; a failure stops the others. The pool is closed last.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for _, r := range app.runners {
		wg.Add(1)
		go func(r runner) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				once.Do(func() { firstErr = err })
				cancelFunc()
			}
		}(r)
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")

	return firstErr
}
