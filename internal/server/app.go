// Package server initializes and runs the log directory server. It wires
// the PostgreSQL store, the directory and attachment services, and the HTTP
// endpoint, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ologd/internal/logging"
	"github.com/dmitrijs2005/ologd/internal/server/attachments"
	"github.com/dmitrijs2005/ologd/internal/server/config"
	"github.com/dmitrijs2005/ologd/internal/server/directory"
	"github.com/dmitrijs2005/ologd/internal/server/httpapi"
	"github.com/dmitrijs2005/ologd/internal/server/store"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *store.PostgresStore
	manager *directory.Manager
	attach  *attachments.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	st, err := store.NewPostgresStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := directory.NewManager(st, c)
	attach := attachments.NewService(attachments.NewPostgresRepository(st.Conn()), st, c)

	return &App{config: c, logger: logger, store: st, manager: manager, attach: attach}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config, app.manager, app.attach, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
