// Package server wires the mirror server together: storage backend, change
// broker, document service, metrics endpoint and the gRPC server, and shuts
// them down in reverse order.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sabo/internal/logging"
	"github.com/dmitrijs2005/sabo/internal/server/broker"
	"github.com/dmitrijs2005/sabo/internal/server/config"
	"github.com/dmitrijs2005/sabo/internal/server/metrics"
	"github.com/dmitrijs2005/sabo/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sabo/internal/server/services"

	gs "github.com/dmitrijs2005/sabo/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

var openRepositories = repomanager.Open

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    *repomanager.Manager
	broker   broker.Broker
	metrics  *metrics.Metrics
	docs     *services.DocumentService
	instance string
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	instance := uuid.NewString()
	b, err := newBroker(ctx, c, instance, logger)
	if err != nil {
		_ = repos.Close(ctx)
		return nil, err
	}

	m := metrics.New()
	docs := services.NewDocumentService(repos.Documents(), b, c.CacheTTL, m, logger)
	if n, ok := b.(broker.ForeignNotifier); ok {
		n.OnForeign(docs.Observe)
	}

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		broker:   b,
		metrics:  m,
		docs:     docs,
		instance: instance,
	}, nil
}

func newBroker(ctx context.Context, c *config.Config, instance string, logger logging.Logger) (broker.Broker, error) {
	if c.RedisURL == "" {
		return broker.NewLocal(), nil
	}
	rb, err := broker.NewRedisFromURL(c.RedisURL, instance, logger)
	if err != nil {
		return nil, err
	}
	if err := rb.Start(ctx); err != nil {
		_ = rb.Close()
		return nil, err
	}
	return rb, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.docs, app.config.SecretKey,
		app.config.PutRateLimit, app.config.PutBurst, app.metrics)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails,
// then releases the broker and storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "instance", app.instance)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.broker.Close(); err != nil {
		app.logger.Warn(ctx, "close broker", "error", err)
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Warn(ctx, "close storage", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
