package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
	ConsumeStream(context.Context) func() error
}

type App struct {
	logger   *zap.Logger
	config   *Config
	server   *http.Server
	receiver StreamReceiver
	service  *ShelfService
	display  *DisplayBuffer
	hub      *LiveHub
	cleanups []func()
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	var app *App
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)
	cleanups := []func(){
		func() {
			if ferr := flusher(); ferr != nil {
				fmt.Println("error during flushing of logs: ", ferr)
			}
		},
		func() {
			if cerr := logWriter.Close(); cerr != nil {
				fmt.Println("error during closing of log file: ", cerr)
			}
		},
	}

	// Setup the shelves state and the delay before new data shows up.
	metrics := NewMetrics()
	board := NewShelfBoard(config.Shelves)
	display := NewDisplayBuffer(logger, clock, config.Display.Delay, board)
	shelfService := NewShelfService(logger, clock, board, display, metrics)
	hub := NewLiveHub(logger, metrics, config.Server.LivePingPeriod)

	metrics.ObserveBoard(board.Snapshot())
	board.Subscribe(metrics.ObserveBoard)
	board.Subscribe(func(ShelfSnapshot) {
		hub.Broadcast(board.Shelves())
	})

	// Setup the connection to the shelves data stream.
	receiver, closeReceiver, err := NewStreamReceiver(logger, config)
	if err != nil {
		return app, fmt.Errorf("failed to setup stream receiver: %s", err)
	}
	cleanups = append(cleanups, func() {
		if cerr := closeReceiver(); cerr != nil {
			logger.Error("failed to close stream receiver", zap.Error(cerr))
		}
	})

	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		metrics,
		hub,
		shelfService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresLive, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.ChainRoute,
			live:   middlewaresLive.ChainRoute,
			ops:    middlewaresOps.ChainRoute,
		},
	)

	// Build the api server definition. No write timeout is set since
	// live connections are hijacked and requests timeout through context.
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        router,
		ReadTimeout:    config.Server.ReadTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return &App{
		logger:   logger,
		config:   config,
		server:   srv,
		receiver: receiver,
		service:  shelfService,
		display:  display,
		hub:      hub,
		cleanups: cleanups,
	}, nil
}

// Run starts the api web server, the stream consumer and a goroutine which is responsible to stop them.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeStream(gCtx))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions in reverse order.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// ConsumeStream receives the shelves stream until the connection ends or the
// group context is done. The stream ending does not stop the server, the
// dashboard keeps showing the last received state.
func (app *App) ConsumeStream(gCtx context.Context) func() error {
	return func() error {
		app.logger.Info("stream consumer starting",
			zap.String("stream.kind", app.receiver.Kind()),
		)
		if err := app.receiver.Receive(gCtx, app.service); err != nil {
			app.logger.Error("stream consumer failed", zap.String("stream.kind", app.receiver.Kind()), zap.Error(err))
			return nil
		}
		app.logger.Info("stream consumer stopped", zap.String("stream.kind", app.receiver.Kind()))
		return nil
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		app.display.Stop()
		app.hub.Close()

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}
