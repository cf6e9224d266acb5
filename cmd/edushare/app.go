package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/edushare-api/internal/api"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/events"
	"github.com/phrazzld/edushare-api/internal/platform/gemini"
	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/phrazzld/edushare-api/internal/platform/youtube"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
	"github.com/phrazzld/edushare-api/internal/task"
	"golang.org/x/sync/errgroup"
)

// application holds the wired dependencies of a running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	queue   *task.TaskQueue
	runner  *task.TaskRunner
	handler http.Handler
}

// newApplication wires stores, external clients, the task runtime, and the
// HTTP router over an open, migrated database.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	dialect sqlstore.Dialect,
) (*application, error) {
	users := sqlstore.NewUserStore(db, dialect, logger)
	playlists := sqlstore.NewPlaylistStore(db, dialect, logger)
	enrollments := sqlstore.NewEnrollmentStore(db, dialect, logger)
	records := sqlstore.NewEnrichmentStore(db, dialect, logger)
	progress := sqlstore.NewProgressStore(db, dialect, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	passwords := auth.NewBcryptVerifier(cfg.Auth.BCryptCost)

	generator, err := gemini.NewGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	lister, err := youtube.NewLister(ctx, cfg.YouTube, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize YouTube client: %w", err)
	}

	queue := task.NewTaskQueue(cfg.Worker.QueueSize, logger)
	factory := task.NewSummaryTaskFactory(records, generator, cfg.Worker.RetryBackoff, logger)
	scanner := task.NewRecoveryScanner(records, factory, queue, logger)
	runner := task.NewTaskRunner(queue, scanner, task.TaskRunnerConfig{
		WorkerCount:      cfg.Worker.Count,
		RecoveryInterval: cfg.Worker.RecoveryInterval,
	}, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.Subscribe(events.TypeSummaryGeneration, task.NewTaskFactoryEventHandler(factory, runner, logger))

	playlistService, err := service.NewPlaylistService(
		db, users, playlists, enrollments, records, progress, lister, emitter, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist service: %w", err)
	}

	router := api.NewRouter(api.RouterDeps{
		Users: service.NewUserService(
			db, users, playlists, enrollments, records, progress, passwords, passwords, jwtService, logger,
		),
		Playlists: playlistService,
		Progress:  service.NewProgressService(db, users, playlists, enrollments, progress, logger),
		Quizzes:   service.NewQuizService(playlists, records, generator, cfg.Quiz, logger),
		Tokens:    jwtService,
		DB:        db,
		Queue:     queue,
		Logger:    logger,
	})

	logger.Info("application initialized",
		"workers", cfg.Worker.Count,
		"queue_size", cfg.Worker.QueueSize,
		"model", cfg.LLM.ModelName)

	return &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		queue:   queue,
		runner:  runner,
		handler: router,
	}, nil
}

// Run serves HTTP and processes tasks until ctx is cancelled, then shuts
// both down within the configured timeout.
func (app *application) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(app.config.Server.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := app.runner.Start(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down", "timeout", app.config.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		app.runner.Stop()
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup releases resources after Run returns or when startup fails
// part way.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
