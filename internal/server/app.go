// Package server initializes and runs the Momentum coaching bot: it opens
// storage, runs migrations, wires the conversation engine and serves the
// webhook until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-retry"

	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/httpapi"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/oracle"
	"github.com/momentum-ia/momentum/internal/server/orchestrator"
	"github.com/momentum-ia/momentum/internal/server/planner"
	"github.com/momentum-ia/momentum/internal/server/proofstore"
	"github.com/momentum-ia/momentum/internal/server/repositories/repomanager"
	"github.com/momentum-ia/momentum/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	dispatcher := messaging.NewTwilioDispatcher(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)

	plan, err := planner.NewOpenAIPlanner(cfg.PlannerModel, cfg.OpenAIAPIKey, logger)
	if err != nil {
		return nil, err
	}
	judge, err := oracle.NewOpenAIOracle(cfg.OracleModel, cfg.OpenAIAPIKey, logger)
	if err != nil {
		return nil, err
	}

	var archive proofstore.Archive
	if cfg.S3BaseEndpoint != "" {
		archive = proofstore.NewS3Archive(cfg, logger)
	}

	engine := orchestrator.NewEngine(orchestrator.EngineParams{
		Users:         services.NewUserService(db, rm, cfg),
		Commitments:   services.NewCommitmentService(db, rm, cfg),
		Verifications: services.NewVerificationService(db, rm, cfg),
		Proofs:        services.NewProofService(db, rm, cfg),
		Dispatcher:    dispatcher,
		Planner:       plan,
		Oracle:        judge,
		Archive:       archive,
		Logger:        logger,
		Metrics:       orchestrator.NewMetrics(prometheus.DefaultRegisterer),
	})

	srv := httpapi.NewServer(engine, dispatcher, db, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

// openDB opens the pool and waits for the database to answer, retrying with
// backoff so the app survives the database starting a little later.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Start(app.config.EndpointAddr); err != nil {
			app.logger.Error(ctx, "server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}

	wg.Wait()
}
