package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/infrastructure/filesink"
	"NewsAggregator/internal/infrastructure/parser"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/usecase"
)

// Application wires configs to the aggregation engine and its adapters.
type Application struct {
	cfg     config.Config
	runID   string
	logger  *slog.Logger
	decoder ports.BatchDecoder
}

// New builds a runnable application instance; every run gets a fresh identifier.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	runID := uuid.NewString()
	logger := baseLogger.With("run_id", runID)

	decoder := parser.NewFileSource(parser.NewDefaultRegistry(), cfg.Input.StripHTML, logger.With("component", "decoder"))

	return &Application{
		cfg:     cfg,
		runID:   runID,
		logger:  logger,
		decoder: decoder,
	}
}

// RunID identifies this application's run in logs and SQL sinks.
func (a *Application) RunID() string {
	return a.runID
}

// Run loads the batch list and constraint sets, then executes the engine.
// Any load failure aborts before a worker starts.
func (a *Application) Run(ctx context.Context) (usecase.Summary, error) {
	batches, err := config.ReadPathList(a.cfg.Input.Articles)
	if err != nil {
		return usecase.Summary{}, fmt.Errorf("load batch list: %w", err)
	}

	constraints, err := config.LoadConstraints(a.cfg.Input.Inputs)
	if err != nil {
		return usecase.Summary{}, fmt.Errorf("load constraints: %w", err)
	}

	a.logger.Info("inputs loaded",
		"batches", len(batches),
		"languages", len(constraints.Languages),
		"categories", len(constraints.Categories),
		"excluded_words", len(constraints.Excluded))

	sink, recorder, closeSink, err := a.openSink(ctx)
	if err != nil {
		return usecase.Summary{}, err
	}
	defer closeSink()

	aggregator := usecase.NewAggregator(usecase.AggregatorDeps{
		Decoder:     a.decoder,
		Sink:        sink,
		Constraints: constraints,
		Workers:     a.cfg.Workers,
		Strict:      a.cfg.Strict,
		Logger:      a.logger.With("component", "aggregator"),
	})

	summary, err := aggregator.Run(ctx, batches)
	if err != nil {
		return usecase.Summary{}, err
	}

	if recorder != nil {
		err := recorder.RecordRun(ctx, storage.RunRecord{
			Read:       summary.Read,
			Unique:     summary.Unique,
			Duplicates: summary.Duplicates(),
			Failed:     len(summary.Failed),
			FinishedAt: time.Now(),
		})
		if err != nil {
			return summary, fmt.Errorf("record run: %w", err)
		}
	}

	return summary, nil
}

func (a *Application) openSink(ctx context.Context) (ports.ReportSink, *storage.SQLSink, func(), error) {
	switch a.cfg.Output.Sink {
	case config.SinkSQLite, config.SinkPostgres:
		driver := storage.DriverSQLite
		if a.cfg.Output.Sink == config.SinkPostgres {
			driver = storage.DriverPostgres
		}

		db, err := storage.Open(ctx, driver, a.cfg.Output.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open report database: %w", err)
		}
		sink := storage.NewSQLSink(db, driver, a.runID)
		if err := sink.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return sink, sink, closeDB(db, a.logger), nil

	default:
		sink, err := filesink.New(a.cfg.Output.Dir)
		if err != nil {
			return nil, nil, nil, err
		}
		a.logger.Debug("file sink ready", "dir", sink.Dir())
		return sink, nil, func() {}, nil
	}
}

func closeDB(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("close report database", "error", err)
		}
	}
}
