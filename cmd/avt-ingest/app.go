package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sebasr/avt-ingest/internal/clock"
	"github.com/sebasr/avt-ingest/internal/config"
	"github.com/sebasr/avt-ingest/internal/database"
	"github.com/sebasr/avt-ingest/internal/events"
	"github.com/sebasr/avt-ingest/internal/ingest"
	"github.com/sebasr/avt-ingest/internal/inventory"
	"github.com/sebasr/avt-ingest/internal/loader"
	"github.com/sebasr/avt-ingest/internal/logging"
	"github.com/sebasr/avt-ingest/internal/metrics"
	"github.com/sebasr/avt-ingest/internal/parser"
	"github.com/sebasr/avt-ingest/internal/repository"
	"github.com/sebasr/avt-ingest/internal/segmenter"
	"github.com/sebasr/avt-ingest/internal/timeparse"
)

// app holds the wired components shared by the commands
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.DB // nil for commands that never touch storage
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	vehicles repository.VehicleRepository
	sessions repository.SessionRepository
	events   repository.EventRepository
	ingestor *ingest.Ingestor
}

// loadConfig reads the configuration and builds the logger
func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp wires the pipeline. With withDB false no connection is opened and
// only the read-only parts (inventory, segmenter) are usable.
func newApp(ctx context.Context, configPath string, withDB bool) (*app, error) {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Ingest.Location()
	if err != nil {
		return nil, err
	}

	var translator loader.Translator
	if cfg.Ingest.TranslatorCommand != "" {
		t, err := loader.NewExecTranslator(cfg.Ingest.TranslatorCommand, cfg.Ingest.TranslatorTimeout, logger)
		if err != nil {
			return nil, err
		}
		translator = t
	}

	norm := timeparse.New(loc, clock.Real{})
	fileLoader := loader.New(parser.New(norm, logger), translator, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
	}

	deps := ingest.Dependencies{
		Inventory: inventory.NewFileSystemInventory(cfg.Ingest.DataDir, logger),
		Segmenter: segmenter.New(fileLoader, logger),
		Loader:    fileLoader,
		Metrics:   a.metrics,
	}

	if withDB {
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.vehicles = repository.NewPostgresVehicleRepository(db.DB)
		a.sessions = repository.NewPostgresSessionRepository(db.DB)
		a.events = repository.NewPostgresEventRepository(db.DB)

		deps.Vehicles = a.vehicles
		deps.Sessions = a.sessions
		deps.Events = events.NewThresholdGenerator(a.events, cfg.Ingest.StabilityThreshold, logger)
	}

	a.ingestor = ingest.New(deps, ingest.Options{
		BatchSize:      cfg.Ingest.BatchSize,
		DedupTolerance: cfg.Ingest.DedupTolerance,
		SyncThreshold:  cfg.Ingest.SyncThreshold,
	}, logger)

	return a, nil
}

// organization returns the configured tenant
func (a *app) organization() (uuid.UUID, error) {
	return a.cfg.Ingest.Organization()
}

// Close releases the database connection
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
}
