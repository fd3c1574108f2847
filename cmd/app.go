package cmd

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"dwhload/internal/catalog"
	"dwhload/internal/config"
	"dwhload/internal/logger"
	"dwhload/internal/metrics"
	"dwhload/internal/pipeline"
	"dwhload/internal/staging"
	"dwhload/internal/telemetry"
	"dwhload/internal/warehouse"
	"dwhload/pkg/models"
)

// app holds what a command needs after the configuration is resolved
type app struct {
	cfg     *models.Config
	log     *logger.Logger
	runID   string
	catalog *catalog.Catalog

	svc           *warehouse.Service
	traceShutdown func(context.Context) error
}

func loadConfig() (*models.Config, error) {
	cfg, err := loadUnresolvedConfig()
	if err != nil {
		return nil, err
	}
	if err := config.ResolvePassword(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadUnresolvedConfig leaves a keyring password marker in place
func loadUnresolvedConfig() (*models.Config, error) {
	path, err := config.FindConfigFile(rootFlags.configFile)
	if err != nil {
		return nil, err
	}
	return config.LoadUnresolved(viper.GetViper(), path)
}

// newApp loads and validates the configuration and renders the catalog.
// A dry run never reads the keyring.
func newApp(dryRun bool) (*app, error) {
	load := loadConfig
	if dryRun {
		load = loadUnresolvedConfig
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	c, err := catalog.New(cfg.Warehouse.Dialect, config.CatalogOptions(cfg))
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, runID: uuid.NewString(), catalog: c}, nil
}

// runner connects unless dryRun and builds a pipeline runner
func (a *app) runner(ctx context.Context, dryRun bool) (*pipeline.Runner, error) {
	if rootFlags.trace {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{Version: Version, RunID: a.runID, Writer: os.Stderr})
		if err != nil {
			return nil, err
		}
		a.traceShutdown = shutdown
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(a.log),
		pipeline.WithRunID(a.runID),
		pipeline.WithMetrics(metrics.NewRecorder()),
		pipeline.WithTracer(telemetry.Tracer()),
		pipeline.WithDryRun(dryRun),
	}
	if dryRun {
		return pipeline.New(nil, a.catalog, opts...), nil
	}

	wcfg, err := config.WarehouseConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	a.svc = warehouse.NewService(wcfg, a.log)
	if err := a.svc.Connect(ctx); err != nil {
		return nil, err
	}
	if !a.catalog.Dialect().BulkCopy() {
		opts = append(opts, pipeline.WithLoader(staging.NewLoader(a.svc.DB())))
	}
	return pipeline.New(a.svc, a.catalog, opts...), nil
}

// pushMetrics sends the run's metrics when a Pushgateway is configured
func (a *app) pushMetrics(r *pipeline.Runner) {
	url := a.cfg.Metrics.PushgatewayURL
	if url == "" {
		return
	}
	if err := r.Metrics().Push(url, a.cfg.Metrics.Job, r.RunID()); err != nil {
		a.log.Warn("metrics push failed", "error", err)
	}
}

func (a *app) close() {
	if a.svc != nil {
		if err := a.svc.Close(); err != nil {
			a.log.Warn("closing warehouse connection failed", "error", err)
		}
	}
	if a.traceShutdown != nil {
		_ = a.traceShutdown(context.Background())
	}
	a.log.Sync()
}
