package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"governance-backend/internal/discovery"
	"governance-backend/internal/harvest"
	"governance-backend/internal/pipeline"
	"governance-backend/internal/reports"
	"governance-backend/internal/shared/config"
	"governance-backend/internal/shared/metrics"
	"governance-backend/internal/shared/server"
	"governance-backend/internal/shared/storage/db"
	"governance-backend/internal/specdoc"
)

// App holds the wired application: repositories, the pipeline, and the
// router serving the reporting API.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	SpecRepo    specdoc.Repo
	ReportsRepo reports.Repo

	Adapter   *discovery.Adapter
	Fetcher   *harvest.Fetcher
	Harvester *harvest.Harvester
	Store     *reports.Store
	Runner    *pipeline.Runner
	Scheduler *pipeline.Scheduler

	DiscoveryHandler *discovery.Handler
	ReportsHandler   *reports.Handler
	PipelineHandler  *pipeline.Handler
}

// Build prepares all shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
	}

	if sqlDB != nil {
		app.SpecRepo = &specdoc.PGRepo{DB: sqlDB}
		app.ReportsRepo = &reports.PGRepo{DB: sqlDB}
	} else {
		app.SpecRepo = specdoc.NewMemoryRepo()
		app.ReportsRepo = reports.NewMemoryRepo()
	}

	app.Fetcher = harvest.NewFetcher(cfg.FetchTimeout, cfg.FetchRetries)
	app.Adapter = &discovery.Adapter{
		Client: discovery.NewControlPlaneClient(cfg.ControlPlaneURL, cfg.FetchTimeout),
		Prober: app.Fetcher,
		Cfg: discovery.Config{
			Namespaces:         cfg.Namespaces,
			LabelSelector:      cfg.LabelSelector,
			SpecPath:           cfg.SpecPath,
			HealthPath:         cfg.HealthPath,
			HealthCheckEnabled: cfg.HealthCheckEnabled,
		},
	}
	app.Harvester = &harvest.Harvester{
		Fetcher:     app.Fetcher,
		Repo:        app.SpecRepo,
		Concurrency: cfg.HarvestConcurrency,
	}
	app.Store = reports.NewStore(app.ReportsRepo)
	app.Runner = &pipeline.Runner{
		Adapter:      app.Adapter,
		Harvester:    app.Harvester,
		Store:        app.Store,
		SpecRepo:     app.SpecRepo,
		RulesPath:    cfg.ComplianceRulesPath,
		SynonymsPath: cfg.SynonymsPath,
		Deadline:     cfg.CycleDeadline,
		Retention:    cfg.SpecRetention,
	}
	app.Scheduler = pipeline.NewScheduler(app.Runner, cfg.HarvestInterval)

	app.DiscoveryHandler = discovery.NewHandler(app.Adapter)
	app.ReportsHandler = reports.NewHandler(app.Store)
	app.PipelineHandler = pipeline.NewHandler(app.Scheduler)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DiscoveryHandler: app.DiscoveryHandler,
		ReportsHandler:   app.ReportsHandler,
		PipelineHandler:  app.PipelineHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
