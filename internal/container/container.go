package container

import (
	"context"
	"fmt"
	"net/http"

	"gogsea/adapters/gmt"
	"gogsea/adapters/rng"
	"gogsea/adapters/s3"
	"gogsea/adapters/sqlstore"
	"gogsea/adapters/stats/enrichment"
	"gogsea/app"
	domainenrichment "gogsea/domain/enrichment"
	"gogsea/internal"
	"gogsea/internal/admin"
	"gogsea/internal/api"
	"gogsea/internal/config"
	apperrors "gogsea/internal/errors"
	"gogsea/internal/metrics"
	"gogsea/internal/testkit"
	"gogsea/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	// Adapters
	Catalogs *gmt.Registry
	Engine   *enrichment.Engine
	Runs     ports.RunRepository

	// Services
	Analyses *app.AnalysisService

	// Transport
	API   *api.Server
	Admin *admin.Router
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := c.initCatalogs(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize catalogs: %w", err)
	}
	if err := c.initRunStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}
	c.initServices()
	c.initTransport()

	logger.Info("Container initialized: %d species, run store %s", len(cfg.Catalogs.Locations), cfg.RunStore.Driver)
	return c, nil
}

// initCatalogs builds the per-species registry; s3:// locations get an S3 client
func (c *Container) initCatalogs(ctx context.Context) error {
	var opener gmt.Opener = gmt.FileOpener{}

	needsS3 := false
	for _, location := range c.Config.Catalogs.Locations {
		if s3.IsURI(location) {
			needsS3 = true
			break
		}
	}
	if needsS3 {
		s3Opener, err := s3.New(ctx, s3.Config{
			Region:    c.Config.S3.Region,
			Endpoint:  c.Config.S3.Endpoint,
			PathStyle: c.Config.S3.PathStyle,
		})
		if err != nil {
			return err
		}
		opener = gmt.SchemeOpener{
			Default: gmt.FileOpener{},
			Schemes: map[string]gmt.Opener{s3.Scheme: s3Opener},
		}
	}

	c.Catalogs = gmt.NewRegistry(gmt.RegistryConfig{
		Locations: c.Config.Catalogs.Locations,
		Parse:     gmt.ParseOptions{UpperSymbols: c.Config.Catalogs.UpperCase},
	}, opener, c.Logger)
	c.Catalogs.SetObserver(c.Metrics)

	if c.Config.Catalogs.Preload {
		c.Catalogs.Preload(ctx)
	}
	return nil
}

// initRunStore selects the run ledger backend
func (c *Container) initRunStore(ctx context.Context) error {
	switch c.Config.RunStore.Driver {
	case "", "memory":
		c.Runs = testkit.NewInMemoryRunRepository()
		return nil
	}

	db, err := sqlstore.Open(ctx, c.Config.RunStore.Driver, c.Config.RunStore.URL)
	if err != nil {
		appErr := apperrors.DatabaseError(fmt.Sprintf("open %s run store", c.Config.RunStore.Driver))
		appErr.Cause = err
		return appErr
	}
	c.DB = db
	c.Runs = sqlstore.NewRunRepository(db)
	return nil
}

func (c *Container) initServices() {
	e := c.Config.Engine
	c.Engine = enrichment.NewEngine(c.Logger)
	c.Analyses = app.NewAnalysisService(
		c.Catalogs,
		c.Engine,
		c.Runs,
		rng.NewClockAdapter(),
		app.AnalysisSettings{
			DefaultPermutations:   e.DefaultPermutations,
			MaxPermutations:       e.MaxPermutations,
			Workers:               e.Workers,
			MaxConcurrentAnalyses: e.MaxConcurrentAnalyses,
			Weight:                e.Weight,
			NormMode:              domainenrichment.NormMode(e.NormMode),
			UpperSymbols:          c.Config.Catalogs.UpperCase,
		},
		c.Logger,
	)
	c.Analyses.SetRecorder(c.Metrics)
}

func (c *Container) initTransport() {
	c.API = api.NewServer(c.Analyses, api.ServerSettings{
		GinMode:      c.Config.Server.GinMode,
		MaxBodyBytes: c.Config.Server.MaxBodyBytes,
	}, c.Logger)
	c.Admin = admin.NewRouter(c.Metrics.Handler(), c.Catalogs)
}

// APIServer returns the configured public HTTP server
func (c *Container) APIServer() *http.Server {
	return &http.Server{
		Addr:         ":" + c.Config.Server.Port,
		Handler:      c.API.Handler(),
		ReadTimeout:  c.Config.Server.ReadTimeout,
		WriteTimeout: c.Config.Server.WriteTimeout,
	}
}

// AdminServer returns the admin HTTP server, or nil when disabled
func (c *Container) AdminServer() *http.Server {
	if !c.Config.Admin.Enabled {
		return nil
	}
	return &http.Server{
		Addr:    ":" + c.Config.Admin.Port,
		Handler: c.Admin.Handler(),
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
